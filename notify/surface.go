package notify

import (
	"sync"
	"time"
)

// DefaultDuration is how long a notification stays visible unless dismissed
const DefaultDuration = 5 * time.Second

// Notification is what the surface is currently showing
type Notification struct {
	Kind     EventKind
	Message  string
	ShownAt  time.Time
	HidesAt  time.Time
	Sequence uint64
}

// Surface is the globally mounted listener that renders transient alerts.
// At most one notification is visible; a new event replaces it and restarts the timer.
type Surface struct {
	subscriber Subscriber
	duration   time.Duration
	message    string // overrides the event message when set

	lock        sync.Mutex
	current     *Notification
	timer       *time.Timer
	sequence    uint64
	unsubscribe func()
	onChange    func(Notification, bool)
}

// SurfaceOption configures a Surface
type SurfaceOption func(*Surface)

// WithDuration overrides the visible duration
func WithDuration(d time.Duration) SurfaceOption {
	return func(s *Surface) {
		s.duration = d
	}
}

// WithMessage forces a fixed display message regardless of the event payload
func WithMessage(msg string) SurfaceOption {
	return func(s *Surface) {
		s.message = msg
	}
}

// WithOnChange is called (outside the lock) whenever a notification is shown or hidden
func WithOnChange(fn func(n Notification, visible bool)) SurfaceOption {
	return func(s *Surface) {
		s.onChange = fn
	}
}

func NewSurface(subscriber Subscriber, opts ...SurfaceOption) *Surface {
	s := &Surface{
		subscriber: subscriber,
		duration:   DefaultDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount subscribes to rate limit broadcasts. Mounting twice is a no-op.
func (s *Surface) Mount() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unsubscribe != nil {
		return
	}
	s.unsubscribe = s.subscriber.Subscribe(RateLimitExceeded, s.show)
}

// Unmount stops listening and hides whatever is visible
func (s *Surface) Unmount() {
	s.lock.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.lock.Unlock()
	s.Dismiss()
}

// Current returns the visible notification, if any
func (s *Surface) Current() (Notification, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Dismiss hides the visible notification immediately
func (s *Surface) Dismiss() {
	s.lock.Lock()
	if s.current == nil {
		s.lock.Unlock()
		return
	}
	hidden := *s.current
	s.current = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.lock.Unlock()

	s.changed(hidden, false)
}

func (s *Surface) show(event Event) {
	msg := event.Message
	if s.message != "" {
		msg = s.message
	}
	now := time.Now()

	s.lock.Lock()
	s.sequence++
	seq := s.sequence
	n := Notification{
		Kind:     event.Kind,
		Message:  msg,
		ShownAt:  now,
		HidesAt:  now.Add(s.duration),
		Sequence: seq,
	}
	s.current = &n
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.duration, func() { s.expire(seq) })
	s.lock.Unlock()

	s.changed(n, true)
}

// expire hides the notification only if it is still the one the timer was started for
func (s *Surface) expire(seq uint64) {
	s.lock.Lock()
	if s.current == nil || s.current.Sequence != seq {
		s.lock.Unlock()
		return
	}
	hidden := *s.current
	s.current = nil
	s.timer = nil
	s.lock.Unlock()

	s.changed(hidden, false)
}

func (s *Surface) changed(n Notification, visible bool) {
	if s.onChange != nil {
		s.onChange(n, visible)
	}
}
