package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/jrsteele09/go-studio-client/users"
)

// SessionSnapshot is the JSON view of the session state. Tokens are never exposed.
type SessionSnapshot struct {
	State         string      `json:"state"`
	Authenticated bool        `json:"authenticated"`
	Loading       bool        `json:"loading"`
	PendingEmail  string      `json:"pendingEmail,omitempty"`
	User          *users.User `json:"user,omitempty"`
}

// NotificationSnapshot is the JSON view of the notification surface
type NotificationSnapshot struct {
	Visible bool             `json:"visible"`
	Kind    notify.EventKind `json:"kind,omitempty"`
	Message string           `json:"message,omitempty"`
	HidesAt *time.Time       `json:"hidesAt,omitempty"`
}

func Snapshot(state session.State) SessionSnapshot {
	snap := SessionSnapshot{State: state.Name()}
	switch st := state.(type) {
	case session.Loading:
		snap.Loading = true
	case session.PendingOtp:
		snap.PendingEmail = st.Email
	case session.Authenticated:
		snap.Authenticated = true
		u := st.User
		snap.User = &u
	}
	return snap
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Snapshot(s.store.State()))
	}
}

func (s *Server) NotificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap NotificationSnapshot
		if s.surface != nil {
			if n, ok := s.surface.Current(); ok {
				hides := n.HidesAt
				snap = NotificationSnapshot{Visible: true, Kind: n.Kind, Message: n.Message, HidesAt: &hides}
			}
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// DismissHandler closes the notification. Form posts are sent back to the page they came from.
func (s *Server) DismissHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.surface != nil {
			s.surface.Dismiss()
		}
		if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
			http.Redirect(w, r, ref.Path, http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
