// Package fakeapi is an in-memory stand-in for the remote studio API, used by tests and `studio dev-api`.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/jrsteele09/go-studio-client/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Policy defaults
const (
	DefaultAccessTTL     = 15 * time.Minute
	DefaultOtpTTL        = 10 * time.Minute
	MaxOtpFailures       = 5
	DefaultSignupCredits = 4
	QuotaMessage         = "Daily API limit exceeded. Please try again tomorrow."
)

// Mail kinds recorded in the outbox
const (
	MailOtp    = "otp"
	MailVerify = "verify"
	MailReset  = "reset"
)

// Mail is a message the server would have emailed
type Mail struct {
	To    string
	Kind  string
	Token string
}

// Server implements the remote API routes on a gorilla/mux router
type Server struct {
	router    *mux.Router
	accounts  *accountRepo
	tokens    *tokenIssuer
	limiter   *rate.Limiter
	now       func() time.Time
	accessTTL time.Duration
	prefix    string
	secret    []byte

	mu          sync.Mutex
	outbox      []Mail
	assets      []studio.Asset
	posts       []studio.CommunityPost
	proposals   []studio.Proposal
	subscribers []string
	faults      map[string]fault
	uploadTypes []string
}

// fault is a canned error answered once instead of running the route
type fault struct {
	status int
	msg    string
}

type Option func(*Server)

// WithClock replaces time.Now, for token and OTP expiry tests
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = d
	}
}

// WithQuota answers 429 once the limiter is exhausted
func WithQuota(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithPrefix mounts the routes under prefix, e.g. "/api"
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.prefix = strings.TrimRight(prefix, "/")
	}
}

func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		accounts:  newAccountRepo(),
		now:       time.Now,
		accessTTL: DefaultAccessTTL,
		secret:    []byte(randomToken()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = newTokenIssuer(s.secret, s.accessTTL, func() time.Time { return s.now() })
	s.router = mux.NewRouter()
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	r := s.router
	if s.prefix != "" {
		r = s.router.PathPrefix(s.prefix).Subrouter()
	}
	r.Use(s.quotaMiddleware, s.faultMiddleware)

	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify-otp", s.verifyOtp).Methods(http.MethodPost)
	r.HandleFunc("/auth/resend-otp", s.resendOtp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup", s.signup).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify/{token}", s.verifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/auth/forgot-password", s.forgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset-password/{token}", s.resetPassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/user", s.requireUser(s.currentUser)).Methods(http.MethodGet)
	r.HandleFunc("/auth/refresh-token", s.refreshToken).Methods(http.MethodPost)

	r.HandleFunc("/user/credits", s.requireUser(s.credits)).Methods(http.MethodGet)
	r.HandleFunc("/user/analyze-pose", s.requireUser(s.analyzePose)).Methods(http.MethodPost)
	r.HandleFunc("/user/generate-edit", s.requireUser(s.generateEdit)).Methods(http.MethodPost)
	r.HandleFunc("/user/community", s.listCommunity).Methods(http.MethodGet)

	r.HandleFunc("/admin/assets", s.requireAdmin(s.listAssets)).Methods(http.MethodGet)
	r.HandleFunc("/admin/assets", s.requireAdmin(s.createAsset)).Methods(http.MethodPost)
	r.HandleFunc("/admin/assets/{id}", s.requireAdmin(s.deleteAsset)).Methods(http.MethodDelete)
	r.HandleFunc("/admin/extract-prompt", s.requireAdmin(s.extractPrompt)).Methods(http.MethodPost)
	r.HandleFunc("/admin/cleanup-community", s.requireAdmin(s.cleanupCommunity)).Methods(http.MethodPost)
	r.HandleFunc("/admin/community/{id}", s.requireAdmin(s.deleteCommunityPost)).Methods(http.MethodDelete)

	r.HandleFunc("/forms/proposal", s.submitProposal).Methods(http.MethodPost)
	r.HandleFunc("/forms/subscribe", s.subscribe).Methods(http.MethodPost)
}

// SeedUser adds a verified account, as if it had signed up and clicked the email link
func (s *Server) SeedUser(u users.User, password string) (users.User, error) {
	if u.Credits == 0 {
		u.Credits = DefaultSignupCredits
	}
	a, err := s.accounts.Create(u, password, true)
	if err != nil {
		return users.User{}, err
	}
	return a.User, nil
}

// SeedAsset adds a reference asset
func (s *Server) SeedAsset(a studio.Asset) studio.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = randomToken()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.assets = append(s.assets, a)
	return a
}

// SeedPost adds a community post
func (s *Server) SeedPost(p studio.CommunityPost) studio.CommunityPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = randomToken()
	}
	s.posts = append(s.posts, p)
	return p
}

// LastMail returns the most recent token of kind sent to email
func (s *Server) LastMail(email, kind string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.outbox) - 1; i >= 0; i-- {
		m := s.outbox[i]
		if m.Kind == kind && strings.EqualFold(m.To, email) {
			return m.Token, true
		}
	}
	return "", false
}

// Outbox returns every message sent so far
func (s *Server) Outbox() []Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mail(nil), s.outbox...)
}

// RevokeSessions invalidates every refresh token of the user, as a server-side logout would
func (s *Server) RevokeSessions(email string) {
	if a, err := s.accounts.GetByEmail(email); err == nil {
		s.tokens.RevokeUser(a.User.ID)
	}
}

// FailNext makes the next request to path, relative to the prefix, fail with status and msg
func (s *Server) FailNext(path string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults == nil {
		s.faults = make(map[string]fault)
	}
	s.faults[path] = fault{status: status, msg: msg}
}

func (s *Server) send(to, kind, token string) {
	s.mu.Lock()
	s.outbox = append(s.outbox, Mail{To: to, Kind: kind, Token: token})
	s.mu.Unlock()
	log.Info().Str("to", to).Str("kind", kind).Str("token", token).Msg("mail sent")
}

func (s *Server) quotaMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeMsg(w, http.StatusTooManyRequests, QuotaMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, s.prefix)
		s.mu.Lock()
		f, ok := s.faults[path]
		delete(s.faults, path)
		s.mu.Unlock()
		if ok {
			writeMsg(w, f.status, f.msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
