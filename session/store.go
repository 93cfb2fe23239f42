package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Remote auth endpoints, relative to the API base URL
const (
	PathLogin          = "/auth/login"
	PathVerifyOtp      = "/auth/verify-otp"
	PathResendOtp      = "/auth/resend-otp"
	PathSignup         = "/auth/signup"
	PathVerifyEmail    = "/auth/verify/"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password/"
	PathUser           = "/auth/user"
	PathRefreshToken   = "/auth/refresh-token"
)

var _ oauth2.TokenSource = (*Store)(nil)

// Store is the single source of truth for authentication state.
// It owns the only code paths that mutate tokens, in memory and in durable storage.
//
// Network results are applied only if no logout (or new login) happened while the call was in flight:
// every such transition bumps generation, and results carry the generation they started under.
type Store struct {
	api  *apiclient.Client
	repo TokenRepo

	lock         sync.RWMutex
	state        State
	accessToken  string
	refreshToken string
	generation   uint64

	version      uint64

	observersLock sync.RWMutex
	observers     map[int]func(State)
	nextObserver  int

	// publication queue; observers see transitions in version order
	notifyLock sync.Mutex
	pending    []transition
	delivering bool
	delivered  uint64
}

// transition is a state change waiting to reach the observers
type transition struct {
	state   State
	version uint64
}

// NewStore starts in Loading until Start resolves the stored session
func NewStore(api *apiclient.Client, repo TokenRepo) *Store {
	return &Store{
		api:       api,
		repo:      repo,
		state:     Loading{},
		observers: make(map[int]func(State)),
	}
}

// SignupRequest is the registration form
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type verifyOtpResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	User         users.User `json:"user"`
}

// State returns the current state
func (s *Store) State() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// IsAuthenticated is true only in the Authenticated state
func (s *Store) IsAuthenticated() bool {
	_, ok := s.State().(Authenticated)
	return ok
}

// IsLoading is true only while the stored session is being restored
func (s *Store) IsLoading() bool {
	_, ok := s.State().(Loading)
	return ok
}

// User returns the authenticated user
func (s *Store) User() (users.User, bool) {
	if a, ok := s.State().(Authenticated); ok {
		return a.User, true
	}
	return users.User{}, false
}

// AccessToken returns the in-memory access token, which may not have been validated yet
func (s *Store) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.accessToken
}

// RefreshToken returns the in-memory refresh token
func (s *Store) RefreshToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.refreshToken
}

// Token implements oauth2.TokenSource for resource clients
func (s *Store) Token() (*oauth2.Token, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.accessToken == "" {
		return nil, errors.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		TokenType:    apiclient.AuthHeader,
	}, nil
}

// Subscribe calls fn with the new state after every transition
func (s *Store) Subscribe(fn func(State)) func() {
	s.observersLock.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.observersLock.Unlock()

	return func() {
		s.observersLock.Lock()
		defer s.observersLock.Unlock()
		delete(s.observers, id)
	}
}

// Start restores the session from durable storage. With no stored access token it resolves
// straight to Unauthenticated without calling the API.
func (s *Store) Start(ctx context.Context) error {
	s.lock.Lock()
	access, err := s.repo.Get(AccessTokenKey)
	if err != nil {
		log.Err(err).Msg("failed to read stored access token")
	}
	refresh, err := s.repo.Get(RefreshTokenKey)
	if err != nil {
		log.Err(err).Msg("failed to read stored refresh token")
	}
	s.accessToken = access
	s.refreshToken = refresh

	if access == "" {
		v := s.setLocked(Unauthenticated{})
		s.lock.Unlock()
		s.publish(Unauthenticated{}, v)
		return nil
	}
	v := s.setLocked(Loading{})
	s.lock.Unlock()
	s.publish(Loading{}, v)

	return s.LoadUser(ctx)
}

// Login submits the password step. On success the server has emailed an OTP; no tokens are issued.
func (s *Store) Login(ctx context.Context, email, password string) (string, error) {
	s.lock.RLock()
	gen := s.generation
	s.lock.RUnlock()

	resp, err := s.api.PostJSON(ctx, PathLogin, credentials{Email: email, Password: password}, "")
	if err != nil {
		return "", flowError(errors.ErrInvalidCredentials, "Login failed", err)
	}
	msg, err := apiclient.DecodeMessage(resp)
	if err != nil {
		return "", flowError(errors.ErrInvalidCredentials, "Login failed", err)
	}

	s.lock.Lock()
	_, authenticated := s.state.(Authenticated)
	if gen != s.generation || authenticated {
		s.lock.Unlock()
		return msg, nil
	}
	next := PendingOtp{Email: email}
	v := s.setLocked(next)
	s.lock.Unlock()
	s.publish(next, v)

	return msg, nil
}

// VerifyOtp exchanges the emailed code for both tokens and the user.
// A rejected code leaves the state untouched so the caller can retry.
func (s *Store) VerifyOtp(ctx context.Context, email, code string) error {
	s.lock.RLock()
	gen := s.generation
	s.lock.RUnlock()

	resp, err := s.api.PostJSON(ctx, PathVerifyOtp, otpRequest{Email: email, Otp: code}, "")
	if err != nil {
		return flowError(errors.ErrOtpInvalidOrExpired, "Invalid or expired OTP", err)
	}
	var out verifyOtpResponse
	if err := apiclient.DecodeResponse(resp, &out); err != nil {
		return flowError(errors.ErrOtpInvalidOrExpired, "Invalid or expired OTP", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" || !out.User.Valid() {
		return &FlowError{Kind: errors.ErrInternal, Message: "Incomplete response from server"}
	}

	s.lock.Lock()
	if gen != s.generation {
		s.lock.Unlock()
		return errors.Wrapf(errors.ErrSessionExpired, "[Store VerifyOtp] session changed while verifying")
	}
	if err := s.persist(out.AccessToken, out.RefreshToken); err != nil {
		s.lock.Unlock()
		return errors.Wrapf(err, "[Store VerifyOtp]")
	}
	s.generation++
	s.accessToken = out.AccessToken
	s.refreshToken = out.RefreshToken
	next := Authenticated{User: out.User, AccessToken: out.AccessToken}
	v := s.setLocked(next)
	s.lock.Unlock()

	log.Info().Str("user_id", out.User.ID).Str("role", string(out.User.Role)).Msg("logged in")
	s.publish(next, v)
	return nil
}

// ResendOtp asks the server for a fresh code. The store state is not changed.
func (s *Store) ResendOtp(ctx context.Context, email string) (string, error) {
	return s.message(ctx, PathResendOtp, emailRequest{Email: email}, errors.ErrOtpInvalidOrExpired, "Failed to resend OTP")
}

// Signup registers an account. Activation is gated on email verification, so no tokens are issued.
func (s *Store) Signup(ctx context.Context, req SignupRequest) (string, error) {
	return s.message(ctx, PathSignup, req, errors.ErrInvalidCredentials, "Signup failed")
}

// VerifyEmail consumes a one-shot verification token. Reusing it fails.
func (s *Store) VerifyEmail(ctx context.Context, token string) (string, error) {
	resp, err := s.api.Get(ctx, PathVerifyEmail+token, "")
	if err != nil {
		return "", flowError(errors.ErrInvalidToken, "Verification failed", err)
	}
	msg, err := apiclient.DecodeMessage(resp)
	if err != nil {
		return "", flowError(errors.ErrInvalidToken, "Verification failed", err)
	}
	return msg, nil
}

// ForgotPassword requests a reset link. Session state is not touched.
func (s *Store) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.message(ctx, PathForgotPassword, emailRequest{Email: email}, errors.ErrRequestFailed, "Failed to send reset link")
}

// ResetPassword sets a new password using the emailed token. Session state is not touched.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return s.message(ctx, PathResetPassword+token, passwordRequest{Password: newPassword}, errors.ErrInvalidToken, "Failed to reset password")
}

// LoadUser resolves the user for the in-memory access token.
// 401 triggers a single silent refresh; any other failure, including transport errors, logs out.
func (s *Store) LoadUser(ctx context.Context) error {
	return s.loadUser(ctx, s.currentGeneration(), true)
}

// RefreshAccessToken exchanges the refresh token for a new access token, then fetches the user exactly once.
// If the refresh is rejected the session is logged out.
func (s *Store) RefreshAccessToken(ctx context.Context) error {
	return s.refresh(ctx, s.currentGeneration())
}

// refresh runs the token exchange for the session identified by gen.
// It is a no-op returning ErrSessionExpired once that session has ended.
func (s *Store) refresh(ctx context.Context, gen uint64) error {
	s.lock.RLock()
	current := s.generation
	refresh := s.refreshToken
	s.lock.RUnlock()

	if gen != current {
		return errors.Wrapf(errors.ErrSessionExpired, "[Store RefreshAccessToken] session changed before refreshing")
	}
	if refresh == "" {
		s.logoutIf(gen, "no refresh token")
		return errors.ErrNoRefreshToken
	}

	resp, err := s.api.PostJSON(ctx, PathRefreshToken, refreshRequest{RefreshToken: refresh}, "")
	if err != nil {
		s.logoutIf(gen, "refresh request failed")
		return errors.Wrapf(err, "[Store RefreshAccessToken]")
	}
	var out refreshResponse
	if err := apiclient.DecodeResponse(resp, &out); err != nil {
		s.logoutIf(gen, "refresh rejected")
		return flowError(errors.ErrSessionExpired, "Session expired", err)
	}
	if out.AccessToken == "" {
		s.logoutIf(gen, "refresh returned no token")
		return errors.Wrapf(errors.ErrSessionExpired, "[Store RefreshAccessToken] empty access token")
	}

	s.lock.Lock()
	if gen != s.generation {
		s.lock.Unlock()
		return errors.Wrapf(errors.ErrSessionExpired, "[Store RefreshAccessToken] session changed while refreshing")
	}
	if err := s.repo.Set(AccessTokenKey, out.AccessToken); err != nil {
		s.clearLocked()
		v := s.version
		s.lock.Unlock()
		s.publish(Unauthenticated{}, v)
		return errors.Wrapf(err, "[Store RefreshAccessToken] failed to persist access token")
	}
	// Last response to arrive wins; request order is irrelevant.
	s.accessToken = out.AccessToken
	if a, ok := s.state.(Authenticated); ok {
		a.AccessToken = out.AccessToken
		s.state = a
	}
	s.lock.Unlock()

	log.Debug().Msg("access token refreshed")
	return s.loadUser(ctx, gen, false)
}

// CancelPendingOtp abandons the OTP step (e.g. the user navigated away)
func (s *Store) CancelPendingOtp() {
	s.lock.Lock()
	if _, ok := s.state.(PendingOtp); !ok {
		s.lock.Unlock()
		return
	}
	v := s.setLocked(Unauthenticated{})
	s.lock.Unlock()
	s.publish(Unauthenticated{}, v)
}

// Logout clears tokens and user from memory and storage. It never fails and is idempotent.
// Results of calls started before it are discarded.
func (s *Store) Logout() {
	s.lock.Lock()
	changed := s.clearLocked()
	v := s.version
	s.lock.Unlock()

	if changed {
		log.Info().Msg("logged out")
		s.publish(Unauthenticated{}, v)
	}
}

// loadUser fetches the user for the session identified by gen
func (s *Store) loadUser(ctx context.Context, gen uint64, allowRefresh bool) error {
	s.lock.RLock()
	current := s.generation
	token := s.accessToken
	s.lock.RUnlock()

	if gen != current {
		return errors.Wrapf(errors.ErrSessionExpired, "[Store LoadUser] session changed before loading")
	}
	if token == "" {
		s.logoutIf(gen, "no access token")
		return errors.ErrNotAuthenticated
	}

	resp, err := s.api.Get(ctx, PathUser, token)
	if err != nil {
		log.Err(err).Msg("load user failed")
		s.logoutIf(gen, "load user failed")
		return errors.Wrapf(err, "[Store LoadUser]")
	}

	if resp.StatusCode == http.StatusUnauthorized && allowRefresh {
		_ = apiclient.DecodeResponse(resp, nil)
		// A 401 for a session that has since ended must not refresh the one that replaced it
		return s.refresh(ctx, gen)
	}

	var u users.User
	if err := apiclient.DecodeResponse(resp, &u); err != nil {
		s.logoutIf(gen, "load user rejected")
		return errors.Wrapf(err, "[Store LoadUser]")
	}
	if !u.Valid() {
		s.logoutIf(gen, "load user returned no user")
		return errors.Wrapf(errors.ErrSessionExpired, "[Store LoadUser] invalid user")
	}

	s.lock.Lock()
	if gen != s.generation || s.accessToken == "" {
		s.lock.Unlock()
		log.Debug().Msg("discarding stale user load")
		return errors.Wrapf(errors.ErrSessionExpired, "[Store LoadUser] session changed while loading")
	}
	next := Authenticated{User: u, AccessToken: s.accessToken}
	v := s.setLocked(next)
	s.lock.Unlock()

	s.publish(next, v)
	return nil
}

func (s *Store) message(ctx context.Context, path string, body any, kind error, fallback string) (string, error) {
	resp, err := s.api.PostJSON(ctx, path, body, "")
	if err != nil {
		return "", flowError(kind, fallback, err)
	}
	msg, err := apiclient.DecodeMessage(resp)
	if err != nil {
		return "", flowError(kind, fallback, err)
	}
	return msg, nil
}

// logoutIf logs out only if the session is still the one the failing call started under
func (s *Store) logoutIf(gen uint64, reason string) {
	s.lock.Lock()
	if gen != s.generation {
		s.lock.Unlock()
		return
	}
	changed := s.clearLocked()
	v := s.version
	s.lock.Unlock()

	if changed {
		log.Info().Str("reason", reason).Msg("session ended")
		s.publish(Unauthenticated{}, v)
	}
}

// persist writes both tokens or neither. Must hold s.lock.
func (s *Store) persist(access, refresh string) error {
	if err := s.repo.Set(AccessTokenKey, access); err != nil {
		return err
	}
	if err := s.repo.Set(RefreshTokenKey, refresh); err != nil {
		if rmErr := s.repo.Remove(AccessTokenKey); rmErr != nil {
			log.Err(rmErr).Msg("failed to roll back access token")
		}
		return err
	}
	return nil
}

// clearLocked drops every credential and bumps the generation. Must hold s.lock.
func (s *Store) clearLocked() bool {
	_, wasUnauthenticated := s.state.(Unauthenticated)
	changed := !wasUnauthenticated || s.accessToken != "" || s.refreshToken != ""

	s.generation++
	s.accessToken = ""
	s.refreshToken = ""
	s.setLocked(Unauthenticated{})
	if err := s.repo.Remove(AccessTokenKey, RefreshTokenKey); err != nil {
		log.Err(err).Msg("failed to clear stored tokens")
	}
	return changed
}

func (s *Store) currentGeneration() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.generation
}

// setLocked moves to state and returns the transition's version. Must hold s.lock.
func (s *Store) setLocked(state State) uint64 {
	s.state = state
	s.version++
	return s.version
}

// publish delivers a transition to the observers. Deliveries are serialised, and a transition
// older than one already delivered is dropped, so observers always end on the latest state.
// An observer that triggers another transition has it queued behind the current delivery.
func (s *Store) publish(state State, version uint64) {
	s.notifyLock.Lock()
	s.pending = append(s.pending, transition{state: state, version: version})
	if s.delivering {
		s.notifyLock.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		if next.version <= s.delivered {
			continue
		}
		s.delivered = next.version
		s.notifyLock.Unlock()

		s.observersLock.RLock()
		observers := make([]func(State), 0, len(s.observers))
		for _, fn := range s.observers {
			observers = append(observers, fn)
		}
		s.observersLock.RUnlock()
		for _, fn := range observers {
			fn(next.state)
		}

		s.notifyLock.Lock()
	}
	s.delivering = false
	s.notifyLock.Unlock()
}

// flowError passes quota and transport errors through and turns API rejections into a FlowError
func flowError(kind error, fallback string, err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode == http.StatusTooManyRequests {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		msg = fallback
	}
	return &FlowError{Kind: kind, Message: msg, Err: apiErr}
}
