package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/users"
	"golang.org/x/crypto/bcrypt"
)

// account is the server-side record behind a users.User
type account struct {
	User         users.User
	PasswordHash string
	Verified     bool
	VerifyToken  string
	ResetToken   string
}

// otpTicket is an emailed login code waiting to be verified
type otpTicket struct {
	Code     string
	Expires  time.Time
	Failures int
}

// accountRepo is an in-memory user store with OTP tickets, keyed by lower-case email
type accountRepo struct {
	mu       sync.RWMutex
	accounts map[string]*account
	otps     map[string]*otpTicket
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*account),
		otps:     make(map[string]*otpTicket),
	}
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func randomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create registers an unverified account and returns its email verification token
func (r *accountRepo) Create(u users.User, password string, verified bool) (*account, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(u.Email)
	if _, exists := r.accounts[k]; exists {
		return nil, errors.Wrapf(errors.ErrValidation, "User already exists")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = users.RoleMember
	}
	a := &account{User: u, PasswordHash: hash, Verified: verified}
	if !verified {
		a.VerifyToken = randomToken()
	}
	r.accounts[k] = a
	copied := *a
	return &copied, nil
}

func (r *accountRepo) GetByEmail(email string) (*account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[key(email)]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *accountRepo) GetByID(id string) (*account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.User.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, errors.ErrNotFound
}

// Update applies fn to the stored account under the write lock
func (r *accountRepo) Update(email string, fn func(a *account) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[key(email)]
	if !ok {
		return errors.ErrNotFound
	}
	return fn(a)
}

// UpdateWhere applies fn to the first account matching pred under the write lock
func (r *accountRepo) UpdateWhere(pred func(a *account) bool, fn func(a *account) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if pred(a) {
			return fn(a)
		}
	}
	return errors.ErrNotFound
}

// IssueOtp replaces any outstanding code for email
func (r *accountRepo) IssueOtp(email string, ttl time.Duration, now time.Time) (string, error) {
	n := make([]byte, 3)
	if _, err := rand.Read(n); err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", (int(n[0])<<16|int(n[1])<<8|int(n[2]))%1000000)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps[key(email)] = &otpTicket{Code: code, Expires: now.Add(ttl)}
	return code, nil
}

// CheckOtp consumes the code on success. After maxFailures wrong guesses the ticket is discarded.
func (r *accountRepo) CheckOtp(email, code string, maxFailures int, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(email)
	t, ok := r.otps[k]
	if !ok {
		return false
	}
	if now.After(t.Expires) {
		delete(r.otps, k)
		return false
	}
	if t.Code != code {
		t.Failures++
		if t.Failures >= maxFailures {
			delete(r.otps, k)
		}
		return false
	}
	delete(r.otps, k)
	return true
}

// HasOtp reports whether a login is pending for email
func (r *accountRepo) HasOtp(email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.otps[key(email)]
	return ok
}
