package pages

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/session"
)

// Registrar creates accounts
type Registrar interface {
	Signup(ctx context.Context, req session.SignupRequest) (string, error)
}

// AccountRecovery covers the out-of-band credential flows. None of them touch the session.
type AccountRecovery interface {
	VerifyEmail(ctx context.Context, token string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
}

// Result is what a single-submit form shows after it is sent
type Result struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the submission succeeded
func (r Result) OK() bool {
	return r.Error == ""
}

func resultOf(msg, fallback string, err error) Result {
	if err != nil {
		return Result{Error: ErrorMessage(err)}
	}
	if msg == "" {
		msg = fallback
	}
	return Result{Message: msg}
}

// SignupFlow is the registration page
type SignupFlow struct {
	registrar Registrar
}

func NewSignupFlow(r Registrar) *SignupFlow {
	return &SignupFlow{registrar: r}
}

// Submit validates and registers. No session is created; the user must verify their email first.
func (f *SignupFlow) Submit(ctx context.Context, req session.SignupRequest) (Result, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)

	if err := required("Please fill in all fields", req.Name, req.Email, req.Password); err != nil {
		return resultOf("", "", err), err
	}
	if err := validateEmail(req.Email); err != nil {
		return resultOf("", "", err), err
	}
	if err := validatePassword(req.Password); err != nil {
		return resultOf("", "", err), err
	}

	msg, err := f.registrar.Signup(ctx, req)
	return resultOf(msg, "Signup successful! Please check your email to verify your account.", err), err
}

// Recovery backs the verify-email, forgot-password and reset-password pages
type Recovery struct {
	accounts AccountRecovery
}

func NewRecovery(a AccountRecovery) *Recovery {
	return &Recovery{accounts: a}
}

// VerifyEmail consumes the emailed link token
func (r *Recovery) VerifyEmail(ctx context.Context, token string) (Result, error) {
	if err := required("Verification failed. The link may be invalid or expired.", token); err != nil {
		return resultOf("", "", err), err
	}
	msg, err := r.accounts.VerifyEmail(ctx, token)
	var flowErr *session.FlowError
	if err != nil && !errors.As(err, &flowErr) {
		return Result{Error: "Verification failed. The link may be invalid or expired."}, err
	}
	return resultOf(msg, "Email verified successfully!", err), err
}

// ForgotPassword requests a reset link
func (r *Recovery) ForgotPassword(ctx context.Context, email string) (Result, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return resultOf("", "", err), err
	}
	msg, err := r.accounts.ForgotPassword(ctx, email)
	return resultOf(msg, "Password reset link sent to your email", err), err
}

// ResetPassword sets a new password. The confirmation must match.
func (r *Recovery) ResetPassword(ctx context.Context, token, password, confirm string) (Result, error) {
	if err := validatePassword(password); err != nil {
		return resultOf("", "", err), err
	}
	if password != confirm {
		err := invalid("Passwords do not match")
		return resultOf("", "", err), err
	}
	msg, err := r.accounts.ResetPassword(ctx, token, password)
	return resultOf(msg, "Password reset successful", err), err
}
