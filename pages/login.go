package pages

import (
	"context"
	"strings"
	"sync"
)

// Authenticator is the part of the session store the login page drives
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	VerifyOtp(ctx context.Context, email, code string) error
	ResendOtp(ctx context.Context, email string) (string, error)
	CancelPendingOtp()
}

var errNoLogin = invalid("No login in progress, please sign in again")

type LoginStep int

const (
	StepCredentials LoginStep = iota
	StepOtp
	StepDone
)

func (s LoginStep) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepOtp:
		return "otp"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// LoginFlow is the two step password then OTP login page
type LoginFlow struct {
	auth Authenticator

	lock    sync.Mutex
	step    LoginStep
	email   string
	message string
	errMsg  string
}

func NewLoginFlow(auth Authenticator) *LoginFlow {
	return &LoginFlow{auth: auth}
}

// SubmitCredentials validates the form and asks the server to email an OTP
func (f *LoginFlow) SubmitCredentials(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return f.fail(err)
	}
	if err := validatePassword(password); err != nil {
		return f.fail(err)
	}

	msg, err := f.auth.Login(ctx, email, password)
	if err != nil {
		return f.fail(err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.step = StepOtp
	f.email = email
	f.message = msg
	f.errMsg = ""
	return nil
}

// SubmitOtp verifies the code. On a rejected code the page stays on the OTP step for a retry.
func (f *LoginFlow) SubmitOtp(ctx context.Context, code string) error {
	f.lock.Lock()
	step, email := f.step, f.email
	f.lock.Unlock()
	if step != StepOtp {
		return f.fail(errNoLogin)
	}

	code = strings.TrimSpace(code)
	if err := validateOtp(code); err != nil {
		return f.fail(err)
	}
	if err := f.auth.VerifyOtp(ctx, email, code); err != nil {
		return f.fail(err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.step = StepDone
	f.message = ""
	f.errMsg = ""
	return nil
}

// Resend requests a new OTP for the pending login
func (f *LoginFlow) Resend(ctx context.Context) error {
	f.lock.Lock()
	step, email := f.step, f.email
	f.lock.Unlock()
	if step != StepOtp {
		return f.fail(errNoLogin)
	}

	msg, err := f.auth.ResendOtp(ctx, email)
	if err != nil {
		return f.fail(err)
	}
	if msg == "" {
		msg = "OTP resent successfully"
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.message = msg
	f.errMsg = ""
	return nil
}

// Back returns to the credentials step and abandons the pending OTP
func (f *LoginFlow) Back() {
	f.auth.CancelPendingOtp()

	f.lock.Lock()
	defer f.lock.Unlock()
	f.step = StepCredentials
	f.email = ""
	f.message = ""
	f.errMsg = ""
}

func (f *LoginFlow) Step() LoginStep {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.step
}

// Email is the address the OTP was sent to
func (f *LoginFlow) Email() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.email
}

// Message is the last server confirmation
func (f *LoginFlow) Message() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.message
}

// Error is the last error shown on the form
func (f *LoginFlow) Error() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.errMsg
}

func (f *LoginFlow) fail(err error) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.errMsg = ErrorMessage(err)
	return err
}
