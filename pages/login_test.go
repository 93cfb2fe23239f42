package pages_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	logins    int
	verifies  int
	resends   int
	cancelled int
	loginErr  error
	validOtp  string
	email     string
}

func (a *fakeAuth) Login(_ context.Context, email, _ string) (string, error) {
	a.logins++
	if a.loginErr != nil {
		return "", a.loginErr
	}
	a.email = email
	return "OTP sent to your email", nil
}

func (a *fakeAuth) VerifyOtp(_ context.Context, email, code string) error {
	a.verifies++
	if email != a.email || code != a.validOtp {
		return &session.FlowError{Kind: errors.ErrOtpInvalidOrExpired, Message: "Invalid or expired OTP"}
	}
	return nil
}

func (a *fakeAuth) ResendOtp(context.Context, string) (string, error) {
	a.resends++
	return "", nil
}

func (a *fakeAuth) CancelPendingOtp() {
	a.cancelled++
}

func TestLoginFlow_ValidatesBeforeCallingServer(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"bad email", "not-an-email", "secret1", "Please enter a valid email address"},
		{"short password", "alice@example.com", "12345", "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{}
			flow := pages.NewLoginFlow(auth)

			err := flow.SubmitCredentials(context.Background(), tt.email, tt.password)
			require.True(t, errors.Is(err, errors.ErrValidation))
			require.Equal(t, tt.want, flow.Error())
			require.Equal(t, 0, auth.logins)
			require.Equal(t, pages.StepCredentials, flow.Step())
		})
	}
}

func TestLoginFlow_PasswordThenOtp(t *testing.T) {
	auth := &fakeAuth{validOtp: "123456"}
	flow := pages.NewLoginFlow(auth)
	ctx := context.Background()

	require.NoError(t, flow.SubmitCredentials(ctx, " alice@example.com ", "secret1"))
	require.Equal(t, pages.StepOtp, flow.Step())
	require.Equal(t, "alice@example.com", flow.Email())
	require.Equal(t, "OTP sent to your email", flow.Message())

	// malformed codes never reach the server
	for _, code := range []string{"12345", "1234567", "12a456"} {
		require.Error(t, flow.SubmitOtp(ctx, code))
	}
	require.Equal(t, 0, auth.verifies)

	require.Error(t, flow.SubmitOtp(ctx, "654321"))
	require.Equal(t, "Invalid or expired OTP", flow.Error())
	require.Equal(t, pages.StepOtp, flow.Step())

	require.NoError(t, flow.Resend(ctx))
	require.Equal(t, "OTP resent successfully", flow.Message())

	require.NoError(t, flow.SubmitOtp(ctx, "123456"))
	require.Equal(t, pages.StepDone, flow.Step())
	require.Empty(t, flow.Error())
}

func TestLoginFlow_ServerRejectionShowsMessage(t *testing.T) {
	auth := &fakeAuth{loginErr: &session.FlowError{Kind: errors.ErrInvalidCredentials, Message: "Invalid Credentials"}}
	flow := pages.NewLoginFlow(auth)

	require.Error(t, flow.SubmitCredentials(context.Background(), "alice@example.com", "secret1"))
	require.Equal(t, "Invalid Credentials", flow.Error())
	require.Equal(t, pages.StepCredentials, flow.Step())
}

func TestLoginFlow_RateLimitMessage(t *testing.T) {
	auth := &fakeAuth{loginErr: &apiclient.APIError{StatusCode: 429, Message: "Daily API limit exceeded"}}
	flow := pages.NewLoginFlow(auth)

	err := flow.SubmitCredentials(context.Background(), "alice@example.com", "secret1")
	require.True(t, errors.Is(err, errors.ErrRateLimited))
	require.Equal(t, "Daily API limit exceeded. Please try again tomorrow.", flow.Error())
}

func TestLoginFlow_BackCancelsPendingOtp(t *testing.T) {
	auth := &fakeAuth{validOtp: "123456"}
	flow := pages.NewLoginFlow(auth)
	ctx := context.Background()
	require.NoError(t, flow.SubmitCredentials(ctx, "alice@example.com", "secret1"))

	flow.Back()
	require.Equal(t, 1, auth.cancelled)
	require.Equal(t, pages.StepCredentials, flow.Step())
	require.Empty(t, flow.Email())

	require.Error(t, flow.SubmitOtp(ctx, "123456"))
	require.Error(t, flow.Resend(ctx))
	require.Equal(t, 0, auth.verifies)
	require.Equal(t, 0, auth.resends)
}
