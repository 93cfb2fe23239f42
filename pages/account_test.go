package pages_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	signups []session.SignupRequest
	resets  []string
}

func (f *fakeAccounts) Signup(_ context.Context, req session.SignupRequest) (string, error) {
	f.signups = append(f.signups, req)
	return "Verification email sent", nil
}

func (f *fakeAccounts) VerifyEmail(_ context.Context, token string) (string, error) {
	if token != "good" {
		return "", &session.FlowError{Kind: errors.ErrInvalidToken, Message: "Invalid or expired token"}
	}
	return "", nil
}

func (f *fakeAccounts) ForgotPassword(context.Context, string) (string, error) {
	return "Reset link sent", nil
}

func (f *fakeAccounts) ResetPassword(_ context.Context, _, password string) (string, error) {
	f.resets = append(f.resets, password)
	return "Password reset", nil
}

func TestSignupFlow(t *testing.T) {
	accounts := &fakeAccounts{}
	flow := pages.NewSignupFlow(accounts)
	ctx := context.Background()

	res, err := flow.Submit(ctx, session.SignupRequest{Email: "alice@example.com", Password: "secret1"})
	require.Error(t, err)
	require.Equal(t, "Please fill in all fields", res.Error)

	res, err = flow.Submit(ctx, session.SignupRequest{Email: "alice", Password: "secret1", Name: "Alice"})
	require.Error(t, err)
	require.Equal(t, "Please enter a valid email address", res.Error)
	require.Empty(t, accounts.signups)

	res, err = flow.Submit(ctx, session.SignupRequest{Email: "alice@example.com", Password: "secret1", Name: " Alice ", Contact: "555"})
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Equal(t, "Verification email sent", res.Message)
	require.Equal(t, "Alice", accounts.signups[0].Name)
}

func TestRecovery(t *testing.T) {
	accounts := &fakeAccounts{}
	r := pages.NewRecovery(accounts)
	ctx := context.Background()

	res, err := r.VerifyEmail(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, "Email verified successfully!", res.Message)

	res, err = r.VerifyEmail(ctx, "used")
	require.True(t, errors.Is(err, errors.ErrInvalidToken))
	require.Equal(t, "Invalid or expired token", res.Error)

	res, err = r.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "Reset link sent", res.Message)

	res, _ = r.ResetPassword(ctx, "tok", "short", "short")
	require.Equal(t, "Password must be at least 6 characters", res.Error)

	res, _ = r.ResetPassword(ctx, "tok", "secret1", "secret2")
	require.Equal(t, "Passwords do not match", res.Error)
	require.Empty(t, accounts.resets)

	res, err = r.ResetPassword(ctx, "tok", "secret1", "secret1")
	require.NoError(t, err)
	require.Equal(t, "Password reset", res.Message)
}

type fakeForms struct {
	proposals []studio.Proposal
	reject    error
}

func (f *fakeForms) SubmitProposal(_ context.Context, p studio.Proposal) (string, error) {
	if f.reject != nil {
		return "", f.reject
	}
	f.proposals = append(f.proposals, p)
	return "Proposal received", nil
}

func (f *fakeForms) Subscribe(context.Context, string) (string, error) {
	if f.reject != nil {
		return "", f.reject
	}
	return "", nil
}

func TestForms(t *testing.T) {
	api := &fakeForms{}
	forms := pages.NewForms(api)
	ctx := context.Background()

	res, err := forms.Propose(ctx, studio.Proposal{Name: "A", Email: "a@example.com"})
	require.Error(t, err)
	require.Equal(t, "Please fill in all fields.", res.Error)
	require.Empty(t, api.proposals)

	res, err = forms.Propose(ctx, studio.Proposal{Name: "A", Email: "a@example.com", Idea: "a mural"})
	require.NoError(t, err)
	require.Equal(t, "Proposal received", res.Message)

	res, _ = forms.Subscribe(ctx, "  ")
	require.Equal(t, "Please enter an email or phone number.", res.Error)

	res, err = forms.Subscribe(ctx, "555-0100")
	require.NoError(t, err)
	require.Equal(t, "Subscribed!", res.Message)

	api.reject = &apiclient.APIError{StatusCode: 400, Message: "Already subscribed"}
	res, _ = forms.Subscribe(ctx, "555-0100")
	require.Equal(t, "Already subscribed", res.Error)
}
