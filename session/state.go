package session

import "github.com/jrsteele09/go-studio-client/users"

// State is the session lifecycle as a closed sum type.
// Exactly one of Unauthenticated, Loading, PendingOtp or Authenticated holds at a time.
type State interface {
	Name() string
	isState()
}

// Unauthenticated means no session. Tokens may not be in memory or storage.
type Unauthenticated struct{}

// Loading is only held while the stored session is being restored on start.
type Loading struct{}

// PendingOtp is entered after the password step; the server has emailed a one-time code.
type PendingOtp struct {
	Email string
}

// Authenticated always carries the user resolved against AccessToken.
type Authenticated struct {
	User        users.User
	AccessToken string
}

func (Unauthenticated) Name() string { return "UNAUTHENTICATED" }
func (Loading) Name() string         { return "LOADING" }
func (PendingOtp) Name() string      { return "PENDING_OTP" }
func (Authenticated) Name() string   { return "AUTHENTICATED" }

func (Unauthenticated) isState() {}
func (Loading) isState()         {}
func (PendingOtp) isState()      {}
func (Authenticated) isState()   {}
