package guards

import (
	"github.com/jrsteele09/go-studio-client/session"
)

// Outcome is what a guard decided for one navigation
type Outcome int

const (
	Allow    Outcome = iota // Render the guarded content
	Wait                    // Session still resolving, render a neutral placeholder
	Redirect                // Send the user to Location
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a guard against the session state
type Decision struct {
	Outcome  Outcome
	Location string
}

// Guard decides whether navigation proceeds. Implementations are pure functions of the state.
type Guard interface {
	Decide(state session.State) Decision
}

// StateSource is anything that can report the current session state, usually *session.Store
type StateSource interface {
	State() session.State
}

// Authenticated admits any signed-in user and sends everyone else to LoginPath
type Authenticated struct {
	LoginPath string
}

func (g Authenticated) Decide(state session.State) Decision {
	switch state.(type) {
	case session.Loading:
		return Decision{Outcome: Wait}
	case session.Authenticated:
		return Decision{Outcome: Allow}
	default:
		return Decision{Outcome: Redirect, Location: g.LoginPath}
	}
}

// Admin admits only admins. Everyone else, anonymous users included, goes to HomePath
// so the admin routes are not advertised through a login prompt.
// The API enforces authorization again; this is navigation only.
type Admin struct {
	HomePath string
}

func (g Admin) Decide(state session.State) Decision {
	switch s := state.(type) {
	case session.Loading:
		return Decision{Outcome: Wait}
	case session.Authenticated:
		if s.User.IsAdmin() {
			return Decision{Outcome: Allow}
		}
	}
	return Decision{Outcome: Redirect, Location: g.HomePath}
}
