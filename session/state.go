package session

import (
	"time"

	"github.com/jrsteele09/go-queue-client/token"
)

// State is the position of a Manager in the session lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// Operation names a Manager call whose loading and error state is tracked.
type Operation string

const (
	OpLogin    Operation = "login"
	OpLogout   Operation = "logout"
	OpRegister Operation = "register"
	OpRefresh  Operation = "refresh"
)

// Snapshot is a read only copy of the session.
type Snapshot struct {
	AccessToken   token.Token
	RefreshToken  token.Token
	Authenticated bool
	State         State
	ExpiresAt     time.Time
}
