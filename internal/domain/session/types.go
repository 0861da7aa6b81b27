// Package session owns the operator's credential for the fleet backend.
//
// Exactly one session exists per console process. It is created in the
// loading state, resolves exactly once during Bootstrap, and after that
// only Login, Logout, and the unauthorized signal from the API client may
// change it.
package session

// State is the lifecycle state of the session.
type State int

const (
	// StateLoading means Bootstrap has not finished reading the
	// credential store yet. The gate must not make a terminal decision
	// while the session is in this state.
	StateLoading State = iota
	// StateResolved means Bootstrap finished; the session is either
	// authenticated or not, and stays resolved for the process lifetime.
	StateResolved
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Claims are the fields the console trusts out of a decoded token.
// Anything beyond subject and expiry is ignored at decode time.
type Claims struct {
	// Subject is the backend username from the token's "sub" claim.
	Subject string
	// ExpiresAt is the "exp" claim in seconds since epoch.
	ExpiresAt int64
}

// Snapshot is a read-only copy of the session handed to callers.
// Authenticated is derived by the service at mutation time and is never
// true while Token is empty.
type Snapshot struct {
	State         State
	Token         string
	Claims        *Claims
	Authenticated bool
	// Username is the persisted identity hint, used for greeting display
	// only. It may be set even when the session is not authenticated.
	Username string
}

// Credentials is what the durable store persists across restarts.
// Values read back may carry stray wrapping quotes; Normalize strips them.
type Credentials struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Empty reports whether no token is stored.
func (c Credentials) Empty() bool { return c.Token == "" }

// CredentialStore is the durable storage medium for Credentials.
// Implementations: state.FileStore (prod), in-memory fakes (tests).
type CredentialStore interface {
	Load() (Credentials, error)
	Save(creds Credentials) error
	Clear() error
}
