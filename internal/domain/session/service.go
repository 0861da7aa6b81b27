package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Recorder receives session lifecycle events for the audit trail.
// Implementations must not block; failures are logged, never propagated.
type Recorder interface {
	Record(ctx context.Context, kind, subject, detail string)
}

// Event kinds passed to the Recorder.
const (
	EventBootstrap    = "session.bootstrap"
	EventLogin        = "session.login"
	EventLogout       = "session.logout"
	EventForcedLogout = "session.forced_logout"
)

// Service holds the single process-wide session and is the only writer of
// its token. All reads go through Snapshot.
type Service struct {
	store    CredentialStore
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time

	mu            sync.Mutex
	state         State
	token         string
	claims        *Claims
	authenticated bool
	username      string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder attaches an audit recorder for session transitions.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service in the loading state. Callers must invoke
// Bootstrap before the gate can make terminal decisions.
func NewService(store CredentialStore, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		state:  StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap reads the persisted credentials and resolves the session.
// Every failure path degrades to resolved/unauthenticated: a malformed or
// expired token is cleared from storage and never surfaced as an error.
// The session leaves the loading state exactly once, here.
func (s *Service) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() { s.state = StateResolved }()

	creds, err := s.store.Load()
	if err != nil {
		s.logger.Warn("failed to read credential store, starting unauthenticated", "error", err)
		s.resolveUnauthenticated()
		s.record(ctx, EventBootstrap, "", "store read failed")
		return
	}
	s.username = creds.Username

	if creds.Empty() {
		s.resolveUnauthenticated()
		s.record(ctx, EventBootstrap, "", "no stored token")
		return
	}

	token := NormalizeToken(creds.Token)
	claims, err := DecodeClaims(token)
	if err != nil {
		s.logger.Warn("stored token is malformed, clearing", "error", err)
		s.clearStore()
		s.resolveUnauthenticated()
		s.record(ctx, EventBootstrap, "", "malformed token cleared")
		return
	}

	if claims.ExpiresAt*1000 <= s.now().UnixMilli() {
		s.logger.Info("stored token is expired, clearing", "subject", claims.Subject)
		s.clearStore()
		s.resolveUnauthenticated()
		s.record(ctx, EventBootstrap, claims.Subject, "expired token cleared")
		return
	}

	s.token = token
	s.claims = &claims
	s.authenticated = true
	s.logger.Info("session restored", "subject", claims.Subject,
		"expires_at", time.Unix(claims.ExpiresAt, 0).UTC())
	s.record(ctx, EventBootstrap, claims.Subject, "session restored")
}

// Login replaces any existing session with a freshly issued token and
// persists it. The token is trusted as-is (the backend just minted it);
// expiry is re-checked on the next Bootstrap. Storage and in-memory state
// are updated under the same lock so a subsequent Bootstrap can never see
// them disagree.
func (s *Service) Login(ctx context.Context, token, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token = NormalizeToken(token)
	if err := s.store.Save(Credentials{Token: token, Username: username}); err != nil {
		return err
	}

	s.token = token
	s.username = username
	s.authenticated = true
	if claims, err := DecodeClaims(token); err == nil {
		s.claims = &claims
	} else {
		s.claims = nil
	}

	s.logger.Info("logged in", "username", username)
	s.record(ctx, EventLogin, username, "")
	return nil
}

// Logout clears the persisted credentials and resets the session to the
// unauthenticated resolved state. It is idempotent.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAuthenticated := s.authenticated
	subject := s.subjectLocked()

	s.clearStore()
	s.resolveUnauthenticated()
	s.username = ""

	if wasAuthenticated {
		s.logger.Info("logged out", "subject", subject)
		s.record(ctx, EventLogout, subject, "")
	}
	return nil
}

// HandleUnauthorized is the callback the API client invokes once per 401
// response. It is the only automatic transition not initiated by the
// operator.
func (s *Service) HandleUnauthorized() {
	s.mu.Lock()
	subject := s.subjectLocked()
	wasAuthenticated := s.authenticated
	s.clearStore()
	s.resolveUnauthenticated()
	s.username = ""
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Warn("backend rejected token, session terminated", "subject", subject)
		s.record(context.Background(), EventForcedLogout, subject, "401 from backend")
	}
}

// Snapshot returns a copy of the current session state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:         s.state,
		Token:         s.token,
		Authenticated: s.authenticated,
		Username:      s.username,
	}
	if s.claims != nil {
		c := *s.claims
		snap.Claims = &c
	}
	return snap
}

// Token returns the current bearer token, or "" when logged out.
// The API client uses this as its token source.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Service) subjectLocked() string {
	if s.claims != nil {
		return s.claims.Subject
	}
	return s.username
}

func (s *Service) resolveUnauthenticated() {
	s.token = ""
	s.claims = nil
	s.authenticated = false
}

func (s *Service) clearStore() {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear credential store", "error", err)
	}
}

func (s *Service) record(ctx context.Context, kind, subject, detail string) {
	if s.recorder != nil {
		s.recorder.Record(ctx, kind, subject, detail)
	}
}
