package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// memStore is an in-memory CredentialStore for tests.
type memStore struct {
	mu      sync.Mutex
	creds   Credentials
	loadErr error
	saves   int
	clears  int
}

func (m *memStore) Load() (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return Credentials{}, m.loadErr
	}
	return m.creds, nil
}

func (m *memStore) Save(creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.saves++
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	m.clears++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func futureToken(t *testing.T, sub string, now time.Time) string {
	t.Helper()
	return signedToken(t, jwt.MapClaims{"sub": sub, "exp": float64(now.Unix() + 3600)})
}

func TestNewServiceStartsLoading(t *testing.T) {
	svc := NewService(&memStore{}, testLogger())
	if snap := svc.Snapshot(); snap.State != StateLoading {
		t.Errorf("state = %v, want StateLoading", snap.State)
	}
}

func TestBootstrapValidToken(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := futureToken(t, "admin", now)
	store := &memStore{creds: Credentials{Token: token, Username: "admin"}}

	svc := NewService(store, testLogger(), WithClock(func() time.Time { return now }))
	svc.Bootstrap(context.Background())

	snap := svc.Snapshot()
	if snap.State != StateResolved {
		t.Errorf("state = %v, want StateResolved", snap.State)
	}
	if !snap.Authenticated {
		t.Error("expected authenticated session")
	}
	if snap.Token != token {
		t.Errorf("token = %q, want stored token", snap.Token)
	}
	if snap.Claims == nil || snap.Claims.Subject != "admin" {
		t.Errorf("claims = %+v, want subject admin", snap.Claims)
	}
	if snap.Username != "admin" {
		t.Errorf("username = %q, want admin", snap.Username)
	}
}

func TestBootstrapQuotedToken(t *testing.T) {
	// Tokens that were written JSON-quoted must still restore.
	now := time.Unix(1700000000, 0)
	token := futureToken(t, "admin", now)
	store := &memStore{creds: Credentials{Token: `"` + token + `"`, Username: "admin"}}

	svc := NewService(store, testLogger(), WithClock(func() time.Time { return now }))
	svc.Bootstrap(context.Background())

	snap := svc.Snapshot()
	if !snap.Authenticated {
		t.Fatal("expected authenticated session")
	}
	if snap.Token != token {
		t.Errorf("token = %q, want unquoted token", snap.Token)
	}
}

func TestBootstrapEmptyStore(t *testing.T) {
	svc := NewService(&memStore{}, testLogger())
	svc.Bootstrap(context.Background())

	snap := svc.Snapshot()
	if snap.State != StateResolved {
		t.Errorf("state = %v, want StateResolved", snap.State)
	}
	if snap.Authenticated {
		t.Error("expected unauthenticated session")
	}
}

func TestBootstrapStoreReadFailure(t *testing.T) {
	store := &memStore{loadErr: errors.New("disk on fire")}
	svc := NewService(store, testLogger())
	svc.Bootstrap(context.Background())

	snap := svc.Snapshot()
	if snap.State != StateResolved || snap.Authenticated {
		t.Errorf("snapshot = %+v, want resolved unauthenticated", snap)
	}
}

func TestBootstrapMalformedTokenClearsStore(t *testing.T) {
	store := &memStore{creds: Credentials{Token: "garbage", Username: "admin"}}
	svc := NewService(store, testLogger())
	svc.Bootstrap(context.Background())

	snap := svc.Snapshot()
	if snap.Authenticated {
		t.Error("expected unauthenticated session")
	}
	if store.clears != 1 {
		t.Errorf("store clears = %d, want 1", store.clears)
	}
}

func TestBootstrapExpiredTokenClearsStore(t *testing.T) {
	now := time.Unix(1700000000, 0)
	expired := signedToken(t, jwt.MapClaims{"sub": "admin", "exp": float64(now.Unix() - 10)})
	store := &memStore{creds: Credentials{Token: expired, Username: "admin"}}

	svc := NewService(store, testLogger(), WithClock(func() time.Time { return now }))
	svc.Bootstrap(context.Background())

	snap := svc.Snapshot()
	if snap.Authenticated {
		t.Error("expected unauthenticated session")
	}
	if store.clears != 1 {
		t.Errorf("store clears = %d, want 1", store.clears)
	}
}

func TestLoginPersistsThenAuthenticates(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := futureToken(t, "admin", now)
	store := &memStore{}

	svc := NewService(store, testLogger(), WithClock(func() time.Time { return now }))
	svc.Bootstrap(context.Background())

	if err := svc.Login(context.Background(), token, "admin"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if store.saves != 1 {
		t.Errorf("store saves = %d, want 1", store.saves)
	}
	if store.creds.Token != token || store.creds.Username != "admin" {
		t.Errorf("stored creds = %+v", store.creds)
	}
	snap := svc.Snapshot()
	if !snap.Authenticated || snap.Username != "admin" {
		t.Errorf("snapshot = %+v, want authenticated admin", snap)
	}
	if svc.Token() != token {
		t.Errorf("Token() = %q, want login token", svc.Token())
	}
}

func TestLoginNormalizesQuotedToken(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := futureToken(t, "admin", now)
	store := &memStore{}

	svc := NewService(store, testLogger(), WithClock(func() time.Time { return now }))
	svc.Bootstrap(context.Background())

	if err := svc.Login(context.Background(), `"`+token+`"`, "admin"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if store.creds.Token != token {
		t.Errorf("stored token = %q, want unquoted", store.creds.Token)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := futureToken(t, "admin", now)
	store := &memStore{creds: Credentials{Token: token, Username: "admin"}}

	svc := NewService(store, testLogger(), WithClock(func() time.Time { return now }))
	svc.Bootstrap(context.Background())

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	snap := svc.Snapshot()
	if snap.Authenticated || snap.Token != "" || snap.Username != "" {
		t.Errorf("snapshot after logout = %+v", snap)
	}

	// Logging out again is a no-op, not an error.
	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestHandleUnauthorizedForcesLogout(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := futureToken(t, "admin", now)
	store := &memStore{creds: Credentials{Token: token, Username: "admin"}}
	rec := &recordingRecorder{}

	svc := NewService(store, testLogger(),
		WithClock(func() time.Time { return now }),
		WithRecorder(rec),
	)
	svc.Bootstrap(context.Background())
	if !svc.Snapshot().Authenticated {
		t.Fatal("precondition: expected authenticated session")
	}

	svc.HandleUnauthorized()

	snap := svc.Snapshot()
	if snap.Authenticated || snap.Token != "" {
		t.Errorf("snapshot after forced logout = %+v", snap)
	}
	if store.clears != 1 {
		t.Errorf("store clears = %d, want 1", store.clears)
	}
	if !rec.has(EventForcedLogout) {
		t.Error("expected forced logout audit event")
	}

	// A second 401 while already logged out records nothing new.
	before := rec.count(EventForcedLogout)
	svc.HandleUnauthorized()
	if rec.count(EventForcedLogout) != before {
		t.Error("forced logout recorded for an already-terminated session")
	}
}

// recordingRecorder captures audit events for assertions.
type recordingRecorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingRecorder) Record(_ context.Context, kind, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recordingRecorder) has(kind string) bool { return r.count(kind) > 0 }

func (r *recordingRecorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}
	return n
}
