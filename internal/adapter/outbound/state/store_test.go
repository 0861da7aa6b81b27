package state

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fleetdesk/fleetdesk/internal/domain/session"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFileStore(path, logger)
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !creds.Empty() {
		t.Errorf("creds = %+v, want empty", creds)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	want := session.Credentials{Token: "abc.def.ghi", Username: "admin"}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if !store.Exists() {
		t.Error("Exists() = false after Save")
	}
}

func TestSavePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	store := newTestStore(t)

	if err := store.Save(session.Credentials{Token: "tok", Username: "u"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("mode = %04o, want 0600", mode)
	}
}

func TestLoadQuotedTokenPreserved(t *testing.T) {
	// A historically quote-wrapped token must come back as stored; the
	// session layer is responsible for normalizing it.
	store := newTestStore(t)
	raw := `{"token": "\"abc.def.ghi\"", "username": "admin"}`
	if err := os.WriteFile(store.Path(), []byte(raw), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.Token != `"abc.def.ghi"` {
		t.Errorf("token = %q, want quote-wrapped value preserved", creds.Token)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("expected parse error for corrupt file")
	}
}

func TestClearIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(session.Credentials{Token: "tok", Username: "u"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Exists() {
		t.Error("session file still exists after Clear")
	}

	// Clearing again must not fail.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(session.Credentials{Token: "old", Username: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(session.Credentials{Token: "new", Username: "b"}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.Token != "new" || creds.Username != "b" {
		t.Errorf("creds = %+v, want latest save", creds)
	}
}
