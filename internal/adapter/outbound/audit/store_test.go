package audit

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(path, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Record(ctx, "session.login", "admin", "")
	store.Record(ctx, "vehicle.create", "1001", "chassis CH-AAA-1")
	store.Record(ctx, "session.logout", "admin", "")

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	// Newest first.
	if events[0].Kind != "session.logout" || events[2].Kind != "session.login" {
		t.Errorf("order = [%s, %s, %s], want newest first",
			events[0].Kind, events[1].Kind, events[2].Kind)
	}
	if events[1].Subject != "1001" || events[1].Detail != "chassis CH-AAA-1" {
		t.Errorf("event = %+v", events[1])
	}
	if events[0].Timestamp.IsZero() {
		t.Error("timestamp not restored")
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		store.Record(ctx, "session.login", "admin", "")
	}
	events, err := store.Recent(ctx, 4)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 4 {
		t.Errorf("got %d events, want 4", len(events))
	}
}

func TestRecentEmpty(t *testing.T) {
	store := openTestStore(t)
	events, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		store.Record(ctx, "session.login", "admin", "")
	}
	if err := store.Prune(ctx, 5); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	events, err := store.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 5 {
		t.Errorf("got %d events after prune, want 5", len(events))
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	first, err := Open(path, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first.Record(ctx, "session.login", "admin", "")
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	events, err := second.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events after reopen, want 1", len(events))
	}
}
