package event

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AppendAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)

	ev := New(CompletionDetected, "repo-a", StatusSuccess, SourceRouter,
		map[string]interface{}{
			"keyword":    "git commit",
			"confidence": float64(95),
		})
	ev.CorrelateWith("ev-upstream")

	if err := store.Append(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ev.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != CompletionDetected {
		t.Errorf("expected completion-detected, got %s", got.Type)
	}
	if got.Evidence["keyword"] != "git commit" {
		t.Errorf("evidence not preserved: %v", got.Evidence)
	}
	if got.Evidence["confidence"] != float64(95) {
		t.Errorf("evidence confidence not preserved: %v", got.Evidence["confidence"])
	}
	ids := got.CorrelatedWith()
	if len(ids) != 1 || ids[0] != "ev-upstream" {
		t.Errorf("correlation metadata not preserved: %v", ids)
	}
	if got.ResolvedAt != nil {
		t.Error("expected resolved_at to be null")
	}
}

func TestSQLiteStore_AppendRejectsInvalid(t *testing.T) {
	store := newTestSQLiteStore(t)

	ev := New(CompletionDetected, "repo", Status("bogus"), SourceRouter, nil)
	if err := store.Append(ev); err == nil {
		t.Fatal("expected validation error on append")
	}
}

func TestSQLiteStore_AppendIsInsertOnly(t *testing.T) {
	store := newTestSQLiteStore(t)

	ev := New(FailureDetected, "repo", StatusFailed, SourceHook, nil)
	if err := store.Append(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Append(ev); err == nil {
		t.Fatal("expected primary-key conflict on duplicate append")
	}
}

func TestSQLiteStore_Query(t *testing.T) {
	store := newTestSQLiteStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		ev := New(CompletionDetected, "repo-a", StatusSuccess, SourceRouter, nil)
		ev.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.Append(ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	other := New(FailureDetected, "repo-b", StatusFailed, SourceHook, nil)
	other.CreatedAt = base
	if err := store.Append(other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := store.Query(Filter{ProjectID: "repo-a", Type: CompletionDetected})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if !events[0].CreatedAt.After(events[3].CreatedAt) {
		t.Error("expected events ordered newest first")
	}

	since, err := store.Query(Filter{Since: base.Add(2 * time.Minute)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("expected 2 events since cutoff, got %d", len(since))
	}

	limited, err := store.Query(Filter{ProjectID: "repo-a", Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected 3 events with limit, got %d", len(limited))
	}
}

func TestSQLiteStore_Resolve(t *testing.T) {
	store := newTestSQLiteStore(t)

	ev := New(FailureDetected, "repo", StatusFailed, SourceHook, nil)
	if err := store.Append(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Resolve(ev.ID, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ev.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ResolvedAt == nil {
		t.Fatal("expected resolved_at to be set")
	}

	if err := store.Resolve(ev.ID, time.Now()); err == nil {
		t.Fatal("expected error resolving twice")
	}
	if err := store.Resolve("missing", time.Now()); err == nil {
		t.Fatal("expected error resolving missing event")
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ev := New(RecoveryAttempted, "repo", StatusSuccess, SourceHook,
		map[string]interface{}{"recovered_via": "api_fallback"})
	if err := store.Append(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ev.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Evidence["recovered_via"] != "api_fallback" {
		t.Errorf("evidence not persisted: %v", got.Evidence)
	}
}
