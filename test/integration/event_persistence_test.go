//go:build integration

package integration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/guardrail-oss/guardrail/internal/event"
)

func TestEventsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := event.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	ev := event.New(event.FailureDetected, "proj", event.StatusFailed,
		event.SourceMonitor, map[string]interface{}{"workflow": "notion_sync"})
	if err := store.Append(ev); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := event.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ev.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Type != event.FailureDetected {
		t.Errorf("Type = %s, want failure-detected", got.Type)
	}
	if got.Evidence["workflow"] != "notion_sync" {
		t.Errorf("Evidence[workflow] = %v, want notion_sync", got.Evidence["workflow"])
	}
}

func TestResolveSurvivesReopenAndStaysFinal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := event.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	ev := event.New(event.FailureDetected, "proj", event.StatusFailed,
		event.SourceMonitor, nil)
	if err := store.Append(ev); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	resolvedAt := time.Now().UTC().Truncate(time.Second)
	if err := store.Resolve(ev.ID, resolvedAt); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	store.Close()

	reopened, err := event.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ev.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ResolvedAt == nil {
		t.Fatal("ResolvedAt not persisted")
	}
	if err := reopened.Resolve(ev.ID, time.Now().UTC()); err == nil {
		t.Error("expected second Resolve to fail")
	}
}
