// Package testutil provides shared fakes and a harness for guardrail tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guardrail-oss/guardrail/internal/event"
)

// MockTier implements fallback.Executor with scripted behavior.
type MockTier struct {
	mu         sync.Mutex
	TierName   string
	TierBudget time.Duration
	Delay      time.Duration
	Result     string
	ShouldFail bool
	FailErr    error
	Calls      []string // task names, in call order
}

func (m *MockTier) Name() string { return m.TierName }

func (m *MockTier) Timeout() time.Duration {
	if m.TierBudget == 0 {
		return time.Second
	}
	return m.TierBudget
}

func (m *MockTier) Execute(ctx context.Context, taskName string, params map[string]interface{}) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, taskName)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.ShouldFail {
		if m.FailErr != nil {
			return "", m.FailErr
		}
		return "", fmt.Errorf("mock tier error")
	}
	if m.Result != "" {
		return m.Result, nil
	}
	return "mock tier result", nil
}

// CallCount returns how many times the tier was invoked.
func (m *MockTier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// FailingStore implements event.Store and fails every write. Reads
// delegate to an inner memory store so queries still work.
type FailingStore struct {
	Inner     *event.MemoryStore
	AppendErr error
}

func NewFailingStore() *FailingStore {
	return &FailingStore{
		Inner:     event.NewMemoryStore(),
		AppendErr: fmt.Errorf("store unavailable"),
	}
}

func (s *FailingStore) Append(ev *event.AutomationEvent) error { return s.AppendErr }
func (s *FailingStore) Get(id string) (*event.AutomationEvent, error) {
	return s.Inner.Get(id)
}
func (s *FailingStore) Query(f event.Filter) ([]*event.AutomationEvent, error) {
	return s.Inner.Query(f)
}
func (s *FailingStore) Resolve(id string, at time.Time) error {
	return s.Inner.Resolve(id, at)
}
func (s *FailingStore) Close() error { return nil }
