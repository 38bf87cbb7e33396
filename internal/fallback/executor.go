// Package fallback recovers from classified workflow failures through an
// ordered chain of executors with escalating timeouts.
package fallback

import (
	"context"
	"time"
)

// Default per-tier timeouts. Worst-case recovery wall time is their sum.
const (
	DefaultDirectTimeout  = 1 * time.Second
	DefaultAPITimeout     = 5 * time.Second
	DefaultServiceTimeout = 30 * time.Second
)

// ExecutionResult records one tier attempt. Every attempt is retained in
// the audit evidence, not just the last.
type ExecutionResult struct {
	Success          bool    `json:"success"`
	AttemptMethod    string  `json:"attempt_method"`
	AttemptNumber    int     `json:"attempt_number"`
	ExecutionSeconds float64 `json:"execution_time_seconds"`
	ResultSummary    string  `json:"result_summary,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
}

// Executor is one recovery tier: a pluggable capability with its own
// timeout. Tiers are ordered by increasing timeout and reliability.
type Executor interface {
	// Name identifies the tier in attempt records (e.g. "direct").
	Name() string
	// Timeout is this tier's execution budget.
	Timeout() time.Duration
	// Execute attempts the task. The context carries the tier timeout;
	// implementations should honor it but the chain does not rely on
	// that; an overdue attempt is abandoned.
	Execute(ctx context.Context, taskName string, params map[string]interface{}) (string, error)
}
