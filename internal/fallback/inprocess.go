package fallback

import (
	"context"
	"fmt"
	"time"
)

// Handler is an in-process recovery function.
type Handler func(ctx context.Context, params map[string]interface{}) (string, error)

// InProcessExecutor is the tier-1 executor: named handlers invoked
// directly in the caller's process. Fast and cheap, tried first.
type InProcessExecutor struct {
	name     string
	timeout  time.Duration
	handlers map[string]Handler
}

// NewInProcessExecutor creates the direct-execution tier.
func NewInProcessExecutor() *InProcessExecutor {
	return &InProcessExecutor{
		name:     "direct",
		timeout:  DefaultDirectTimeout,
		handlers: make(map[string]Handler),
	}
}

func (e *InProcessExecutor) Name() string           { return e.name }
func (e *InProcessExecutor) Timeout() time.Duration { return e.timeout }

// SetTimeout overrides the tier timeout.
func (e *InProcessExecutor) SetTimeout(d time.Duration) { e.timeout = d }

// Register adds a handler for a task name.
func (e *InProcessExecutor) Register(taskName string, h Handler) {
	e.handlers[taskName] = h
}

// Execute runs the registered handler for the task.
func (e *InProcessExecutor) Execute(ctx context.Context, taskName string, params map[string]interface{}) (string, error) {
	h, ok := e.handlers[taskName]
	if !ok {
		return "", fmt.Errorf("no handler registered for task: %s", taskName)
	}
	return h(ctx, params)
}
