package telemetry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type traceKey struct{}

// TraceContext carries correlation IDs through the reliability pipeline.
type TraceContext struct {
	ProjectID    string `json:"project_id"`
	TraceID      string `json:"trace_id"`
	SpanID       string `json:"span_id"`
	ParentID     string `json:"parent_id,omitempty"`
	WorkflowName string `json:"workflow_name,omitempty"`
	ToolName     string `json:"tool_name,omitempty"`
}

// NewTraceContext creates a root trace context with a fresh TraceID and SpanID.
func NewTraceContext(projectID string) *TraceContext {
	return &TraceContext{
		ProjectID: projectID,
		TraceID:   randomID(),
		SpanID:    randomID(),
	}
}

// ChildSpan creates a child trace context inheriting the TraceID and ProjectID.
func (tc *TraceContext) ChildSpan() *TraceContext {
	return &TraceContext{
		ProjectID: tc.ProjectID,
		TraceID:   tc.TraceID,
		SpanID:    randomID(),
		ParentID:  tc.SpanID,
	}
}

// WithWorkflow returns a copy with the WorkflowName set.
func (tc *TraceContext) WithWorkflow(name string) *TraceContext {
	child := *tc
	child.WorkflowName = name
	return &child
}

// WithTool returns a copy with the ToolName set.
func (tc *TraceContext) WithTool(name string) *TraceContext {
	child := *tc
	child.ToolName = name
	return &child
}

// Fields returns key-value pairs suitable for structured logging.
func (tc *TraceContext) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"project_id": tc.ProjectID,
		"trace_id":   tc.TraceID,
		"span_id":    tc.SpanID,
	}
	if tc.ParentID != "" {
		fields["parent_id"] = tc.ParentID
	}
	if tc.WorkflowName != "" {
		fields["workflow"] = tc.WorkflowName
	}
	if tc.ToolName != "" {
		fields["tool"] = tc.ToolName
	}
	return fields
}

// ContextWithTrace stores a TraceContext in the context.
func ContextWithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// TraceFromContext extracts a TraceContext from the context, or nil.
func TraceFromContext(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceKey{}).(*TraceContext)
	return tc
}

// WithTrace returns a logger enriched with trace fields from the context.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	tc := TraceFromContext(ctx)
	if tc == nil {
		return l
	}
	return l.WithFields(tc.Fields())
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
