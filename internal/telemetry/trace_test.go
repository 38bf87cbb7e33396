package telemetry

import (
	"context"
	"testing"
)

func TestTraceContext_NewAndChild(t *testing.T) {
	root := NewTraceContext("repo-123")

	if root.ProjectID != "repo-123" {
		t.Errorf("expected ProjectID 'repo-123', got %q", root.ProjectID)
	}
	if root.TraceID == "" {
		t.Error("expected non-empty TraceID")
	}
	if root.SpanID == "" {
		t.Error("expected non-empty SpanID")
	}
	if root.ParentID != "" {
		t.Error("expected empty ParentID for root")
	}

	child := root.ChildSpan()
	if child.TraceID != root.TraceID {
		t.Error("child should inherit TraceID")
	}
	if child.ParentID != root.SpanID {
		t.Error("child ParentID should be parent's SpanID")
	}
	if child.SpanID == root.SpanID {
		t.Error("child should have a different SpanID")
	}
}

func TestTraceContext_WithWorkflowTool(t *testing.T) {
	tc := NewTraceContext("repo-1")
	withWorkflow := tc.WithWorkflow("deploy-docs")
	withTool := withWorkflow.WithTool("bash")

	if withWorkflow.WorkflowName != "deploy-docs" {
		t.Errorf("expected workflow 'deploy-docs', got %q", withWorkflow.WorkflowName)
	}
	if withTool.ToolName != "bash" {
		t.Errorf("expected tool 'bash', got %q", withTool.ToolName)
	}
	// Original unchanged
	if tc.WorkflowName != "" {
		t.Error("original should not be modified")
	}
}

func TestTraceContext_ContextPropagation(t *testing.T) {
	tc := NewTraceContext("repo-2")
	ctx := ContextWithTrace(context.Background(), tc)

	extracted := TraceFromContext(ctx)
	if extracted == nil {
		t.Fatal("expected trace in context")
	}
	if extracted.ProjectID != "repo-2" {
		t.Errorf("expected ProjectID 'repo-2', got %q", extracted.ProjectID)
	}

	// nil context returns nil
	if TraceFromContext(context.Background()) != nil {
		t.Error("expected nil trace from empty context")
	}
}

func TestTraceContext_Fields(t *testing.T) {
	tc := NewTraceContext("repo-3")
	tc = tc.WithWorkflow("ci-build").WithTool("edit")

	fields := tc.Fields()
	if fields["project_id"] != "repo-3" {
		t.Error("expected project_id in fields")
	}
	if fields["workflow"] != "ci-build" {
		t.Error("expected workflow in fields")
	}
	if fields["tool"] != "edit" {
		t.Error("expected tool in fields")
	}
}
