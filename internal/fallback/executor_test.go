package fallback

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInProcessExecutor(t *testing.T) {
	exec := NewInProcessExecutor()
	exec.Register("redeploy_docs", func(ctx context.Context, params map[string]interface{}) (string, error) {
		return "redeployed", nil
	})

	out, err := exec.Execute(context.Background(), "redeploy_docs", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "redeployed" {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := exec.Execute(context.Background(), "unknown_task", nil); err == nil {
		t.Fatal("expected error for unregistered task")
	}

	if exec.Timeout() != DefaultDirectTimeout {
		t.Errorf("unexpected default timeout: %s", exec.Timeout())
	}
	exec.SetTimeout(100 * time.Millisecond)
	if exec.Timeout() != 100*time.Millisecond {
		t.Errorf("timeout override not applied: %s", exec.Timeout())
	}
}

func TestHTTPExecutor(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	exec := NewHTTPExecutor(server.URL, map[string]string{"X-Token": "secret"})

	out, err := exec.Execute(context.Background(), "sync_notes", map[string]interface{}{"retries": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("unexpected response: %q", out)
	}
	if !strings.Contains(gotBody, `"task":"sync_notes"`) {
		t.Errorf("request body missing task: %s", gotBody)
	}
}

func TestHTTPExecutor_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	exec := NewHTTPExecutor(server.URL, nil)
	if _, err := exec.Execute(context.Background(), "sync_notes", nil); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestHTTPExecutor_NonSuccessStatusIsError(t *testing.T) {
	// A 3xx the client does not follow is not a success.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultipleChoices)
	}))
	defer server.Close()

	exec := NewHTTPExecutor(server.URL, nil)
	if _, err := exec.Execute(context.Background(), "sync_notes", nil); err == nil {
		t.Fatal("expected error for 300 response")
	}
}

func TestHTTPExecutor_HonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	exec := NewHTTPExecutor(server.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := exec.Execute(ctx, "sync_notes", nil); err == nil {
		t.Fatal("expected context deadline error")
	}
	if time.Since(start) > time.Second {
		t.Error("executor did not honor the context deadline")
	}
}

func TestProcessExecutor(t *testing.T) {
	exec := NewProcessExecutor(`echo "handled $GUARDRAIL_TASK"`)

	out, err := exec.Execute(context.Background(), "redeploy_docs", map[string]interface{}{"force": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "handled redeploy_docs" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestProcessExecutor_TaskTemplate(t *testing.T) {
	exec := NewProcessExecutor(`echo {{task}}`)

	out, err := exec.Execute(context.Background(), "sync_notes", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "sync_notes" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestProcessExecutor_CommandFailure(t *testing.T) {
	exec := NewProcessExecutor(`sh -c 'echo nope >&2; exit 1'`)

	_, err := exec.Execute(context.Background(), "task", nil)
	if err == nil {
		t.Fatal("expected error for failing command")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}
