package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guardrail-oss/guardrail/internal/config"
	"github.com/guardrail-oss/guardrail/internal/telemetry"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	yaml := `
name: srvtest
store:
  driver: memory
mappings:
  notion_sync: sync_notes
tiers:
  - name: direct
    kind: process
    command: "true"
    timeout: 1s
`
	if err := os.WriteFile(filepath.Join(dir, "guardrail.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	client, err := guardrail.OpenWithConfig(dir, cfg)
	if err != nil {
		t.Fatalf("open client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	srv := New(client, telemetry.NewLogger(false))
	ts := httptest.NewServer(corsMiddleware(srv.setupRoutes()))
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHookFailedRunsRecovery(t *testing.T) {
	ts := newTestServer(t)

	body := `{"workflow":"notion_sync","status_code":504,"response_body":"gateway timeout","duration_seconds":2}`
	resp, err := http.Post(ts.URL+"/hooks/failed", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /hooks/failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result struct {
		FailureType string `json:"failure_type"`
		EventIDs    []string
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.FailureType != "GATEWAY_TIMEOUT" {
		t.Errorf("failure_type = %q, want GATEWAY_TIMEOUT", result.FailureType)
	}
}

func TestHookFailedUnmappedWorkflow(t *testing.T) {
	ts := newTestServer(t)

	body := `{"workflow":"mystery_flow","status_code":403,"response_body":"forbidden"}`
	resp, err := http.Post(ts.URL+"/hooks/failed", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /hooks/failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestRouteEndpoint(t *testing.T) {
	ts := newTestServer(t)

	body := `{"tool":"bash","output":"deployment complete"}`
	resp, err := http.Post(ts.URL+"/route", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /route: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result struct {
		ActionTaken bool `json:"action_taken"`
		Confidence  int  `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.ActionTaken {
		t.Error("expected high-confidence output to take action")
	}
	if result.Confidence != 90 {
		t.Errorf("confidence = %d, want 90", result.Confidence)
	}
}

func TestEventsListAndResolve(t *testing.T) {
	ts := newTestServer(t)

	// Generate one failure event via the hook.
	body := `{"workflow":"notion_sync","status_code":403,"response_body":"forbidden"}`
	if _, err := http.Post(ts.URL+"/hooks/failed", "application/json", strings.NewReader(body)); err != nil {
		t.Fatalf("seed failure: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/events?type=failure-detected")
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	var listing struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Count != 1 {
		t.Fatalf("count = %d, want 1", listing.Count)
	}

	id := listing.Events[0].ID
	res, err := http.Post(ts.URL+"/api/events/"+id+"/resolve", "application/json", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("resolve status = %d, want 200", res.StatusCode)
	}

	// Second resolve conflicts.
	res2, err := http.Post(ts.URL+"/api/events/"+id+"/resolve", "application/json", nil)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusConflict {
		t.Errorf("second resolve status = %d, want 409", res2.StatusCode)
	}
}
