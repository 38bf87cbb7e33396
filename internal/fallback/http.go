package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPExecutor is the tier-2 executor: recovery via a network API.
type HTTPExecutor struct {
	name    string
	url     string
	headers map[string]string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPExecutor creates the API-fallback tier posting to the given URL.
func NewHTTPExecutor(url string, headers map[string]string) *HTTPExecutor {
	return &HTTPExecutor{
		name:    "api_fallback",
		url:     url,
		headers: headers,
		timeout: DefaultAPITimeout,
		client:  &http.Client{},
	}
}

func (e *HTTPExecutor) Name() string           { return e.name }
func (e *HTTPExecutor) Timeout() time.Duration { return e.timeout }

// SetTimeout overrides the tier timeout.
func (e *HTTPExecutor) SetTimeout(d time.Duration) { e.timeout = d }

type httpPayload struct {
	Task   string                 `json:"task"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Execute POSTs the task payload and treats any 2xx as success.
func (e *HTTPExecutor) Execute(ctx context.Context, taskName string, params map[string]interface{}) (string, error) {
	body, err := json.Marshal(httpPayload{Task: taskName, Params: params})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return string(respBody), nil
}
