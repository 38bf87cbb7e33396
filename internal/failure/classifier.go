// Package failure classifies external-workflow outcomes into a single
// failure type via priority-ordered checks.
package failure

import (
	"strings"
	"time"
)

// Type is the classified failure category.
type Type string

const (
	NoFailure        Type = "NO_FAILURE"
	ExecutionTimeout Type = "EXECUTION_TIMEOUT"
	AuthFailure      Type = "AUTH_FAILURE"
	GatewayTimeout   Type = "GATEWAY_TIMEOUT"
	WebhookFailure   Type = "WEBHOOK_FAILURE"
	UnknownError     Type = "UNKNOWN_ERROR"
)

// ExecutionBudget is the wall-time ceiling beyond which any outcome is a
// timeout failure, even a 200.
const ExecutionBudget = 30 * time.Second

var authKeywords = []string{
	"unauthorized", "forbidden", "invalid token", "token expired",
	"authentication failed", "permission denied", "access denied",
	"invalid credentials", "api key",
}

var gatewayKeywords = []string{
	"gateway timeout", "bad gateway", "service unavailable",
	"upstream", "connection refused", "no response",
}

var webhookKeywords = []string{
	"webhook", "callback failed", "delivery failed", "payload rejected",
}

var genericErrorKeywords = []string{
	"error", "failed", "failure", "exception", "crash",
}

// Outcome is the inbound workflow result payload.
type Outcome struct {
	StatusCode   *int          `json:"status_code"`
	ResponseBody string        `json:"response_body"`
	Duration     time.Duration `json:"duration"`
	WorkflowName string        `json:"workflow_name"`
	TaskID       string        `json:"task_id"`
}

// Classify maps an outcome to exactly one failure type.
//
// The checks run in strict priority order and the order is load-bearing:
// duration is the most unambiguous signal, explicit status codes are next,
// and free-text keyword matching is the lowest-precision last resort that
// must never override a hard status code.
func Classify(statusCode *int, response string, duration time.Duration) Type {
	if duration > ExecutionBudget {
		return ExecutionTimeout
	}

	if statusCode != nil {
		switch *statusCode {
		case 403:
			return AuthFailure
		case 504:
			return GatewayTimeout
		}
	}

	lowered := strings.ToLower(response)

	if containsAny(lowered, authKeywords) {
		return AuthFailure
	}
	if containsAny(lowered, gatewayKeywords) {
		return GatewayTimeout
	}
	if containsAny(lowered, webhookKeywords) {
		return WebhookFailure
	}
	if containsAny(lowered, genericErrorKeywords) {
		return UnknownError
	}

	return NoFailure
}

// ClassifyOutcome applies Classify to a full outcome payload.
func ClassifyOutcome(o Outcome) Type {
	return Classify(o.StatusCode, o.ResponseBody, o.Duration)
}

// IsFailure reports whether the type represents an actual failure.
func (t Type) IsFailure() bool {
	return t != NoFailure
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
