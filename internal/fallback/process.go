package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ProcessExecutor is the tier-3 executor: recovery via an OS process
// (e.g. a service invocation). Slowest, most isolated, tried last.
//
// The command receives the task name and parameters in environment
// variables:
//   - GUARDRAIL_TASK: the task name
//   - GUARDRAIL_PARAMS: JSON-encoded parameters
type ProcessExecutor struct {
	name    string
	command string
	workDir string
	timeout time.Duration
}

// NewProcessExecutor creates the process-isolated tier.
func NewProcessExecutor(command string) *ProcessExecutor {
	return &ProcessExecutor{
		name:    "service",
		command: command,
		timeout: DefaultServiceTimeout,
	}
}

func (e *ProcessExecutor) Name() string           { return e.name }
func (e *ProcessExecutor) Timeout() time.Duration { return e.timeout }

// SetTimeout overrides the tier timeout.
func (e *ProcessExecutor) SetTimeout(d time.Duration) { e.timeout = d }

// SetWorkingDir sets the working directory for the command.
func (e *ProcessExecutor) SetWorkingDir(dir string) { e.workDir = dir }

// Execute runs the command, substituting {{task}} in the command template.
func (e *ProcessExecutor) Execute(ctx context.Context, taskName string, params map[string]interface{}) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	cmdStr := strings.ReplaceAll(e.command, "{{task}}", taskName)

	command := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	if e.workDir != "" {
		command.Dir = e.workDir
	}
	command.Env = append(os.Environ(),
		"GUARDRAIL_TASK="+taskName,
		"GUARDRAIL_PARAMS="+string(paramsJSON),
	)

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("command timed out after %v", e.timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("command failed: %s", msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}
