package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# guardrail.yaml - automation reliability configuration
name: %s
version: "1.0"

logging:
  level: info
  format: text

store:
  driver: sqlite
  path: .guardrail/events.db

metrics:
  enabled: false

router:
  auto_complete_threshold: 80
  review_threshold: 60
  allowed_tools:
    - bash
    - edit
    - write
    - task

# Map workflow names to the recovery task each fallback tier should run.
mappings:
  notion_sync: sync_notes
  deploy_notify: send_notification

tiers:
  - name: direct
    kind: inprocess
    timeout: 1s
  - name: api_fallback
    kind: http
    url: ${env.GUARDRAIL_FALLBACK_URL}
    timeout: 5s
  - name: service
    kind: process
    command: guardrail-worker run {{task}}
    timeout: 30s
`

// Init writes a starter guardrail.yaml into dir. It refuses to overwrite
// an existing configuration.
func Init(dir, name string) (string, error) {
	if name == "" {
		name = filepath.Base(dir)
	}

	configFile := filepath.Join(dir, "guardrail.yaml")
	if _, err := os.Stat(configFile); err == nil {
		return "", fmt.Errorf("guardrail.yaml already exists in %s", dir)
	}

	content := fmt.Sprintf(configTemplate, name)
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	storeDir := filepath.Join(dir, ".guardrail")
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return configFile, nil
}
