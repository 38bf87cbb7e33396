package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load loads the project configuration from guardrail.yaml in dir.
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, "guardrail.yaml")

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if no file exists
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values
func interpolateEnv(content string) string {
	// Match ${env.VAR} pattern
	envPattern := regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	// Match ${VAR} pattern
	varPattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		// Command templates use {{...}}, so ${...} is always an env reference,
		// but leave unknown variables untouched for late binding.
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

func defaultConfig() *Config {
	cfg := &Config{
		Name:    "guardrail-project",
		Version: "1.0",
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "guardrail-project"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Path == "" && cfg.Store.Driver == "sqlite" {
		cfg.Store.Path = filepath.Join(".guardrail", "events.db")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = filepath.Join(".guardrail", "metrics.jsonl")
	}
	if cfg.Router.AutoCompleteThreshold == 0 {
		cfg.Router.AutoCompleteThreshold = 80
	}
	if cfg.Router.ReviewThreshold == 0 {
		cfg.Router.ReviewThreshold = 60
	}
	if len(cfg.Router.AllowedTools) == 0 {
		cfg.Router.AllowedTools = []string{"bash", "edit", "write", "task"}
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = []TierConfig{
			{Name: "direct", Kind: "inprocess", Timeout: "1s"},
			{Name: "service", Kind: "process", Timeout: "30s",
				Command: "echo recovered {{task}}"},
		}
	}
	for i := range cfg.Tiers {
		if cfg.Tiers[i].Name == "" {
			cfg.Tiers[i].Name = cfg.Tiers[i].Kind
		}
		if cfg.Tiers[i].Timeout == "" {
			cfg.Tiers[i].Timeout = defaultTierTimeout(cfg.Tiers[i].Kind)
		}
	}
}

func defaultTierTimeout(kind string) string {
	switch kind {
	case "inprocess":
		return "1s"
	case "http":
		return "5s"
	default:
		return "30s"
	}
}

// MappingList returns the configured workflow names, sorted for display.
func (c *Config) MappingList() []string {
	names := make([]string, 0, len(c.Mappings))
	for name := range c.Mappings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
