package config

// Config represents the main project configuration (guardrail.yaml)
type Config struct {
	Name     string            `yaml:"name" json:"name"`
	Version  string            `yaml:"version" json:"version"`
	Logging  LoggingConfig     `yaml:"logging" json:"logging"`
	Store    StoreConfig       `yaml:"store" json:"store"`
	Metrics  MetricsConfig     `yaml:"metrics" json:"metrics"`
	Router   RouterConfig      `yaml:"router" json:"router"`
	Mappings map[string]string `yaml:"mappings" json:"mappings"`
	Tiers    []TierConfig      `yaml:"tiers" json:"tiers"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// StoreConfig configures the audit event store
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory
	Path   string `yaml:"path" json:"path"`     // file path for sqlite
}

// MetricsConfig configures the JSONL metrics exporter
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// RouterConfig configures the completion router thresholds and allow-list
type RouterConfig struct {
	AutoCompleteThreshold int      `yaml:"auto_complete_threshold" json:"auto_complete_threshold"`
	ReviewThreshold       int      `yaml:"review_threshold" json:"review_threshold"`
	AllowedTools          []string `yaml:"allowed_tools" json:"allowed_tools"`
}

// TierConfig defines one fallback tier.
type TierConfig struct {
	Name    string            `yaml:"name" json:"name"`
	Kind    string            `yaml:"kind" json:"kind"` // inprocess, http, process
	Timeout string            `yaml:"timeout,omitempty" json:"timeout,omitempty"` // e.g. "5s"
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`         // for http tiers
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"` // for http tiers
	Command string            `yaml:"command,omitempty" json:"command,omitempty"` // for process tiers
}
