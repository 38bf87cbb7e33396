package config

import (
	"fmt"
	"strings"
	"time"

	gerrors "github.com/guardrail-oss/guardrail/internal/errors"
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validLogFormats = map[string]bool{"text": true, "json": true}
var validStoreDrivers = map[string]bool{"sqlite": true, "memory": true}
var validTierKinds = map[string]bool{"inprocess": true, "http": true, "process": true}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Name == "" {
		errs = append(errs, "name is required")
	}

	if !validLogLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug, info, warn, error (got %q)", cfg.Logging.Level))
	}
	if !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be text or json (got %q)", cfg.Logging.Format))
	}

	if !validStoreDrivers[cfg.Store.Driver] {
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or memory (got %q)", cfg.Store.Driver))
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		errs = append(errs, "store.path is required when store.driver is sqlite")
	}

	if cfg.Router.AutoCompleteThreshold < 0 || cfg.Router.AutoCompleteThreshold > 100 {
		errs = append(errs, fmt.Sprintf("router.auto_complete_threshold must be between 0 and 100 (got %d)", cfg.Router.AutoCompleteThreshold))
	}
	if cfg.Router.ReviewThreshold < 0 || cfg.Router.ReviewThreshold > 100 {
		errs = append(errs, fmt.Sprintf("router.review_threshold must be between 0 and 100 (got %d)", cfg.Router.ReviewThreshold))
	}
	if cfg.Router.ReviewThreshold > cfg.Router.AutoCompleteThreshold {
		errs = append(errs, fmt.Sprintf("router.review_threshold (%d) must not exceed router.auto_complete_threshold (%d)", cfg.Router.ReviewThreshold, cfg.Router.AutoCompleteThreshold))
	}

	for workflow, task := range cfg.Mappings {
		if task == "" {
			errs = append(errs, fmt.Sprintf("mappings.%s: task name is required", workflow))
		}
	}

	seen := map[string]bool{}
	for i, tier := range cfg.Tiers {
		label := tier.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if !validTierKinds[tier.Kind] {
			errs = append(errs, fmt.Sprintf("tiers.%s: kind must be inprocess, http, or process (got %q)", label, tier.Kind))
		}
		if seen[tier.Name] {
			errs = append(errs, fmt.Sprintf("tiers.%s: duplicate tier name", label))
		}
		seen[tier.Name] = true
		if tier.Timeout != "" {
			if d, err := time.ParseDuration(tier.Timeout); err != nil {
				errs = append(errs, fmt.Sprintf("tiers.%s: invalid timeout %q", label, tier.Timeout))
			} else if d <= 0 {
				errs = append(errs, fmt.Sprintf("tiers.%s: timeout must be positive", label))
			}
		}
		switch tier.Kind {
		case "http":
			if tier.URL == "" {
				errs = append(errs, fmt.Sprintf("tiers.%s: url is required for http tiers", label))
			}
		case "process":
			if tier.Command == "" {
				errs = append(errs, fmt.Sprintf("tiers.%s: command is required for process tiers", label))
			}
		}
	}

	if len(errs) > 0 {
		return gerrors.New(gerrors.CodeConfigInvalid,
			fmt.Sprintf("invalid configuration: %s", strings.Join(errs, "; ")))
	}

	return nil
}
