// Package config loads the datasentinel.yml configuration and resolves it
// into compiled rulesets and wired collaborators.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go-data-sentinel/internal/model"
	"go-data-sentinel/internal/notify"
	"go-data-sentinel/internal/validation"
)

// AuditConfig configures audit persistence.
type AuditConfig struct {
	// DBPath is the SQLite audit database location
	DBPath string `yaml:"db_path"`
	// OutputDir is where per-run report files are written; empty disables
	// the file report store
	OutputDir string `yaml:"output_dir"`
}

// NotifierSpec configures one notifier instance.
type NotifierSpec struct {
	Type string `yaml:"type"` // log, webhook
	URL  string `yaml:"url,omitempty"`
}

// Config is the complete datasentinel configuration.
type Config struct {
	Audit AuditConfig `yaml:"audit"`
	// Notifiers maps notification events (on_fail, on_warn, on_pass) to
	// notifier specs
	Notifiers map[string][]NotifierSpec `yaml:"notifiers,omitempty"`
	// Datasets maps dataset names to their ruleset definitions
	Datasets map[string]model.RuleSetSpec `yaml:"datasets"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Audit: AuditConfig{
			DBPath:    "datasentinel.db",
			OutputDir: "datasentinel_output",
		},
	}
}

// Load reads and parses a configuration file, applying defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Audit.DBPath == "" {
		cfg.Audit.DBPath = "datasentinel.db"
	}
	return cfg, nil
}

// RuleSets compiles every dataset's ruleset, failing fast on the first
// malformed definition.
func (c *Config) RuleSets() (map[string]*validation.RuleSet, error) {
	rulesets := make(map[string]*validation.RuleSet, len(c.Datasets))
	for dataset, spec := range c.Datasets {
		spec.Dataset = dataset
		rs, err := validation.NewRuleSet(spec)
		if err != nil {
			return nil, err
		}
		rulesets[dataset] = rs
	}
	return rulesets, nil
}

// BuildNotifier assembles the notification dispatcher from configuration.
// Returns nil when no notifiers are configured.
func (c *Config) BuildNotifier(logger *zap.Logger) (*notify.Dispatcher, error) {
	if len(c.Notifiers) == 0 {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := notify.NewDispatcher(logger)
	for eventName, specs := range c.Notifiers {
		event := notify.Event(eventName)
		switch event {
		case notify.OnPass, notify.OnWarn, notify.OnFail:
		default:
			return nil, fmt.Errorf("unknown notification event %q (want on_pass, on_warn or on_fail)", eventName)
		}
		for _, spec := range specs {
			switch spec.Type {
			case "log":
				dispatcher.Register(event, &notify.LogNotifier{Logger: logger})
			case "webhook":
				if spec.URL == "" {
					return nil, fmt.Errorf("webhook notifier for %q requires a url", eventName)
				}
				dispatcher.Register(event, notify.NewWebhookNotifier(spec.URL))
			default:
				return nil, fmt.Errorf("unknown notifier type %q (want log or webhook)", spec.Type)
			}
		}
	}
	return dispatcher, nil
}
