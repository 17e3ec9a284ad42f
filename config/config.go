// Package config provides configuration loading and management for
// medtext.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete medtext configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	NATS     NATSConfig     `yaml:"nats"`
	Watch    WatchConfig    `yaml:"watch"`
}

// PipelineConfig configures the annotation pipeline
type PipelineConfig struct {
	// SyntagmaLabel is the label given to syntagma segments
	SyntagmaLabel string `yaml:"syntagma_label"`
	// NegationLabel is the label of the negation attribute
	NegationLabel string `yaml:"negation_label"`
	// FamilyLabel is the label of the family-reference attribute
	FamilyLabel string `yaml:"family_label"`
	// SeparatorsFile overrides the built-in syntagma separators (YAML)
	SeparatorsFile string `yaml:"separators_file"`
	// KeepSeparator keeps the separator at the start of the next syntagma
	KeepSeparator bool `yaml:"keep_separator"`
	// NegationRulesFile overrides the built-in negation rules (YAML)
	NegationRulesFile string `yaml:"negation_rules_file"`
	// FamilyRulesFile overrides the built-in family rules (YAML)
	FamilyRulesFile string `yaml:"family_rules_file"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = no NATS, storage and
	// publishing disabled)
	URL string `yaml:"url"`
	// Subject is the subject annotated documents are published to
	Subject string `yaml:"subject"`
	// Timeout is the maximum time to wait for NATS operations
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig configures the directory watcher
type WatchConfig struct {
	// Dir is the directory to watch for new documents
	Dir string `yaml:"dir"`
	// Pattern selects the files to ingest (doublestar glob)
	Pattern string `yaml:"pattern"`
	// Debounce is how long a file must stay quiet before ingestion
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			SyntagmaLabel: "syntagma",
			NegationLabel: "negation",
			FamilyLabel:   "family",
		},
		NATS: NATSConfig{
			URL:     "",
			Subject: "medtext.document.annotated",
			Timeout: 10 * time.Second,
		},
		Watch: WatchConfig{
			Pattern:  "*.txt",
			Debounce: 2 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Pipeline.SyntagmaLabel == "" {
		return fmt.Errorf("pipeline.syntagma_label is required")
	}
	if c.Pipeline.NegationLabel == "" {
		return fmt.Errorf("pipeline.negation_label is required")
	}
	if c.Pipeline.FamilyLabel == "" {
		return fmt.Errorf("pipeline.family_label is required")
	}
	if c.NATS.Timeout <= 0 {
		return fmt.Errorf("nats.timeout must be positive")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Pipeline
	if other.Pipeline.SyntagmaLabel != "" {
		c.Pipeline.SyntagmaLabel = other.Pipeline.SyntagmaLabel
	}
	if other.Pipeline.NegationLabel != "" {
		c.Pipeline.NegationLabel = other.Pipeline.NegationLabel
	}
	if other.Pipeline.FamilyLabel != "" {
		c.Pipeline.FamilyLabel = other.Pipeline.FamilyLabel
	}
	if other.Pipeline.SeparatorsFile != "" {
		c.Pipeline.SeparatorsFile = other.Pipeline.SeparatorsFile
	}
	if other.Pipeline.KeepSeparator {
		c.Pipeline.KeepSeparator = true
	}
	if other.Pipeline.NegationRulesFile != "" {
		c.Pipeline.NegationRulesFile = other.Pipeline.NegationRulesFile
	}
	if other.Pipeline.FamilyRulesFile != "" {
		c.Pipeline.FamilyRulesFile = other.Pipeline.FamilyRulesFile
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
	if other.NATS.Timeout != 0 {
		c.NATS.Timeout = other.NATS.Timeout
	}

	// Watch
	if other.Watch.Dir != "" {
		c.Watch.Dir = other.Watch.Dir
	}
	if other.Watch.Pattern != "" {
		c.Watch.Pattern = other.Watch.Pattern
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
