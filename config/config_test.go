package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pipeline.SyntagmaLabel != "syntagma" {
		t.Errorf("expected default syntagma label syntagma, got %s", cfg.Pipeline.SyntagmaLabel)
	}
	if cfg.Pipeline.NegationLabel != "negation" {
		t.Errorf("expected default negation label negation, got %s", cfg.Pipeline.NegationLabel)
	}
	if cfg.NATS.Subject != "medtext.document.annotated" {
		t.Errorf("expected default subject medtext.document.annotated, got %s", cfg.NATS.Subject)
	}
	if cfg.Watch.Pattern != "*.txt" {
		t.Errorf("expected default watch pattern *.txt, got %s", cfg.Watch.Pattern)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing syntagma label",
			modify:  func(c *Config) { c.Pipeline.SyntagmaLabel = "" },
			wantErr: true,
		},
		{
			name:    "missing negation label",
			modify:  func(c *Config) { c.Pipeline.NegationLabel = "" },
			wantErr: true,
		},
		{
			name:    "missing family label",
			modify:  func(c *Config) { c.Pipeline.FamilyLabel = "" },
			wantErr: true,
		},
		{
			name:    "non-positive nats timeout",
			modify:  func(c *Config) { c.NATS.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
pipeline:
  syntagma_label: "phrase"
  keep_separator: true
nats:
  url: "nats://test:4222"
  timeout: 30s
watch:
  dir: "/data/incoming"
  pattern: "**/*.txt"
  debounce: 5s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Pipeline.SyntagmaLabel != "phrase" {
		t.Errorf("expected syntagma label phrase, got %s", cfg.Pipeline.SyntagmaLabel)
	}
	if !cfg.Pipeline.KeepSeparator {
		t.Error("expected keep_separator true")
	}
	// Unset fields keep their defaults
	if cfg.Pipeline.NegationLabel != "negation" {
		t.Errorf("expected negation label to remain default, got %s", cfg.Pipeline.NegationLabel)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.NATS.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.NATS.Timeout)
	}
	if cfg.Watch.Dir != "/data/incoming" {
		t.Errorf("expected watch dir /data/incoming, got %s", cfg.Watch.Dir)
	}
	if cfg.Watch.Debounce != 5*time.Second {
		t.Errorf("expected debounce 5s, got %v", cfg.Watch.Debounce)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Pipeline: PipelineConfig{
			SyntagmaLabel: "phrase",
		},
		Watch: WatchConfig{
			Dir: "/override/path",
		},
	}

	base.Merge(override)

	if base.Pipeline.SyntagmaLabel != "phrase" {
		t.Errorf("expected syntagma label phrase, got %s", base.Pipeline.SyntagmaLabel)
	}
	// Negation label should remain from base since override didn't set it
	if base.Pipeline.NegationLabel != "negation" {
		t.Errorf("expected negation label to remain default, got %s", base.Pipeline.NegationLabel)
	}
	if base.Watch.Dir != "/override/path" {
		t.Errorf("expected watch dir /override/path, got %s", base.Watch.Dir)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Pipeline.SyntagmaLabel = "saved-label"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Pipeline.SyntagmaLabel != "saved-label" {
		t.Errorf("expected syntagma label saved-label, got %s", loaded.Pipeline.SyntagmaLabel)
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Pipeline.SyntagmaLabel = "project-label"
	if err := cfg.SaveToFile(filepath.Join(tmpDir, ProjectConfigFile)); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// The search walks up from nested directories.
	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	found := FindProjectConfig()
	if found != filepath.Join(tmpDir, ProjectConfigFile) {
		t.Errorf("expected project config in %s, got %q", tmpDir, found)
	}

	loaded, err := LoadFromFile(found)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Pipeline.SyntagmaLabel != "project-label" {
		t.Errorf("expected syntagma label project-label, got %s", loaded.Pipeline.SyntagmaLabel)
	}
}
