package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "medtext.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/medtext"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// UserConfigPath returns the path of the user-level config file, or ""
// when the home directory cannot be resolved.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// Load builds the effective configuration. Defaults are overlaid with the
// user config, then with the project config found by walking up from the
// current directory. A missing file is skipped; an unreadable one only
// logs a warning so a broken user config cannot take the tool down.
func Load(logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := DefaultConfig()
	mergeFile(config, UserConfigPath(), "user", logger)
	mergeFile(config, FindProjectConfig(), "project", logger)

	if config.Watch.Dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve watch dir: %w", err)
		}
		config.Watch.Dir = cwd
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile overlays one config layer onto config, when the file exists.
func mergeFile(config *Config, path, layer string, logger *slog.Logger) {
	if path == "" {
		return
	}
	overlay, err := LoadFromFile(path)
	switch {
	case err == nil:
		logger.Debug("Loaded config layer", slog.String("layer", layer), slog.String("path", path))
		config.Merge(overlay)
	case os.IsNotExist(err):
	default:
		logger.Warn("Failed to load config layer",
			slog.String("layer", layer),
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// FindProjectConfig walks from the current directory to the filesystem
// root, returning the first medtext.yaml found, or "".
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
