// Package config loads application settings from setting.yaml,
// environment variables, and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/opsmedic/opsmedic/internal/app/config"
)

// RawSettings represents the structure of setting.yaml.
// Pointer fields distinguish "absent" from "explicitly zero".
type RawSettings struct {
	// Provider settings
	Provider   *string `yaml:"provider"`
	Model      *string `yaml:"model"`
	APIKey     *string `yaml:"api_key"`
	BaseURL    *string `yaml:"base_url"`
	MaxTokens  *int    `yaml:"max_tokens"`
	TimeoutSec *int    `yaml:"timeout_sec"`

	// Execution limits
	MaxRounds *int `yaml:"max_rounds"`

	// Audit settings
	AuditStore *string `yaml:"audit_store"`
	AuditPath  *string `yaml:"audit_path"`

	// Logging
	LogLevel *string `yaml:"log_level"`
}

// LoadSettings loads configuration for the given base directory.
// Priority: environment variables > setting.yaml > defaults
func LoadSettings(fs afero.Fs, baseDir string) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	yamlPath := filepath.Join(baseDir, "setting.yaml")
	if data, err := afero.ReadFile(fs, yamlPath); err == nil {
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
		configSource = "yaml"
		settingPath = yamlPath
	}

	if applyEnvOverrides(settings) {
		configSource = "env"
	}

	applyDefaults(settings)

	if err := validate(settings); err != nil {
		return nil, err
	}

	return buildAppConfig(settings, configSource, settingPath), nil
}

// applyEnvOverrides layers OPSMEDIC_* variables over file settings and
// reports whether any override was applied.
func applyEnvOverrides(settings *RawSettings) bool {
	applied := false
	setString := func(key string, dst **string) {
		if v := os.Getenv(key); v != "" {
			*dst = &v
			applied = true
		}
	}
	setInt := func(key string, dst **int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = &n
				applied = true
			}
		}
	}

	setString("OPSMEDIC_PROVIDER", &settings.Provider)
	setString("OPSMEDIC_MODEL", &settings.Model)
	setString("OPSMEDIC_API_KEY", &settings.APIKey)
	setString("OPSMEDIC_BASE_URL", &settings.BaseURL)
	setInt("OPSMEDIC_MAX_TOKENS", &settings.MaxTokens)
	setInt("OPSMEDIC_TIMEOUT_SEC", &settings.TimeoutSec)
	setInt("OPSMEDIC_MAX_ROUNDS", &settings.MaxRounds)
	setString("OPSMEDIC_AUDIT_STORE", &settings.AuditStore)
	setString("OPSMEDIC_AUDIT_PATH", &settings.AuditPath)
	setString("OPSMEDIC_LOG_LEVEL", &settings.LogLevel)
	return applied
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings) {
	if settings.Provider == nil {
		v := "anthropic"
		settings.Provider = &v
	}
	if settings.Model == nil {
		v := ""
		settings.Model = &v
	}
	if settings.APIKey == nil {
		v := ""
		settings.APIKey = &v
	}
	if settings.BaseURL == nil {
		v := ""
		settings.BaseURL = &v
	}
	if settings.MaxTokens == nil {
		v := 4096
		settings.MaxTokens = &v
	}
	if settings.TimeoutSec == nil {
		v := 120
		settings.TimeoutSec = &v
	}
	if settings.MaxRounds == nil {
		v := 16
		settings.MaxRounds = &v
	}
	if settings.AuditStore == nil {
		v := "sqlite"
		settings.AuditStore = &v
	}
	if settings.AuditPath == nil {
		v := ".opsmedic/audit.db"
		settings.AuditPath = &v
	}
	if settings.LogLevel == nil {
		v := "warn"
		settings.LogLevel = &v
	}
}

// validate rejects values no component can act on
func validate(settings *RawSettings) error {
	switch *settings.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("invalid provider %q (supported: anthropic, openai)", *settings.Provider)
	}
	switch *settings.AuditStore {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("invalid audit_store %q (supported: sqlite, file, memory)", *settings.AuditStore)
	}
	if *settings.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", *settings.MaxRounds)
	}
	return nil
}

// buildAppConfig converts RawSettings to AppConfig
func buildAppConfig(settings *RawSettings, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(
		*settings.Provider,
		*settings.Model,
		*settings.APIKey,
		*settings.BaseURL,
		*settings.MaxTokens,
		*settings.TimeoutSec,
		*settings.MaxRounds,
		*settings.AuditStore,
		*settings.AuditPath,
		*settings.LogLevel,
		configSource,
		settingPath,
	)
}

// CreateDefaultSettings creates a default setting.yaml content
func CreateDefaultSettings() []byte {
	settings := &RawSettings{}
	applyDefaults(settings)

	data, _ := yaml.Marshal(settings)
	return data
}
