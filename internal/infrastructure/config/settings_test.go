package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, err := LoadSettings(fs, "/work")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider())
	assert.Equal(t, "", cfg.Model())
	assert.Equal(t, 4096, cfg.MaxTokens())
	assert.Equal(t, 120, cfg.TimeoutSec())
	assert.Equal(t, 16, cfg.MaxRounds())
	assert.Equal(t, "sqlite", cfg.AuditStore())
	assert.Equal(t, ".opsmedic/audit.db", cfg.AuditPath())
	assert.Equal(t, "warn", cfg.LogLevel())
	assert.Equal(t, "default", cfg.ConfigSource())
	assert.Equal(t, "", cfg.SettingPath())
}

func TestLoadSettings_FromYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	yamlContent := `
provider: openai
model: gpt-4o
api_key: sk-test
max_rounds: 8
audit_store: file
audit_path: /var/log/opsmedic/audit.jsonl
log_level: debug
`
	require.NoError(t, afero.WriteFile(fs, "/work/setting.yaml", []byte(yamlContent), 0644))

	cfg, err := LoadSettings(fs, "/work")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider())
	assert.Equal(t, "gpt-4o", cfg.Model())
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, 8, cfg.MaxRounds())
	assert.Equal(t, "file", cfg.AuditStore())
	assert.Equal(t, "/var/log/opsmedic/audit.jsonl", cfg.AuditPath())
	assert.Equal(t, "debug", cfg.LogLevel())
	assert.Equal(t, "yaml", cfg.ConfigSource())
	assert.Equal(t, "/work/setting.yaml", cfg.SettingPath())

	// absent keys still get defaults
	assert.Equal(t, 4096, cfg.MaxTokens())
	assert.Equal(t, 120, cfg.TimeoutSec())
}

func TestLoadSettings_EnvOverridesYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/setting.yaml", []byte("provider: anthropic\nmax_rounds: 8\n"), 0644))

	t.Setenv("OPSMEDIC_PROVIDER", "openai")
	t.Setenv("OPSMEDIC_MAX_ROUNDS", "4")

	cfg, err := LoadSettings(fs, "/work")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider())
	assert.Equal(t, 4, cfg.MaxRounds())
	assert.Equal(t, "env", cfg.ConfigSource())
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/setting.yaml", []byte("provider: [unclosed"), 0644))

	_, err := LoadSettings(fs, "/work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting.yaml")
}

func TestLoadSettings_InvalidProvider(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/setting.yaml", []byte("provider: mistral\n"), 0644))

	_, err := LoadSettings(fs, "/work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral")
}

func TestLoadSettings_InvalidAuditStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/setting.yaml", []byte("audit_store: redis\n"), 0644))

	_, err := LoadSettings(fs, "/work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestLoadSettings_NonPositiveMaxRounds(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/setting.yaml", []byte("max_rounds: 0\n"), 0644))

	_, err := LoadSettings(fs, "/work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_rounds")
}

func TestCreateDefaultSettings(t *testing.T) {
	data := CreateDefaultSettings()
	assert.Contains(t, string(data), "provider: anthropic")
	assert.Contains(t, string(data), "audit_store: sqlite")
}
