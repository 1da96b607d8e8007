package config

import "time"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (YAML, ENV, defaults)
// and ensures the app layer doesn't depend on infrastructure details.
type Config interface {
	// Provider settings
	Provider() string       // Vendor name: "anthropic" or "openai" (OPSMEDIC_PROVIDER)
	Model() string          // Model identifier, empty means vendor default (OPSMEDIC_MODEL)
	APIKey() string         // Vendor API key (OPSMEDIC_API_KEY)
	BaseURL() string        // API endpoint override, mainly for proxies (OPSMEDIC_BASE_URL)
	MaxTokens() int         // Per-call completion token cap (OPSMEDIC_MAX_TOKENS)
	TimeoutSec() int        // Per-call HTTP timeout in seconds (OPSMEDIC_TIMEOUT_SEC)
	Timeout() time.Duration // Per-call HTTP timeout as Duration

	// Execution limits
	MaxRounds() int // Maximum provider rounds per message before aborting

	// Audit settings
	AuditStore() string // Audit backend: "sqlite", "file", or "memory" (OPSMEDIC_AUDIT_STORE)
	AuditPath() string  // Path for the sqlite or file backend (OPSMEDIC_AUDIT_PATH)

	// Logging
	LogLevel() string // Stderr log level: debug, info, warn, error (OPSMEDIC_LOG_LEVEL)

	// Metadata
	ConfigSource() string // Source of configuration: "yaml", "env", or "default"
	SettingPath() string  // Path to setting.yaml if loaded from file
}

// AppConfig is the concrete implementation of Config interface.
// It holds all configuration values loaded from various sources.
type AppConfig struct {
	provider   string
	model      string
	apiKey     string
	baseURL    string
	maxTokens  int
	timeoutSec int

	maxRounds int

	auditStore string
	auditPath  string

	logLevel string

	configSource string
	settingPath  string
}

// Provider returns the vendor name
func (c *AppConfig) Provider() string {
	return c.provider
}

// Model returns the model identifier
func (c *AppConfig) Model() string {
	return c.model
}

// APIKey returns the vendor API key
func (c *AppConfig) APIKey() string {
	return c.apiKey
}

// BaseURL returns the API endpoint override
func (c *AppConfig) BaseURL() string {
	return c.baseURL
}

// MaxTokens returns the per-call completion token cap
func (c *AppConfig) MaxTokens() int {
	return c.maxTokens
}

// TimeoutSec returns the HTTP timeout in seconds
func (c *AppConfig) TimeoutSec() int {
	return c.timeoutSec
}

// Timeout returns the HTTP timeout as a Duration
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.timeoutSec) * time.Second
}

// MaxRounds returns the maximum provider rounds per message
func (c *AppConfig) MaxRounds() int {
	return c.maxRounds
}

// AuditStore returns the audit backend name
func (c *AppConfig) AuditStore() string {
	return c.auditStore
}

// AuditPath returns the path for the sqlite or file backend
func (c *AppConfig) AuditPath() string {
	return c.auditPath
}

// LogLevel returns the stderr log level
func (c *AppConfig) LogLevel() string {
	return c.logLevel
}

// ConfigSource returns the source of configuration
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the path to setting.yaml if loaded from file
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}

// NewAppConfig creates a new AppConfig with the given values.
// This is typically called by the infrastructure layer after loading and merging configurations.
func NewAppConfig(
	provider, model, apiKey, baseURL string,
	maxTokens, timeoutSec, maxRounds int,
	auditStore, auditPath string,
	logLevel string,
	configSource, settingPath string,
) *AppConfig {
	return &AppConfig{
		provider:     provider,
		model:        model,
		apiKey:       apiKey,
		baseURL:      baseURL,
		maxTokens:    maxTokens,
		timeoutSec:   timeoutSec,
		maxRounds:    maxRounds,
		auditStore:   auditStore,
		auditPath:    auditPath,
		logLevel:     logLevel,
		configSource: configSource,
		settingPath:  settingPath,
	}
}
