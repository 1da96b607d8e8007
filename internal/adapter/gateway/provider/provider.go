// Package provider implements the per-vendor gateways that translate
// between the canonical turn model and each vendor's wire shape.
// Callers only ever see canonical turns and the final/pending outcome.
package provider

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is the minimal logging interface the gateways need
type Logger interface {
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Config holds the settings shared by all vendor gateways
type Config struct {
	APIKey    string
	BaseURL   string // optional override, mainly for tests and proxies
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Logger    Logger
}

const (
	defaultMaxTokens = 4096
	defaultTimeout   = 2 * time.Minute
)

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c Config) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return nopLogger{}
}

// newCallID synthesizes a call identifier when a vendor omits one, so
// tool results can still be paired positionally with their calls.
func newCallID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return "call_" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
