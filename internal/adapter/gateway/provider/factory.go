package provider

import (
	"fmt"

	"github.com/opsmedic/opsmedic/internal/application/port/output"
)

// New creates the gateway for the named vendor.
// Supported names are "anthropic" and "openai".
func New(name string, cfg Config) (output.ProviderGateway, error) {
	switch name {
	case "anthropic":
		return NewAnthropicGateway(cfg), nil
	case "openai":
		return NewOpenAIGateway(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: anthropic, openai)", name)
	}
}
