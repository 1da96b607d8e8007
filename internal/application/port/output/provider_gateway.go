package output

import (
	"context"
	"fmt"

	"github.com/opsmedic/opsmedic/internal/domain/model/conversation"
	"github.com/opsmedic/opsmedic/internal/domain/tool"
)

// ProviderGateway is the interface for one LLM vendor integration.
// Implementations translate the canonical history and tool catalog
// into the vendor's wire shape and normalize the response back into
// a canonical turn; callers never see vendor-specific shapes.
type ProviderGateway interface {
	// Submit sends the conversation to the vendor and returns the
	// normalized assistant turn. Network, auth and malformed-response
	// failures return a *ProviderError and are never retried here.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)

	// Usage returns the token counters accumulated across all calls.
	// This is advisory cost bookkeeping, not part of correctness.
	Usage() conversation.Usage

	// Name returns the vendor identifier (e.g. "anthropic", "openai")
	Name() string
}

// SubmitRequest carries everything a vendor call needs
type SubmitRequest struct {
	System  string
	History []conversation.Turn
	Tools   []tool.Descriptor
}

// SubmitResult is the normalized outcome of one vendor call
type SubmitResult struct {
	Turn    conversation.Turn
	Outcome conversation.Outcome
	Usage   conversation.Usage
}

// ProviderError reports a failed or unintelligible vendor exchange.
// It is the only error allowed to escape the orchestrator loop; all
// tool-level failures are converted to tool-result strings instead.
type ProviderError struct {
	Provider string
	Status   int // HTTP status, 0 when the request never completed
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: %s (status %d)", e.Provider, e.Message, e.Status)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
