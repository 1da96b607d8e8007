package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/opsmedic/opsmedic/internal/application/port/output"
	"github.com/opsmedic/opsmedic/internal/domain/model/conversation"
	"github.com/opsmedic/opsmedic/internal/domain/tool"
)

const (
	anthropicDefaultURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
	anthropicModel      = "claude-sonnet-4-20250514"
)

// AnthropicGateway implements output.ProviderGateway for the
// Anthropic Messages API. Tool calls arrive as tool_use content
// blocks inside a single assistant message; tool results are sent
// back as tool_result blocks inside a user message.
type AnthropicGateway struct {
	apiKey     string
	apiURL     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     Logger

	mu    sync.Mutex
	usage conversation.Usage
}

// NewAnthropicGateway creates a gateway for the Anthropic Messages API
func NewAnthropicGateway(cfg Config) *AnthropicGateway {
	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = anthropicDefaultURL
	}
	model := cfg.Model
	if model == "" {
		model = anthropicModel
	}
	return &AnthropicGateway{
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		model:      model,
		maxTokens:  cfg.maxTokens(),
		httpClient: &http.Client{Timeout: cfg.timeout()},
		logger:     cfg.logger(),
	}
}

// Name returns the vendor identifier
func (g *AnthropicGateway) Name() string {
	return "anthropic"
}

// Usage returns the accumulated token counters
func (g *AnthropicGateway) Usage() conversation.Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

// Submit sends the conversation and normalizes the response
func (g *AnthropicGateway) Submit(ctx context.Context, req output.SubmitRequest) (*output.SubmitResult, error) {
	apiReq := anthropicRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    req.System,
		Messages:  anthropicMessages(req.History),
		Tools:     anthropicTools(req.Tools),
	}

	apiResp, err := g.call(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.usage = g.usage.Add(conversation.Usage{
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
	})
	g.mu.Unlock()

	return g.normalize(apiResp)
}

func (g *AnthropicGateway) normalize(resp *anthropicResponse) (*output.SubmitResult, error) {
	var outcome conversation.Outcome
	switch resp.StopReason {
	case "end_turn", "stop_sequence":
		outcome = conversation.OutcomeFinal
	case "tool_use":
		outcome = conversation.OutcomePending
	default:
		return nil, &output.ProviderError{
			Provider: g.Name(),
			Message:  fmt.Sprintf("unexpected stop reason %q", resp.StopReason),
		}
	}

	turn := conversation.Turn{Role: conversation.RoleAssistant}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			turn.Blocks = append(turn.Blocks, conversation.NewTextBlock(block.Text))
		case "tool_use":
			name, changed := CleanToolName(block.Name)
			if changed {
				g.logger.Warn("sanitized tool name %q to %q", block.Name, name)
			}
			id := block.ID
			if id == "" {
				id = newCallID()
			}
			args := block.Input
			if args == nil {
				args = map[string]any{}
			}
			turn.Blocks = append(turn.Blocks, conversation.NewToolCallBlock(id, name, args))
		default:
			return nil, &output.ProviderError{
				Provider: g.Name(),
				Message:  fmt.Sprintf("unexpected content block type %q", block.Type),
			}
		}
	}

	return &output.SubmitResult{
		Turn:    turn,
		Outcome: outcome,
		Usage: conversation.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

func (g *AnthropicGateway) call(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "request failed", Err: err}
	}
	defer httpResp.Body.Close()

	var apiResp anthropicResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&apiResp); err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Status: httpResp.StatusCode, Message: "decode response", Err: err}
	}
	if httpResp.StatusCode != http.StatusOK {
		msg := apiResp.Error.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, &output.ProviderError{Provider: g.Name(), Status: httpResp.StatusCode, Message: msg}
	}
	return &apiResp, nil
}

// anthropicMessages translates canonical history into the vendor's
// message array. Tool results live inside user messages as
// tool_result blocks referencing the originating tool_use id.
func anthropicMessages(history []conversation.Turn) []anthropicMessage {
	messages := make([]anthropicMessage, 0, len(history))
	for _, turn := range history {
		msg := anthropicMessage{Role: string(turn.Role)}
		for _, block := range turn.Blocks {
			switch block.Type {
			case conversation.BlockText:
				msg.Content = append(msg.Content, anthropicContent{Type: "text", Text: block.Text})
			case conversation.BlockToolCall:
				msg.Content = append(msg.Content, anthropicContent{
					Type:  "tool_use",
					ID:    block.ToolCall.ID,
					Name:  block.ToolCall.Name,
					Input: block.ToolCall.Arguments,
				})
			case conversation.BlockToolResult:
				msg.Content = append(msg.Content, anthropicContent{
					Type:      "tool_result",
					ToolUseID: block.ToolResult.CallID,
					Content:   block.ToolResult.Content,
				})
			}
		}
		messages = append(messages, msg)
	}
	return messages
}

// anthropicTools exposes descriptors as schema/description pairs; the
// handler reference never crosses the wire.
func anthropicTools(tools []tool.Descriptor) []anthropicTool {
	out := make([]anthropicTool, 0, len(tools))
	for _, d := range tools {
		schema := d.Schema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		out = append(out, anthropicTool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: schema,
		})
	}
	return out
}

// Anthropic Messages API request/response types
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Usage      anthropicUsage     `json:"usage"`
	Error      anthropicError     `json:"error,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
