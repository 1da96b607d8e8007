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
	openaiDefaultURL = "https://api.openai.com/v1/chat/completions"
	openaiModel      = "gpt-4o"
)

// OpenAIGateway implements output.ProviderGateway for the OpenAI Chat
// Completions API. Tool calls arrive as a tool_calls array on the
// assistant message with JSON-encoded argument strings; tool results
// go back as separate role:"tool" messages.
type OpenAIGateway struct {
	apiKey     string
	apiURL     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     Logger

	mu    sync.Mutex
	usage conversation.Usage
}

// NewOpenAIGateway creates a gateway for the OpenAI Chat Completions API
func NewOpenAIGateway(cfg Config) *OpenAIGateway {
	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = openaiDefaultURL
	}
	model := cfg.Model
	if model == "" {
		model = openaiModel
	}
	return &OpenAIGateway{
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		model:      model,
		maxTokens:  cfg.maxTokens(),
		httpClient: &http.Client{Timeout: cfg.timeout()},
		logger:     cfg.logger(),
	}
}

// Name returns the vendor identifier
func (g *OpenAIGateway) Name() string {
	return "openai"
}

// Usage returns the accumulated token counters
func (g *OpenAIGateway) Usage() conversation.Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

// Submit sends the conversation and normalizes the response
func (g *OpenAIGateway) Submit(ctx context.Context, req output.SubmitRequest) (*output.SubmitResult, error) {
	messages, err := openaiMessages(req.System, req.History)
	if err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "encode history", Err: err}
	}
	apiReq := openaiRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages:  messages,
		Tools:     openaiTools(req.Tools),
	}

	apiResp, err := g.call(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.usage = g.usage.Add(conversation.Usage{
		InputTokens:  apiResp.Usage.PromptTokens,
		OutputTokens: apiResp.Usage.CompletionTokens,
	})
	g.mu.Unlock()

	return g.normalize(apiResp)
}

func (g *OpenAIGateway) normalize(resp *openaiResponse) (*output.SubmitResult, error) {
	if len(resp.Choices) == 0 {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "response has no choices"}
	}
	choice := resp.Choices[0]

	var outcome conversation.Outcome
	switch choice.FinishReason {
	case "stop":
		outcome = conversation.OutcomeFinal
	case "tool_calls":
		outcome = conversation.OutcomePending
	default:
		return nil, &output.ProviderError{
			Provider: g.Name(),
			Message:  fmt.Sprintf("unexpected finish reason %q", choice.FinishReason),
		}
	}

	turn := conversation.Turn{Role: conversation.RoleAssistant}
	if choice.Message.Content != "" {
		turn.Blocks = append(turn.Blocks, conversation.NewTextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		name, changed := CleanToolName(call.Function.Name)
		if changed {
			g.logger.Warn("sanitized tool name %q to %q", call.Function.Name, name)
		}
		id := call.ID
		if id == "" {
			id = newCallID()
		}
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, &output.ProviderError{
					Provider: g.Name(),
					Message:  fmt.Sprintf("malformed arguments for tool %q", name),
					Err:      err,
				}
			}
		}
		turn.Blocks = append(turn.Blocks, conversation.NewToolCallBlock(id, name, args))
	}

	return &output.SubmitResult{
		Turn:    turn,
		Outcome: outcome,
		Usage: conversation.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (g *OpenAIGateway) call(ctx context.Context, apiReq openaiRequest) (*openaiResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &output.ProviderError{Provider: g.Name(), Message: "request failed", Err: err}
	}
	defer httpResp.Body.Close()

	var apiResp openaiResponse
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

// openaiMessages translates canonical history into the vendor's flat
// message list. A canonical assistant turn with tool calls becomes one
// assistant message; each tool result in the following user turn
// becomes its own role:"tool" message, and user text stays a plain
// user message.
func openaiMessages(system string, history []conversation.Turn) ([]openaiMessage, error) {
	messages := make([]openaiMessage, 0, len(history)+1)
	if system != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: system})
	}
	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleAssistant:
			msg := openaiMessage{Role: "assistant"}
			for _, block := range turn.Blocks {
				switch block.Type {
				case conversation.BlockText:
					msg.Content = block.Text
				case conversation.BlockToolCall:
					args, err := json.Marshal(block.ToolCall.Arguments)
					if err != nil {
						return nil, err
					}
					msg.ToolCalls = append(msg.ToolCalls, openaiToolCall{
						ID:   block.ToolCall.ID,
						Type: "function",
						Function: openaiFunctionCall{
							Name:      block.ToolCall.Name,
							Arguments: string(args),
						},
					})
				}
			}
			messages = append(messages, msg)
		case conversation.RoleUser:
			var text string
			for _, block := range turn.Blocks {
				switch block.Type {
				case conversation.BlockText:
					text += block.Text
				case conversation.BlockToolResult:
					messages = append(messages, openaiMessage{
						Role:       "tool",
						ToolCallID: block.ToolResult.CallID,
						Content:    block.ToolResult.Content,
					})
				}
			}
			if text != "" {
				messages = append(messages, openaiMessage{Role: "user", Content: text})
			}
		}
	}
	return messages, nil
}

func openaiTools(tools []tool.Descriptor) []openaiTool {
	out := make([]openaiTool, 0, len(tools))
	for _, d := range tools {
		schema := d.Schema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		out = append(out, openaiTool{
			Type: "function",
			Function: openaiFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  schema,
			},
		})
	}
	return out
}

// OpenAI Chat Completions API request/response types
type openaiRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Messages  []openaiMessage `json:"messages"`
	Tools     []openaiTool    `json:"tools,omitempty"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openaiFunctionCall `json:"function"`
}

type openaiFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function openaiFunction `json:"function"`
}

type openaiFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
	Error   openaiError    `json:"error,omitempty"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openaiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
