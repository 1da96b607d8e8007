package conversation

import "strings"

// Role identifies the author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates the content block union
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolCall   BlockType = "tool_call"
	BlockToolResult BlockType = "tool_result"
)

// ToolCall is a single tool invocation requested by the model.
// ID is the vendor-assigned call identifier; when a vendor omits it
// the gateway synthesizes one so results can still be paired.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult carries the outcome of one tool call back to the model.
// CallID references the ToolCall.ID it answers; pairing is positional
// per call, never by tool name.
type ToolResult struct {
	CallID  string
	Content string
}

// ContentBlock is the vendor-agnostic tagged union of turn content.
// Exactly one of the payload fields is meaningful, selected by Type.
type ContentBlock struct {
	Type       BlockType
	Text       string
	ToolCall   ToolCall
	ToolResult ToolResult
}

// NewTextBlock creates a text content block
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// NewToolCallBlock creates a tool-call content block
func NewToolCallBlock(id, name string, args map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolCall, ToolCall: ToolCall{ID: id, Name: name, Arguments: args}}
}

// NewToolResultBlock creates a tool-result content block
func NewToolResultBlock(callID, content string) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolResult: ToolResult{CallID: callID, Content: content}}
}

// Turn is one exchange in the canonical representation, independent
// of which vendor produced or will consume it.
type Turn struct {
	Role   Role
	Blocks []ContentBlock
}

// NewUserTextTurn creates a user turn holding a single text block
func NewUserTextTurn(text string) Turn {
	return Turn{Role: RoleUser, Blocks: []ContentBlock{NewTextBlock(text)}}
}

// TextContent concatenates all text blocks of the turn
func (t Turn) TextContent() string {
	var sb strings.Builder
	for _, b := range t.Blocks {
		if b.Type == BlockText {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolCalls returns the tool-call blocks in vendor order
func (t Turn) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, b := range t.Blocks {
		if b.Type == BlockToolCall {
			calls = append(calls, b.ToolCall)
		}
	}
	return calls
}

// HasToolCalls reports whether the turn requests any tool execution
func (t Turn) HasToolCalls() bool {
	for _, b := range t.Blocks {
		if b.Type == BlockToolCall {
			return true
		}
	}
	return false
}

// Outcome is the canonical completion signal of a submitted turn
type Outcome string

const (
	// OutcomeFinal means the model produced plain text and the
	// conversation round is complete.
	OutcomeFinal Outcome = "final"
	// OutcomePending means the model requested tool calls that must
	// be executed before the conversation can continue.
	OutcomePending Outcome = "pending"
)

// Usage carries advisory token accounting for one gateway call
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the element-wise sum of two usage counters
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}
