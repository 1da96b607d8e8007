// Package orchestrate drives the tool-use loop: submit the transcript
// to the provider, execute any requested tool calls through the
// catalog and the workflow gate, feed the results back, and repeat
// until the model produces a final text answer.
package orchestrate

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/opsmedic/opsmedic/internal/application/port/output"
	"github.com/opsmedic/opsmedic/internal/domain/approval"
	"github.com/opsmedic/opsmedic/internal/domain/model"
	"github.com/opsmedic/opsmedic/internal/domain/model/conversation"
	"github.com/opsmedic/opsmedic/internal/domain/model/workcase"
	"github.com/opsmedic/opsmedic/internal/domain/tool"
)

// Logger is the minimal logging interface the orchestrator needs
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// DefaultMaxRounds bounds the tool-use loop when no limit is
// configured. The loop must terminate regardless of vendor or prompt
// behavior.
const DefaultMaxRounds = 16

// RoundLimitError reports that the tool-use loop hit its round
// ceiling without reaching a final turn.
type RoundLimitError struct {
	Rounds int
}

func (e *RoundLimitError) Error() string {
	return fmt.Sprintf("conversation did not converge within %d rounds", e.Rounds)
}

// Options configures an Orchestrator
type Options struct {
	SystemPrompt string
	MaxRounds    int
	Logger       Logger
}

// Orchestrator ties the provider gateway, tool catalog, workflow
// state machine and audit trail together for one case. It is not
// safe for concurrent use; each case owns its own instance.
type Orchestrator struct {
	gateway      output.ProviderGateway
	catalog      *tool.Catalog
	audit        output.AuditSink
	systemPrompt string
	maxRounds    int
	logger       Logger
}

// New creates an orchestrator. The catalog must be fully registered
// before it is passed in; it is only consulted afterwards.
func New(gateway output.ProviderGateway, catalog *tool.Catalog, audit output.AuditSink, opts Options) *Orchestrator {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	var logger Logger = nopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	return &Orchestrator{
		gateway:      gateway,
		catalog:      catalog,
		audit:        audit,
		systemPrompt: opts.SystemPrompt,
		maxRounds:    maxRounds,
		logger:       logger,
	}
}

// Usage returns the token counters accumulated by the gateway
func (o *Orchestrator) Usage() conversation.Usage {
	return o.gateway.Usage()
}

// HandleMessage processes one operator message. Approval commands are
// routed to the execution gate before anything reaches the model;
// invalid approval syntax is returned to the operator without
// touching the state machine. Everything else is appended to the
// transcript and driven through the tool-use loop.
func (o *Orchestrator) HandleMessage(ctx context.Context, c *workcase.Case, sess *conversation.Session, message string) (string, error) {
	steps, err := approval.Parse(message)
	switch {
	case err == nil:
		if err := c.ActivateLock(steps); err != nil {
			return "", err
		}
		o.logger.Info("execution lock activated for steps %v", steps)
		// Let the model know it may begin the approved steps.
		sess.Append(conversation.NewUserTextTurn(fmt.Sprintf(
			"The operator approved repair steps %v. You may now execute exactly those steps, one at a time.", steps)))
		return o.runLoop(ctx, c, sess)

	case errors.Is(err, approval.ErrNotApproval):
		if c.State() == model.StateIdle {
			if err := c.TransitionTo(model.StateAudit); err != nil {
				return "", err
			}
		}
		sess.Append(conversation.NewUserTextTurn(message))
		return o.runLoop(ctx, c, sess)

	default:
		// Approval keyword with a malformed step list. Reject before
		// the state machine is touched.
		return "", err
	}
}

// runLoop resubmits the transcript until the model produces a final
// text turn, the round ceiling is hit, or the context is canceled.
// Only provider failures escape; every tool-level failure is folded
// into a tool-result block so the model can adapt.
func (o *Orchestrator) runLoop(ctx context.Context, c *workcase.Case, sess *conversation.Session) (string, error) {
	for round := 1; round <= o.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("conversation canceled: %w", err)
		}

		res, err := o.gateway.Submit(ctx, output.SubmitRequest{
			System:  o.systemPrompt,
			History: sess.Turns(),
			Tools:   o.catalog.Descriptors(),
		})
		if err != nil {
			return "", err
		}
		o.logger.Debug("round %d: outcome=%s tokens=%d/%d",
			round, res.Outcome, res.Usage.InputTokens, res.Usage.OutputTokens)

		sess.Append(res.Turn)
		if res.Outcome == conversation.OutcomeFinal {
			return res.Turn.TextContent(), nil
		}

		calls := res.Turn.ToolCalls()
		if len(calls) == 0 {
			return "", &output.ProviderError{
				Provider: o.gateway.Name(),
				Message:  "pending outcome without tool calls",
			}
		}

		// Execute strictly one at a time, in vendor order. Handlers
		// may share host resources and the transcript order must
		// match the order of real-world effects.
		blocks := make([]conversation.ContentBlock, 0, len(calls))
		for _, call := range calls {
			content := o.executeCall(ctx, c, call)
			blocks = append(blocks, conversation.NewToolResultBlock(call.ID, content))
		}
		sess.Append(conversation.Turn{Role: conversation.RoleUser, Blocks: blocks})
	}

	return "", &RoundLimitError{Rounds: o.maxRounds}
}

// executeCall resolves one tool call to its result string. Lookup
// misses, permission denials, argument rejections and handler
// failures all become result text; nothing here aborts the loop.
func (o *Orchestrator) executeCall(ctx context.Context, c *workcase.Case, call conversation.ToolCall) string {
	desc, ok := o.catalog.Lookup(call.Name)
	if !ok {
		o.logger.Warn("model requested unknown tool %q", call.Name)
		return fmt.Sprintf("ERROR: unknown tool %q", call.Name)
	}

	step := 0
	if desc.Capability == model.CapabilityRepair {
		var err error
		step, err = stepFromArgs(call.Arguments)
		if err != nil {
			return fmt.Sprintf("DENIED: repair call for %s rejected: %v", call.Name, err)
		}
	}

	if err := c.CanExecute(desc.Capability, step); err != nil {
		o.logger.Info("tool %s denied: %v", call.Name, err)
		return "DENIED: " + err.Error()
	}

	if err := o.catalog.ValidateArguments(call.Name, call.Arguments); err != nil {
		return "ERROR: " + err.Error()
	}

	if desc.Capability == model.CapabilityRepair {
		if err := c.BeginExecution(); err != nil {
			return "DENIED: " + err.Error()
		}
	}

	result, err := invokeHandler(ctx, desc, call.Arguments)

	if desc.Capability == model.CapabilityRepair {
		o.recordAudit(ctx, c, call, result, err)
	}

	if err != nil {
		o.logger.Warn("tool %s failed: %v", call.Name, err)
		return fmt.Sprintf("ERROR: tool %s failed: %v", call.Name, err)
	}
	return result
}

// invokeHandler runs the handler and converts a panic into an error
// so a misbehaving tool cannot take the session down.
func invokeHandler(ctx context.Context, desc tool.Descriptor, args map[string]any) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return desc.Handler(ctx, args)
}

// recordAudit appends one entry per repair execution. A failing sink
// is logged but does not fail the call; the result already happened.
func (o *Orchestrator) recordAudit(ctx context.Context, c *workcase.Case, call conversation.ToolCall, result string, execErr error) {
	entry := output.AuditEntry{
		ID:        newAuditID(),
		CaseID:    c.ID().String(),
		ToolName:  call.Name,
		Input:     call.Arguments,
		Output:    result,
		Success:   execErr == nil,
		Timestamp: time.Now().UTC(),
	}
	if execErr != nil {
		entry.Output = execErr.Error()
	}
	if err := o.audit.Record(ctx, entry); err != nil {
		o.logger.Error("audit record for %s failed: %v", call.Name, err)
	}
}

// stepFromArgs extracts the mandatory plan step index from a repair
// call's arguments. JSON numbers arrive as float64.
func stepFromArgs(args map[string]any) (int, error) {
	raw, ok := args["step"]
	if !ok {
		return 0, errors.New("missing 'step' argument")
	}
	switch v := raw.(type) {
	case float64:
		step := int(v)
		if float64(step) != v || step <= 0 {
			return 0, fmt.Errorf("'step' must be a positive integer, got %v", v)
		}
		return step, nil
	case int:
		if v <= 0 {
			return 0, fmt.Errorf("'step' must be a positive integer, got %d", v)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("'step' must be a number, got %T", raw)
	}
}

func newAuditID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return "AUD-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
