package workcase

import (
	"fmt"
	"time"

	"github.com/opsmedic/opsmedic/internal/domain/model"
	"github.com/opsmedic/opsmedic/internal/domain/model/lock"
)

// StateViolationError reports an operation attempted in a workflow
// state that does not permit it. The case is never mutated when this
// error is returned.
type StateViolationError struct {
	Current model.WorkflowState
	Detail  string
}

func (e *StateViolationError) Error() string {
	return fmt.Sprintf("state violation in %s: %s", e.Current, e.Detail)
}

// Case is the aggregate for one diagnose-and-repair attempt. It owns
// the workflow state, the execution lock and the completion stamp.
// The case is the single enforcement point deciding whether any tool
// may run right now, no matter how confident the model's transcript
// reasoning looks.
type Case struct {
	id          model.CaseID
	state       model.WorkflowState
	lock        *lock.ExecutionLock
	createdAt   time.Time
	completedAt *time.Time
}

// NewCase creates a fresh case in IDLE. Starting a new case is the
// only way to discard a prior lock outside the terminal states.
func NewCase() *Case {
	return &Case{
		id:        model.NewCaseID(),
		state:     model.StateIdle,
		createdAt: time.Now().UTC(),
	}
}

// ReconstructCase rebuilds a case from persisted data
func ReconstructCase(id model.CaseID, state model.WorkflowState, createdAt time.Time, completedAt *time.Time) (*Case, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("invalid workflow state: %q", state)
	}
	return &Case{
		id:          id,
		state:       state,
		createdAt:   createdAt,
		completedAt: completedAt,
	}, nil
}

// ID returns the case identifier
func (c *Case) ID() model.CaseID {
	return c.id
}

// State returns the current workflow state
func (c *Case) State() model.WorkflowState {
	return c.state
}

// CreatedAt returns the case creation time
func (c *Case) CreatedAt() time.Time {
	return c.createdAt
}

// CompletedAt returns the completion stamp, nil until COMPLETED
func (c *Case) CompletedAt() *time.Time {
	return c.completedAt
}

// Lock returns the active execution lock, nil outside LOCKED/EXECUTING
func (c *Case) Lock() *lock.ExecutionLock {
	return c.lock
}

// TransitionTo moves the case to the target state. It fails with a
// StateViolationError when the transition table does not allow the
// edge; the state is unchanged on failure. Reaching COMPLETED stamps
// the completion time; entering any terminal state tears the lock
// down.
func (c *Case) TransitionTo(target model.WorkflowState) error {
	if !target.IsValid() {
		return &StateViolationError{Current: c.state, Detail: fmt.Sprintf("unknown target state %q", target)}
	}
	if !c.state.CanTransitionTo(target) {
		return &StateViolationError{
			Current: c.state,
			Detail:  fmt.Sprintf("transition to %s is not allowed", target),
		}
	}

	c.state = target
	if target == model.StateCompleted {
		now := time.Now().UTC()
		c.completedAt = &now
	}
	if target.IsTerminal() {
		c.lock = nil
	}
	return nil
}

// ActivateLock installs the execution lock for the approved steps and
// moves the case to LOCKED. It is only legal from PLAN_READY; from
// any other state it fails without side effects, which also makes a
// second activation fail instead of silently overwriting the lock.
func (c *Case) ActivateLock(steps []int) error {
	if c.state != model.StatePlanReady {
		return &StateViolationError{
			Current: c.state,
			Detail:  "approval is only accepted in PLAN_READY",
		}
	}
	if c.lock != nil {
		return &StateViolationError{
			Current: c.state,
			Detail:  "an execution lock is already active",
		}
	}

	l, err := lock.NewExecutionLock(steps)
	if err != nil {
		return fmt.Errorf("activate lock: %w", err)
	}
	if err := c.TransitionTo(model.StateLocked); err != nil {
		return err
	}
	c.lock = l
	return nil
}

// CanExecute decides whether a tool of the given capability may run
// now. Audit-class tools are permitted in every non-terminal state.
// Repair-class tools require LOCKED or EXECUTING and a step index
// present in the active lock. The case is never mutated here.
func (c *Case) CanExecute(capability model.Capability, step int) error {
	switch capability {
	case model.CapabilityAudit:
		if c.state.IsTerminal() {
			return &StateViolationError{Current: c.state, Detail: "case is closed"}
		}
		return nil
	case model.CapabilityRepair:
		if c.state != model.StateLocked && c.state != model.StateExecuting {
			return &StateViolationError{
				Current: c.state,
				Detail:  "repair tools require an approved plan (LOCKED or EXECUTING)",
			}
		}
		if c.lock == nil {
			return &StateViolationError{Current: c.state, Detail: "no execution lock is active"}
		}
		if !c.lock.Permits(step) {
			return &StateViolationError{
				Current: c.state,
				Detail:  fmt.Sprintf("step %d is not in the approved set %v", step, c.lock.Steps()),
			}
		}
		return nil
	default:
		return &StateViolationError{Current: c.state, Detail: fmt.Sprintf("unknown capability %q", capability)}
	}
}

// BeginExecution moves LOCKED to EXECUTING before the first approved
// repair step runs. Calling it while already EXECUTING is a no-op so
// the orchestrator does not need to track whether a step ran before.
func (c *Case) BeginExecution() error {
	if c.state == model.StateExecuting {
		return nil
	}
	return c.TransitionTo(model.StateExecuting)
}
