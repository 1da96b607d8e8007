package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CaseID represents a unique identifier for a repair case
type CaseID struct {
	value string
}

// NewCaseID creates a new CaseID
func NewCaseID() CaseID {
	return CaseID{value: uuid.New().String()}
}

// NewCaseIDFromString creates a CaseID from an existing string
func NewCaseIDFromString(id string) (CaseID, error) {
	if id == "" {
		return CaseID{}, errors.New("case ID cannot be empty")
	}
	return CaseID{value: id}, nil
}

// String returns the string representation
func (c CaseID) String() string {
	return c.value
}

// Equals checks if two CaseIDs are equal
func (c CaseID) Equals(other CaseID) bool {
	return c.value == other.value
}

// Capability classifies a tool as read-only or mutating
type Capability string

const (
	CapabilityAudit  Capability = "audit"
	CapabilityRepair Capability = "repair"
)

// String returns the string representation
func (c Capability) String() string {
	return string(c)
}

// IsValid validates the capability
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityAudit, CapabilityRepair:
		return true
	default:
		return false
	}
}

// WorkflowState represents the lifecycle state of a repair case
type WorkflowState string

const (
	StateIdle      WorkflowState = "IDLE"
	StateAudit     WorkflowState = "AUDIT"
	StateAnalysis  WorkflowState = "ANALYSIS"
	StatePlanReady WorkflowState = "PLAN_READY"
	StateLocked    WorkflowState = "LOCKED"
	StateExecuting WorkflowState = "EXECUTING"
	StateCompleted WorkflowState = "COMPLETED"
	StateFailed    WorkflowState = "FAILED"
)

// String returns the string representation
func (s WorkflowState) String() string {
	return string(s)
}

// IsValid validates the workflow state
func (s WorkflowState) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether the state ends the current case.
// FAILED is terminal for the case even though a new attempt may
// re-enter AUDIT afterwards.
func (s WorkflowState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// allowedTransitions is the single source of truth for the case
// lifecycle. A repair-class tool can only ever run behind the
// PLAN_READY -> LOCKED edge, which requires an operator approval.
var allowedTransitions = map[WorkflowState][]WorkflowState{
	StateIdle:      {StateAudit},
	StateAudit:     {StateAnalysis, StateCompleted},
	StateAnalysis:  {StatePlanReady, StateAudit},
	StatePlanReady: {StateLocked, StateAudit},
	StateLocked:    {StateExecuting},
	StateExecuting: {StateCompleted, StateFailed},
	StateCompleted: {},
	StateFailed:    {StateAudit},
}

// CanTransitionTo checks if a workflow state transition is valid
func (s WorkflowState) CanTransitionTo(next WorkflowState) bool {
	allowed, exists := allowedTransitions[s]
	if !exists {
		return false
	}
	for _, candidate := range allowed {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the permitted target states from s
func (s WorkflowState) AllowedTransitions() []WorkflowState {
	allowed := allowedTransitions[s]
	out := make([]WorkflowState, len(allowed))
	copy(out, allowed)
	return out
}

// AllWorkflowStates returns every defined workflow state
func AllWorkflowStates() []WorkflowState {
	return []WorkflowState{
		StateIdle, StateAudit, StateAnalysis, StatePlanReady,
		StateLocked, StateExecuting, StateCompleted, StateFailed,
	}
}

// Timestamp represents a point in time
type Timestamp struct {
	value time.Time
}

// NewTimestamp creates a new Timestamp with current time
func NewTimestamp() Timestamp {
	return Timestamp{value: time.Now()}
}

// NewTimestampFromTime creates a Timestamp from a time.Time value
func NewTimestampFromTime(t time.Time) Timestamp {
	return Timestamp{value: t}
}

// Value returns the time.Time value
func (t Timestamp) Value() time.Time {
	return t.value
}

// Before checks if this timestamp is before another
func (t Timestamp) Before(other Timestamp) bool {
	return t.value.Before(other.value)
}

// After checks if this timestamp is after another
func (t Timestamp) After(other Timestamp) bool {
	return t.value.After(other.value)
}

// String returns the string representation
func (t Timestamp) String() string {
	return t.value.Format(time.RFC3339)
}
