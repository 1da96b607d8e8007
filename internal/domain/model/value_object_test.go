package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseID(t *testing.T) {
	t.Run("NewCaseID generates unique IDs", func(t *testing.T) {
		id1 := NewCaseID()
		id2 := NewCaseID()
		assert.NotEmpty(t, id1.String())
		assert.False(t, id1.Equals(id2))
	})

	t.Run("NewCaseIDFromString rejects empty", func(t *testing.T) {
		_, err := NewCaseIDFromString("")
		assert.Error(t, err)
	})

	t.Run("NewCaseIDFromString preserves value", func(t *testing.T) {
		id, err := NewCaseIDFromString("case-123")
		require.NoError(t, err)
		assert.Equal(t, "case-123", id.String())
	})
}

func TestCapability(t *testing.T) {
	assert.True(t, CapabilityAudit.IsValid())
	assert.True(t, CapabilityRepair.IsValid())
	assert.False(t, Capability("admin").IsValid())
	assert.Equal(t, "repair", CapabilityRepair.String())
}

func TestWorkflowStateTransitions(t *testing.T) {
	tests := []struct {
		from    WorkflowState
		allowed []WorkflowState
	}{
		{StateIdle, []WorkflowState{StateAudit}},
		{StateAudit, []WorkflowState{StateAnalysis, StateCompleted}},
		{StateAnalysis, []WorkflowState{StatePlanReady, StateAudit}},
		{StatePlanReady, []WorkflowState{StateLocked, StateAudit}},
		{StateLocked, []WorkflowState{StateExecuting}},
		{StateExecuting, []WorkflowState{StateCompleted, StateFailed}},
		{StateCompleted, []WorkflowState{}},
		{StateFailed, []WorkflowState{StateAudit}},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.AllowedTransitions())
		})
	}
}

// TestWorkflowStateTransitionClosure verifies that every transition
// not present in the allowed-target table is rejected.
func TestWorkflowStateTransitionClosure(t *testing.T) {
	for _, from := range AllWorkflowStates() {
		allowed := map[WorkflowState]bool{}
		for _, to := range from.AllowedTransitions() {
			allowed[to] = true
		}
		for _, to := range AllWorkflowStates() {
			got := from.CanTransitionTo(to)
			assert.Equal(t, allowed[to], got, "%s -> %s", from, to)
		}
	}
}

func TestWorkflowStateIsTerminal(t *testing.T) {
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateLocked.IsTerminal())
	assert.False(t, StateIdle.IsTerminal())
}

func TestWorkflowStateIsValid(t *testing.T) {
	for _, s := range AllWorkflowStates() {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, WorkflowState("REBOOTING").IsValid())
}
