package workcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmedic/opsmedic/internal/domain/model"
)

func advanceTo(t *testing.T, c *Case, states ...model.WorkflowState) {
	t.Helper()
	for _, s := range states {
		require.NoError(t, c.TransitionTo(s))
	}
}

func TestNewCaseStartsIdle(t *testing.T) {
	c := NewCase()
	assert.Equal(t, model.StateIdle, c.State())
	assert.Nil(t, c.Lock())
	assert.Nil(t, c.CompletedAt())
	assert.NotEmpty(t, c.ID().String())
}

func TestTransitionToRejectsInvalidEdges(t *testing.T) {
	c := NewCase()

	err := c.TransitionTo(model.StateLocked)
	require.Error(t, err)

	var sv *StateViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, model.StateIdle, sv.Current)
	assert.Equal(t, model.StateIdle, c.State(), "state must be unchanged on failure")
}

func TestTransitionToRejectsUnknownState(t *testing.T) {
	c := NewCase()
	err := c.TransitionTo(model.WorkflowState("REBOOT"))
	assert.Error(t, err)
	assert.Equal(t, model.StateIdle, c.State())
}

func TestCompletedStampsTimestamp(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit, model.StateCompleted)

	require.NotNil(t, c.CompletedAt())
	assert.Equal(t, model.StateCompleted, c.State())
}

func TestFailedAllowsNewAttempt(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit, model.StateAnalysis, model.StatePlanReady)
	require.NoError(t, c.ActivateLock([]int{1}))
	advanceTo(t, c, model.StateExecuting, model.StateFailed)

	assert.Nil(t, c.Lock(), "terminal state tears the lock down")
	require.NoError(t, c.TransitionTo(model.StateAudit))
	assert.Equal(t, model.StateAudit, c.State())
}

func TestActivateLock(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit, model.StateAnalysis, model.StatePlanReady)

	require.NoError(t, c.ActivateLock([]int{1, 2}))
	assert.Equal(t, model.StateLocked, c.State())
	require.NotNil(t, c.Lock())
	assert.Equal(t, []int{1, 2}, c.Lock().Steps())
}

func TestActivateLockOutsidePlanReadyFails(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit)

	err := c.ActivateLock([]int{1})
	assert.Error(t, err)
	assert.Equal(t, model.StateAudit, c.State())
	assert.Nil(t, c.Lock(), "no partial lock on failure")
}

func TestDoubleActivationFails(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit, model.StateAnalysis, model.StatePlanReady)
	require.NoError(t, c.ActivateLock([]int{1, 2}))

	err := c.ActivateLock([]int{3})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, c.Lock().Steps(), "existing lock must not be overwritten")
	assert.Equal(t, model.StateLocked, c.State())
}

func TestActivateLockRejectsBadSteps(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit, model.StateAnalysis, model.StatePlanReady)

	assert.Error(t, c.ActivateLock(nil))
	assert.Error(t, c.ActivateLock([]int{0}))
	assert.Equal(t, model.StatePlanReady, c.State(), "failed activation must not transition")
}

func TestCanExecuteAudit(t *testing.T) {
	c := NewCase()
	assert.NoError(t, c.CanExecute(model.CapabilityAudit, 0))

	advanceTo(t, c, model.StateAudit)
	assert.NoError(t, c.CanExecute(model.CapabilityAudit, 0))

	advanceTo(t, c, model.StateCompleted)
	assert.Error(t, c.CanExecute(model.CapabilityAudit, 0))
}

func TestCanExecuteRepair(t *testing.T) {
	c := NewCase()

	// Denied in every state before LOCKED.
	assert.Error(t, c.CanExecute(model.CapabilityRepair, 1))
	advanceTo(t, c, model.StateAudit, model.StateAnalysis, model.StatePlanReady)
	assert.Error(t, c.CanExecute(model.CapabilityRepair, 1))

	require.NoError(t, c.ActivateLock([]int{1, 2}))
	assert.NoError(t, c.CanExecute(model.CapabilityRepair, 1))
	assert.NoError(t, c.CanExecute(model.CapabilityRepair, 2))
	assert.Error(t, c.CanExecute(model.CapabilityRepair, 3), "step outside approved set")

	require.NoError(t, c.BeginExecution())
	assert.NoError(t, c.CanExecute(model.CapabilityRepair, 1))
}

// Repeated denied attempts must not move the state machine.
func TestRepairDenialIsIdempotent(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit)

	for i := 0; i < 100; i++ {
		err := c.CanExecute(model.CapabilityRepair, 1)
		require.Error(t, err)
	}
	assert.Equal(t, model.StateAudit, c.State())
	assert.Nil(t, c.Lock())
}

func TestBeginExecutionIsIdempotentWhileExecuting(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit, model.StateAnalysis, model.StatePlanReady)
	require.NoError(t, c.ActivateLock([]int{1}))

	require.NoError(t, c.BeginExecution())
	require.NoError(t, c.BeginExecution())
	assert.Equal(t, model.StateExecuting, c.State())
}

func TestEndToEndLifecycle(t *testing.T) {
	c := NewCase()
	advanceTo(t, c, model.StateAudit, model.StateAnalysis, model.StatePlanReady)

	require.NoError(t, c.ActivateLock([]int{1, 2}))
	assert.Equal(t, model.StateLocked, c.State())

	assert.Error(t, c.CanExecute(model.CapabilityRepair, 3))
	assert.NoError(t, c.CanExecute(model.CapabilityRepair, 1))
	assert.NoError(t, c.CanExecute(model.CapabilityRepair, 2))

	require.NoError(t, c.TransitionTo(model.StateExecuting))
	require.NoError(t, c.TransitionTo(model.StateCompleted))
	assert.Nil(t, c.Lock(), "lock cleared on completion")
	require.NotNil(t, c.CompletedAt())
}

func TestReconstructCase(t *testing.T) {
	orig := NewCase()
	c, err := ReconstructCase(orig.ID(), model.StateAnalysis, orig.CreatedAt(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.StateAnalysis, c.State())

	_, err = ReconstructCase(orig.ID(), model.WorkflowState("bogus"), orig.CreatedAt(), nil)
	assert.Error(t, err)
}
