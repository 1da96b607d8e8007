package toolprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsmedic/opsmedic/internal/domain/model"
	"github.com/opsmedic/opsmedic/internal/domain/model/workcase"
	"github.com/opsmedic/opsmedic/internal/domain/tool"
)

// modelStages are the workflow states the model itself may request.
// LOCKED and EXECUTING are entered by operator approval and step
// execution only, never by the model.
var modelStages = []model.WorkflowState{
	model.StateAudit,
	model.StateAnalysis,
	model.StatePlanReady,
	model.StateCompleted,
	model.StateFailed,
}

// NewWorkflowStageDescriptor builds the audit-class tool the model
// calls to advance the case through the workflow. The descriptor is
// bound to one case; an illegal transition comes back as an ordinary
// tool failure so the model can correct course.
func NewWorkflowStageDescriptor(c *workcase.Case) tool.Descriptor {
	stages := make([]any, 0, len(modelStages))
	for _, s := range modelStages {
		stages = append(stages, string(s))
	}

	return tool.Descriptor{
		Name:       "update_workflow_stage",
		Capability: model.CapabilityAudit,
		Description: "Move the case to the named workflow stage. " +
			"Use ANALYSIS once enough diagnostic evidence is collected, " +
			"PLAN_READY when a numbered repair plan has been presented, " +
			"COMPLETED or FAILED to close the case.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stage": map[string]any{
					"type": "string",
					"enum": stages,
				},
			},
			"required":             []any{"stage"},
			"additionalProperties": false,
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			raw, _ := args["stage"].(string)
			target := model.WorkflowState(raw)

			if err := c.TransitionTo(target); err != nil {
				var sv *workcase.StateViolationError
				if errors.As(err, &sv) {
					return "", fmt.Errorf("cannot move from %s to %s: %s", sv.Current, target, sv.Detail)
				}
				return "", err
			}
			return fmt.Sprintf("workflow stage is now %s", target), nil
		},
	}
}
