package lock

import (
	"errors"
	"fmt"
	"time"
)

// ExecutionLock is the bounded permission produced by an operator
// approval. It names exactly which plan step indices may be executed
// by repair-class tools. The lock is scoped to one plan: it exists
// only while the owning case is LOCKED or EXECUTING and is discarded
// when the case ends or a new case starts.
type ExecutionLock struct {
	steps       []int
	approved    map[int]struct{}
	activatedAt time.Time
}

// NewExecutionLock creates a lock over the given step indices.
// Steps must be positive; duplicates are rejected because the parser
// already de-duplicates and a duplicate here indicates a caller bug.
func NewExecutionLock(steps []int) (*ExecutionLock, error) {
	if len(steps) == 0 {
		return nil, errors.New("execution lock requires at least one approved step")
	}
	approved := make(map[int]struct{}, len(steps))
	ordered := make([]int, 0, len(steps))
	for _, step := range steps {
		if step <= 0 {
			return nil, fmt.Errorf("step index must be positive: %d", step)
		}
		if _, dup := approved[step]; dup {
			return nil, fmt.Errorf("duplicate step index: %d", step)
		}
		approved[step] = struct{}{}
		ordered = append(ordered, step)
	}
	return &ExecutionLock{
		steps:       ordered,
		approved:    approved,
		activatedAt: time.Now().UTC(),
	}, nil
}

// Permits reports whether the given step index is approved
func (l *ExecutionLock) Permits(step int) bool {
	_, ok := l.approved[step]
	return ok
}

// Steps returns the approved step indices in approval order
func (l *ExecutionLock) Steps() []int {
	out := make([]int, len(l.steps))
	copy(out, l.steps)
	return out
}

// ActivatedAt returns the lock activation time
func (l *ExecutionLock) ActivatedAt() time.Time {
	return l.activatedAt
}
