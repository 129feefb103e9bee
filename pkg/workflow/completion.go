package workflow

import (
	"context"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// CompletionTracker decides when a run has finished. A run is complete once
// none of its node executions is RUNNING or PENDING; node-level FAILED rows
// do not keep a run open and do not fail it.
type CompletionTracker struct {
	executions persistence.ExecutionRepository
}

func NewCompletionTracker(executions persistence.ExecutionRepository) *CompletionTracker {
	return &CompletionTracker{executions: executions}
}

func (t *CompletionTracker) IsRunComplete(ctx context.Context, runID string) (bool, error) {
	nodeExecutions, err := t.executions.NodeExecutionsByRun(ctx, runID)
	if err != nil {
		return false, err
	}

	for _, nodeExecution := range nodeExecutions {
		if nodeExecution.Status == models.ExecutionStatusRunning || nodeExecution.Status == models.ExecutionStatusPending {
			return false, nil
		}
	}

	return true, nil
}
