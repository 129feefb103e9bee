package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
	"github.com/stellivo/areaflow/pkg/testutil"
)

func activate(t *testing.T, f *fixture, wf *models.Workflow) {
	t.Helper()

	wf.IsActive = true
	require.NoError(t, f.persist.WorkflowRepository().Save(context.Background(), wf))
}

func TestTriggerWorkflowsMatchesTriggerNodesOnly(t *testing.T) {
	f := newFixture(t)
	activate(t, f, f.workflow)

	entry := f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID))

	// Same action but not flagged as trigger.
	f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID, testutil.WithoutTrigger()))

	summary, err := f.engine.TriggerWorkflows(context.Background(), f.service.ID, f.action.Name, f.workflow.UserID, map[string]any{"x": 1})
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.TriggeredCount)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, entry.ID, summary.Results[0].NodeID)
	assert.True(t, summary.Results[0].Success)
	assert.NotEmpty(t, summary.Results[0].ExecutionID)
}

func TestTriggerWorkflowsSkipsInactiveWorkflows(t *testing.T) {
	f := newFixture(t)

	// Workflow stays inactive.
	f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID))

	summary, err := f.engine.TriggerWorkflows(context.Background(), f.service.ID, f.action.Name, f.workflow.UserID, nil)
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.TriggeredCount)
	assert.Empty(t, summary.Results)
}

func TestTriggerWorkflowsSkipsOtherUsers(t *testing.T) {
	f := newFixture(t)
	activate(t, f, f.workflow)

	f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID))

	summary, err := f.engine.TriggerWorkflows(context.Background(), f.service.ID, f.action.Name, f.workflow.UserID+1, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TriggeredCount)
}

func TestTriggerWorkflowsUnknownActionIsFatal(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.TriggerWorkflows(context.Background(), f.service.ID, "no_such_action", f.workflow.UserID, nil)
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestTriggerWorkflowsPassesPayloadAsInput(t *testing.T) {
	f := newFixture(t)
	activate(t, f, f.workflow)

	entry := f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID))
	send := f.addNode(t, testutil.CreateReactionNode(f.workflow.ID, f.reaction.ID))
	f.connect(t, entry, send)

	payload := map[string]any{"text": "hello", "channel": "general"}

	summary, err := f.engine.TriggerWorkflows(context.Background(), f.service.ID, f.action.Name, f.workflow.UserID, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TriggeredCount)

	require.Equal(t, 1, f.dispatcher.callCount())
	assert.Equal(t, payload, f.dispatcher.calls[0].Input)
}
