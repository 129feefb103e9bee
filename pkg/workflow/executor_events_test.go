package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stellivo/areaflow/pkg/events"
	"github.com/stellivo/areaflow/pkg/mocks"
	"github.com/stellivo/areaflow/pkg/testutil"
)

func publishedTypes(bus *mocks.MockEventBus) []events.EventType {
	var types []events.EventType
	for _, event := range bus.PublishedEvents() {
		types = append(types, event.GetType())
	}

	return types
}

func TestExecutePublishesLifecycleEvents(t *testing.T) {
	f := newFixture(t)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.engine.publisher = bus

	entry := f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID))
	send := f.addNode(t, testutil.CreateReactionNode(f.workflow.ID, f.reaction.ID))
	f.connect(t, entry, send)

	_, err := f.engine.Execute(context.Background(), f.workflow.ID, entry.ID, map[string]any{}, "", f.owner())
	require.NoError(t, err)

	types := publishedTypes(bus)
	assert.Equal(t, []events.EventType{
		events.RunStartedEvent,
		events.NodeExecutionFinishedEvent,
		events.NodeExecutionFinishedEvent,
		events.RunCompletedEvent,
	}, types)
}

func TestExecutePublishesRunFailed(t *testing.T) {
	f := newFixture(t)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.engine.publisher = bus

	// A logic node with no incoming connections is a fatal evaluation error.
	and := f.addNode(t, testutil.CreateLogicNode(f.workflow.ID, "AND"))

	_, err := f.engine.Execute(context.Background(), f.workflow.ID, and.ID, map[string]any{}, "", f.owner())
	require.Error(t, err)

	types := publishedTypes(bus)
	assert.Contains(t, types, events.RunStartedEvent)
	assert.Contains(t, types, events.NodeExecutionFailedEvent)
	assert.Contains(t, types, events.RunFailedEvent)
	assert.NotContains(t, types, events.RunCompletedEvent)
}

func TestTriggerWorkflowsPublishesWorkflowTriggered(t *testing.T) {
	f := newFixture(t)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.engine.publisher = bus

	f.workflow.IsActive = true
	require.NoError(t, f.persist.WorkflowRepository().Save(context.Background(), f.workflow))

	f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID))

	summary, err := f.engine.TriggerWorkflows(context.Background(), f.service.ID, f.action.Name, f.workflow.UserID, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TriggeredCount)

	types := publishedTypes(bus)
	assert.Contains(t, types, events.WorkflowTriggeredEvent)
	assert.Contains(t, types, events.RunStartedEvent)
}
