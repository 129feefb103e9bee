package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence/memory"
	"github.com/stellivo/areaflow/pkg/testutil"
)

func seedConnectionService(t *testing.T) (*Connection, *models.Workflow, *models.Node, *models.Node) {
	t.Helper()

	persist := memory.NewPersistence()
	ctx := context.Background()

	wf := testutil.CreateTestWorkflow()
	require.NoError(t, persist.WorkflowRepository().Save(ctx, wf))

	source := testutil.CreateActionNode(wf.ID, "action-1")
	require.NoError(t, persist.NodeRepository().Save(ctx, source))

	target := testutil.CreateActionNode(wf.ID, "action-1", testutil.WithoutTrigger())
	require.NoError(t, persist.NodeRepository().Save(ctx, target))

	return NewConnection(persist), wf, source, target
}

func TestCreateConnectionDefaultsChannel(t *testing.T) {
	svc, wf, source, target := seedConnectionService(t)

	connection, err := svc.CreateConnection(context.Background(), wf.ID, CreateConnectionRequest{
		SourceNodeID: source.ID,
		TargetNodeID: target.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSuccess, connection.Channel)
}

func TestCreateConnectionRejectsUnknownChannel(t *testing.T) {
	svc, wf, source, target := seedConnectionService(t)

	_, err := svc.CreateConnection(context.Background(), wf.ID, CreateConnectionRequest{
		SourceNodeID: source.ID,
		TargetNodeID: target.ID,
		Channel:      "maybe",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestCreateConnectionRejectsSelfLoop(t *testing.T) {
	svc, wf, source, _ := seedConnectionService(t)

	_, err := svc.CreateConnection(context.Background(), wf.ID, CreateConnectionRequest{
		SourceNodeID: source.ID,
		TargetNodeID: source.ID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelfConnection)
}

func TestCreateConnectionRejectsDuplicate(t *testing.T) {
	svc, wf, source, target := seedConnectionService(t)
	ctx := context.Background()

	req := CreateConnectionRequest{SourceNodeID: source.ID, TargetNodeID: target.ID}

	_, err := svc.CreateConnection(ctx, wf.ID, req)
	require.NoError(t, err)

	_, err = svc.CreateConnection(ctx, wf.ID, req)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	// The same edge on another channel is a different connection.
	_, err = svc.CreateConnection(ctx, wf.ID, CreateConnectionRequest{
		SourceNodeID: source.ID,
		TargetNodeID: target.ID,
		Channel:      models.ChannelFailed,
	})
	require.NoError(t, err)
}

func TestCreateConnectionKeepsCondition(t *testing.T) {
	svc, wf, source, target := seedConnectionService(t)

	condition := map[string]any{"operator": "==", "left": "${x}", "right": float64(1)}

	connection, err := svc.CreateConnection(context.Background(), wf.ID, CreateConnectionRequest{
		SourceNodeID: source.ID,
		TargetNodeID: target.ID,
		Condition:    condition,
	})
	require.NoError(t, err)
	assert.Equal(t, condition, connection.Condition)
}
