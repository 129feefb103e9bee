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

func seedNodeService(t *testing.T) (*Node, *memory.Persistence, *models.Workflow, *models.Reaction) {
	t.Helper()

	persist := memory.NewPersistence()
	ctx := context.Background()

	service := testutil.CreateTestService("http://service.local")
	require.NoError(t, persist.CatalogRepository().SaveService(ctx, service))

	reaction := testutil.CreateTestReaction(service.ID, "send_message")
	reaction.ConfigSchema = map[string]any{
		"type":     "object",
		"required": []any{"channel"},
		"properties": map[string]any{
			"channel": map[string]any{"type": "string"},
		},
	}
	require.NoError(t, persist.CatalogRepository().SaveReaction(ctx, reaction))

	wf := testutil.CreateTestWorkflow()
	require.NoError(t, persist.WorkflowRepository().Save(ctx, wf))

	return NewNode(persist), persist, wf, reaction
}

func TestCreateNodeValidatesKind(t *testing.T) {
	svc, _, wf, reaction := seedNodeService(t)
	ctx := context.Background()

	_, err := svc.CreateNode(ctx, wf.ID, CreateNodeRequest{Name: "empty"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	logicType := models.LogicTypeIf

	_, err = svc.CreateNode(ctx, wf.ID, CreateNodeRequest{
		Name:       "both",
		ReactionID: &reaction.ID,
		LogicType:  &logicType,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateNodeUnknownReaction(t *testing.T) {
	svc, _, wf, _ := seedNodeService(t)

	missing := "missing"

	_, err := svc.CreateNode(context.Background(), wf.ID, CreateNodeRequest{Name: "bad", ReactionID: &missing})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownReactionRef)
}

func TestCreateNodeConfSchema(t *testing.T) {
	svc, _, wf, reaction := seedNodeService(t)
	ctx := context.Background()

	_, err := svc.CreateNode(ctx, wf.ID, CreateNodeRequest{
		Name:       "no channel",
		ReactionID: &reaction.ID,
		Conf:       map[string]any{},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfSchemaViolation)

	node, err := svc.CreateNode(ctx, wf.ID, CreateNodeRequest{
		Name:       "ok",
		ReactionID: &reaction.ID,
		Conf:       map[string]any{"channel": "general"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)
}

func TestCreateNodeConfSchemaAllowsPlaceholders(t *testing.T) {
	svc, _, wf, reaction := seedNodeService(t)

	node, err := svc.CreateNode(context.Background(), wf.ID, CreateNodeRequest{
		Name:       "templated",
		ReactionID: &reaction.ID,
		Conf:       map[string]any{"channel": "${target}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "${target}", node.Conf["channel"])
}

func TestCreateLogicNodeSkipsSchema(t *testing.T) {
	svc, _, wf, _ := seedNodeService(t)

	logicType := models.LogicTypeAnd

	node, err := svc.CreateNode(context.Background(), wf.ID, CreateNodeRequest{
		Name:      "join",
		LogicType: &logicType,
	})
	require.NoError(t, err)
	assert.Equal(t, models.NodeKindLogic, node.Kind())
}

func TestUpdateNodeRevalidatesConf(t *testing.T) {
	svc, _, wf, reaction := seedNodeService(t)
	ctx := context.Background()

	node, err := svc.CreateNode(ctx, wf.ID, CreateNodeRequest{
		Name:       "ok",
		ReactionID: &reaction.ID,
		Conf:       map[string]any{"channel": "general"},
	})
	require.NoError(t, err)

	_, err = svc.UpdateNode(ctx, wf.ID, node.ID, UpdateNodeRequest{Conf: map[string]any{"channel": 42}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfSchemaViolation)
}

func TestToggleTrigger(t *testing.T) {
	svc, persist, wf, _ := seedNodeService(t)
	ctx := context.Background()

	service := testutil.CreateTestService("http://other.local")
	require.NoError(t, persist.CatalogRepository().SaveService(ctx, service))

	action := testutil.CreateTestAction(service.ID, "new_message")
	require.NoError(t, persist.CatalogRepository().SaveAction(ctx, action))

	node, err := svc.CreateNode(ctx, wf.ID, CreateNodeRequest{Name: "entry", ActionID: &action.ID})
	require.NoError(t, err)
	require.False(t, node.IsTriggered)

	toggled, err := svc.ToggleTrigger(ctx, wf.ID, node.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsTriggered)
}
