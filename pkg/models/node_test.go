package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func logicPtr(t LogicType) *LogicType { return &t }

func TestNodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr error
	}{
		{
			name: "action node",
			node: Node{ID: "n1", ActionID: strPtr("a1")},
		},
		{
			name: "reaction node",
			node: Node{ID: "n2", ReactionID: strPtr("r1")},
		},
		{
			name: "logic node",
			node: Node{ID: "n3", LogicType: logicPtr(LogicTypeIf)},
		},
		{
			name:    "no kind",
			node:    Node{ID: "n4"},
			wantErr: ErrNodeKindMissing,
		},
		{
			name:    "two kinds",
			node:    Node{ID: "n5", ActionID: strPtr("a1"), ReactionID: strPtr("r1")},
			wantErr: ErrNodeKindAmbiguous,
		},
		{
			name:    "unknown logic type",
			node:    Node{ID: "n6", LogicType: logicPtr(LogicType("XOR"))},
			wantErr: ErrUnknownLogicType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNodeKind(t *testing.T) {
	action := Node{ID: "n1", ActionID: strPtr("a1")}
	reaction := Node{ID: "n2", ReactionID: strPtr("r1")}
	logic := Node{ID: "n3", LogicType: logicPtr(LogicTypeAnd)}

	require.NoError(t, action.Validate())
	require.NoError(t, reaction.Validate())
	require.NoError(t, logic.Validate())

	assert.Equal(t, NodeKindAction, action.Kind())
	assert.Equal(t, NodeKindReaction, reaction.Kind())
	assert.Equal(t, NodeKindLogic, logic.Kind())
}

func TestExecutionStatusTerminal(t *testing.T) {
	assert.True(t, ExecutionStatusSuccess.Terminal())
	assert.True(t, ExecutionStatusFailed.Terminal())
	assert.True(t, ExecutionStatusSkipped.Terminal())
	assert.False(t, ExecutionStatusRunning.Terminal())
	assert.False(t, ExecutionStatusPending.Terminal())
}
