package logic

import (
	"testing"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIfBooleanLiteral(t *testing.T) {
	eval := Evaluator{}
	input := map[string]any{"x": float64(5)}

	result, err := eval.If(true, input)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSuccess, result.Channel)
	assert.Equal(t, input, result.Output)

	result, err = eval.If(false, input)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelFailed, result.Channel)
	assert.Equal(t, input, result.Output)
}

func TestIfStructuredCondition(t *testing.T) {
	eval := Evaluator{}

	condition := map[string]any{"operator": "==", "left": "${x}", "right": float64(5)}

	result, err := eval.If(condition, map[string]any{"x": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSuccess, result.Channel)
	assert.Equal(t, map[string]any{"x": float64(5)}, result.Output)

	result, err = eval.If(condition, map[string]any{"x": float64(4)})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelFailed, result.Channel)
}

func TestIfStructuredOperators(t *testing.T) {
	eval := Evaluator{}
	input := map[string]any{"n": float64(10), "s": "beta"}

	tests := []struct {
		name      string
		condition map[string]any
		want      string
	}{
		{"greater true", map[string]any{"operator": ">", "left": "${n}", "right": float64(5)}, models.ChannelSuccess},
		{"greater false", map[string]any{"operator": ">", "left": "${n}", "right": float64(15)}, models.ChannelFailed},
		{"lte true", map[string]any{"operator": "<=", "left": "${n}", "right": float64(10)}, models.ChannelSuccess},
		{"not equal true", map[string]any{"operator": "!=", "left": "${s}", "right": "alpha"}, models.ChannelSuccess},
		{"strict equal strings", map[string]any{"operator": "===", "left": "${s}", "right": "beta"}, models.ChannelSuccess},
		{"mixed types never ordered", map[string]any{"operator": ">", "left": "${s}", "right": float64(1)}, models.ChannelFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.If(tt.condition, input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Channel)
		})
	}
}

func TestIfStringCondition(t *testing.T) {
	eval := Evaluator{}

	tests := []struct {
		name      string
		condition string
		input     map[string]any
		want      string
	}{
		{"comparison true", "${x} > 3", map[string]any{"x": float64(5)}, models.ChannelSuccess},
		{"comparison false", "${x} > 7", map[string]any{"x": float64(5)}, models.ChannelFailed},
		{"string equality", `${name} == "ada"`, map[string]any{"name": "ada"}, models.ChannelSuccess},
		{"no operator non-empty is truthy", "${name}", map[string]any{"name": "ada"}, models.ChannelSuccess},
		{"empty string is falsy", "", map[string]any{}, models.ChannelFailed},
		{"unresolved token left verbatim is truthy", "${missing}", map[string]any{}, models.ChannelSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.If(tt.condition, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Channel)
		})
	}
}

func TestIfNilCondition(t *testing.T) {
	eval := Evaluator{}

	result, err := eval.If(nil, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelFailed, result.Channel)
}

func TestAndAllSuccess(t *testing.T) {
	eval := Evaluator{}

	result, err := eval.And([]IncomingNode{
		{Channel: models.ChannelSuccess, Output: map[string]any{"a": 1}},
		{Channel: models.ChannelSuccess, Output: map[string]any{"b": 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSuccess, result.Channel)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, result.Output)
}

func TestAndOneFailed(t *testing.T) {
	eval := Evaluator{}

	result, err := eval.And([]IncomingNode{
		{Channel: models.ChannelSuccess, Output: map[string]any{"a": 1}},
		{Channel: models.ChannelFailed, Output: map[string]any{"b": 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelFailed, result.Channel)
	// Output is still the merge of every incoming output.
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, result.Output)
}

func TestAndUnknownChannelCountsAsFailed(t *testing.T) {
	eval := Evaluator{}

	result, err := eval.And([]IncomingNode{
		{Channel: models.ChannelSuccess, Output: map[string]any{"a": 1}},
		{Channel: models.ChannelUnknown},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelFailed, result.Channel)
}

func TestAndMergeOverwritesOnCollision(t *testing.T) {
	eval := Evaluator{}

	result, err := eval.And([]IncomingNode{
		{Channel: models.ChannelSuccess, Output: map[string]any{"k": "first"}},
		{Channel: models.ChannelSuccess, Output: map[string]any{"k": "second"}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "second"}, result.Output)
}

func TestAndNoIncoming(t *testing.T) {
	eval := Evaluator{}

	_, err := eval.And(nil)
	assert.ErrorIs(t, err, ErrNoIncomingNodes)
}

func TestNotInversion(t *testing.T) {
	eval := Evaluator{}

	result, err := eval.Not([]IncomingNode{{Channel: models.ChannelSuccess, Output: map[string]any{"v": 1}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelFailed, result.Channel)
	assert.Equal(t, map[string]any{"v": 1}, result.Output)

	result, err = eval.Not([]IncomingNode{{Channel: models.ChannelFailed, Output: map[string]any{"v": 1}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSuccess, result.Channel)
}

func TestNotUsesOnlyFirstIncoming(t *testing.T) {
	eval := Evaluator{}

	result, err := eval.Not([]IncomingNode{
		{Channel: models.ChannelFailed, Output: map[string]any{"first": true}},
		{Channel: models.ChannelSuccess, Output: map[string]any{"second": true}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSuccess, result.Channel)
	assert.Equal(t, map[string]any{"first": true}, result.Output)
}

func TestNotFallsBackToInput(t *testing.T) {
	eval := Evaluator{}
	input := map[string]any{"x": 1}

	result, err := eval.Not([]IncomingNode{{Channel: models.ChannelFailed}}, input)
	require.NoError(t, err)
	assert.Equal(t, input, result.Output)
}

func TestNotNoIncoming(t *testing.T) {
	eval := Evaluator{}

	_, err := eval.Not(nil, map[string]any{})
	assert.ErrorIs(t, err, ErrNoIncomingNodes)
}
