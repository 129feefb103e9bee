package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/stellivo/areaflow/pkg/otelhelper"
	"github.com/stellivo/areaflow/pkg/testutil"
)

func TestExecuteRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	f := newFixture(t)

	entry := f.addNode(t, testutil.CreateActionNode(f.workflow.ID, f.action.ID))
	send := f.addNode(t, testutil.CreateReactionNode(f.workflow.ID, f.reaction.ID))
	f.connect(t, entry, send)

	_, err := f.engine.Execute(context.Background(), f.workflow.ID, entry.ID, map[string]any{}, "", f.owner())
	require.NoError(t, err)

	var (
		root      sdktrace.ReadOnlySpan
		nodeSpans int
	)

	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "engine.execute":
			root = span
		case "engine.node":
			nodeSpans++
		}
	}

	require.NotNil(t, root, "expected an engine.execute span")
	assert.Equal(t, 2, nodeSpans)

	attrs := make(map[attribute.Key]string)
	for _, kv := range root.Attributes() {
		attrs[kv.Key] = kv.Value.AsString()
	}

	assert.Equal(t, f.workflow.ID, attrs[attribute.Key(otelhelper.WorkflowIDKey)])
	assert.Equal(t, entry.ID, attrs[attribute.Key(otelhelper.NodeIDKey)])
	assert.NotEmpty(t, attrs[attribute.Key(otelhelper.RunIDKey)])
}
