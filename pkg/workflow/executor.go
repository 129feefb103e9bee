// Package workflow implements the execution engine: it walks a workflow
// graph from an entry node, dispatches each node by kind and fans out along
// the connections matching the channel the node produced.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stellivo/areaflow/pkg/dispatch"
	"github.com/stellivo/areaflow/pkg/eventbus"
	"github.com/stellivo/areaflow/pkg/events"
	"github.com/stellivo/areaflow/pkg/interpolate"
	"github.com/stellivo/areaflow/pkg/logic"
	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/otelhelper"
	"github.com/stellivo/areaflow/pkg/persistence"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ContinuationResult reports the outcome of one downstream branch. A branch
// whose own execution failed is recorded here instead of aborting its
// siblings.
type ContinuationResult struct {
	NodeID string  `json:"node_id"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Result is the outcome of executing one node and the subtree behind it.
type Result struct {
	NodeExecutionID string                 `json:"node_execution_id,omitempty"`
	NodeID          string                 `json:"node_id"`
	ExecutionID     string                 `json:"execution_id"`
	Status          models.ExecutionStatus `json:"status,omitempty"`
	Channel         string                 `json:"channel,omitempty"`
	Output          map[string]any         `json:"output,omitempty"`

	// Skipped marks a join-node arrival that did not execute the node,
	// either because the node waits for more incoming connections or
	// because it already fired in this run.
	Skipped bool `json:"skipped,omitempty"`

	Continuations []ContinuationResult `json:"continuations,omitempty"`
}

// Engine executes workflow graphs.
type Engine struct {
	persistence persistence.Persistence
	dispatcher  dispatch.Dispatcher
	evaluator   logic.Evaluator
	access      AccessChecker
	completion  *CompletionTracker
	joins       *joinTracker
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewEngine creates an engine. The publisher may be nil; lifecycle events
// are then skipped.
func NewEngine(
	persist persistence.Persistence,
	dispatcher dispatch.Dispatcher,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		persistence: persist,
		dispatcher:  dispatcher,
		evaluator:   logic.Evaluator{},
		access:      OwnershipAccessChecker{},
		completion:  NewCompletionTracker(persist.ExecutionRepository()),
		joins:       newJoinTracker(),
		publisher:   publisher,
		logger:      logger.With("module", "engine"),
		tracer:      otel.Tracer("areaflow/engine"),
	}
}

// WithAccessChecker replaces the ownership check, e.g. with a checker backed
// by an external authorization service.
func (e *Engine) WithAccessChecker(access AccessChecker) *Engine {
	e.access = access

	return e
}

// Execute runs the workflow subtree rooted at nodeID. An empty runID starts
// a new run with triggeredBy = nodeID; a non-empty runID continues within
// that run. The call returns once every reached branch settled.
//
// A fatal error (unknown workflow or node, denied access, malformed logic
// node) marks the run FAILED and is returned; reaction dispatch failures are
// absorbed into the node's own execution record as the "failed" channel and
// never surface here.
func (e *Engine) Execute(ctx context.Context, workflowID, nodeID string, input map[string]any, runID string, actor Actor) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.execute", trace.WithAttributes(
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
	))
	defer span.End()

	logger := e.logger.With("workflow_id", workflowID, "node_id", nodeID)

	wf, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		e.failRun(ctx, runID, workflowID, err)

		return nil, fmt.Errorf("fetch workflow %s: %w", workflowID, err)
	}

	if err := e.access.CanExecute(ctx, wf, actor); err != nil {
		return nil, err
	}

	rootCall := runID == ""
	if rootCall {
		run := &models.WorkflowExecution{
			ID:          uuid.New().String(),
			WorkflowID:  workflowID,
			TriggeredBy: nodeID,
			Status:      models.ExecutionStatusRunning,
			StartedAt:   time.Now().UTC(),
		}

		if err := e.persistence.ExecutionRepository().SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}

		runID = run.ID

		logger.InfoContext(ctx, "Started run", "execution_id", runID)
		e.publish(ctx, runID, events.RunStarted{
			BaseEvent:   events.NewBaseEvent(events.RunStartedEvent, workflowID),
			ExecutionID: runID,
			TriggeredBy: nodeID,
		})
	}

	span.SetAttributes(attribute.String(otelhelper.RunIDKey, runID))

	result, err := e.executeNode(ctx, wf, nodeID, input, runID, "")
	if err != nil {
		otelhelper.SetError(span, err)
		e.failRun(ctx, runID, workflowID, err)

		return nil, err
	}

	if rootCall {
		e.finalizeRun(ctx, runID, workflowID)
	}

	return result, nil
}

// executeNode runs a single node and fans out into its matching outgoing
// connections. viaConnectionID identifies the connection that delivered this
// invocation; it is empty for the run's entry node.
func (e *Engine) executeNode(ctx context.Context, wf *models.Workflow, nodeID string, input map[string]any, runID, viaConnectionID string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.node", trace.WithAttributes(
		attribute.String(otelhelper.NodeIDKey, nodeID),
		attribute.String(otelhelper.RunIDKey, runID),
	))
	defer span.End()

	logger := e.logger.With("workflow_id", wf.ID, "node_id", nodeID, "execution_id", runID)

	node, err := e.persistence.NodeRepository().GetByID(ctx, wf.ID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch node %s: %w", nodeID, err)
	}

	if viaConnectionID != "" {
		decision, err := e.gateJoin(ctx, wf, node, runID, viaConnectionID)
		if err != nil {
			return nil, err
		}

		if decision != joinFire {
			logger.DebugContext(ctx, "Join arrival suppressed", "decision", int(decision))

			return &Result{NodeID: nodeID, ExecutionID: runID, Skipped: true}, nil
		}
	}

	nodeExecution := &models.NodeExecution{
		ID:          uuid.New().String(),
		NodeID:      nodeID,
		ExecutionID: runID,
		Status:      models.ExecutionStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	if err := e.persistence.ExecutionRepository().SaveNodeExecution(ctx, nodeExecution); err != nil {
		return nil, fmt.Errorf("create node execution: %w", err)
	}

	outcome, err := e.runKind(ctx, wf, node, input)
	if err != nil {
		now := time.Now().UTC()
		nodeExecution.Status = models.ExecutionStatusFailed
		nodeExecution.CompletedAt = &now
		nodeExecution.Logs = outcome.logs + "Error: " + err.Error() + "\n"

		if saveErr := e.persistence.ExecutionRepository().SaveNodeExecution(ctx, nodeExecution); saveErr != nil {
			logger.ErrorContext(ctx, "Failed to record node execution failure", "error", saveErr)
		}

		e.publish(ctx, runID, events.NodeExecutionFailed{
			BaseEvent:       events.NewBaseEvent(events.NodeExecutionFailedEvent, wf.ID),
			ExecutionID:     runID,
			NodeID:          nodeID,
			NodeExecutionID: nodeExecution.ID,
			Error:           err.Error(),
		})

		otelhelper.SetError(span, err)

		return nil, err
	}

	now := time.Now().UTC()
	nodeExecution.Status = outcome.status
	nodeExecution.CompletedAt = &now
	nodeExecution.Output = outcome.output
	nodeExecution.Logs = outcome.logs
	nodeExecution.ExecutionChannel = outcome.channel

	if err := e.persistence.ExecutionRepository().SaveNodeExecution(ctx, nodeExecution); err != nil {
		return nil, fmt.Errorf("complete node execution: %w", err)
	}

	if err := e.persistence.NodeRepository().RecordExecution(ctx, nodeID, now); err != nil {
		logger.WarnContext(ctx, "Failed to bump node execution counter", "error", err)
	}

	logger.InfoContext(ctx, "Node executed",
		"status", string(outcome.status),
		"channel", outcome.channel,
	)
	e.publish(ctx, runID, events.NodeExecutionFinished{
		BaseEvent:       events.NewBaseEvent(events.NodeExecutionFinishedEvent, wf.ID),
		ExecutionID:     runID,
		NodeID:          nodeID,
		NodeExecutionID: nodeExecution.ID,
		Status:          string(outcome.status),
		Channel:         outcome.channel,
		Output:          outcome.output,
		DurationMs:      now.Sub(nodeExecution.StartedAt).Milliseconds(),
	})

	connections, err := e.persistence.ConnectionRepository().GetBySourceNode(ctx, wf.ID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch outgoing connections of %s: %w", nodeID, err)
	}

	matching := make([]*models.Connection, 0, len(connections))

	for _, connection := range connections {
		if connection.Channel == outcome.channel {
			matching = append(matching, connection)
		}
	}

	continuations := e.fanOut(ctx, wf, matching, outcome.output, runID)

	return &Result{
		NodeExecutionID: nodeExecution.ID,
		NodeID:          nodeID,
		ExecutionID:     runID,
		Status:          outcome.status,
		Channel:         outcome.channel,
		Output:          outcome.output,
		Continuations:   continuations,
	}, nil
}

// gateJoin consults the join tracker for nodes with more than one incoming
// connection. AND logic nodes wait for every incoming connection; every
// other node fires on the first arrival.
func (e *Engine) gateJoin(ctx context.Context, wf *models.Workflow, node *models.Node, runID, viaConnectionID string) (joinDecision, error) {
	incoming, err := e.persistence.ConnectionRepository().GetByTargetNode(ctx, wf.ID, node.ID)
	if err != nil {
		return joinFire, fmt.Errorf("fetch incoming connections of %s: %w", node.ID, err)
	}

	if len(incoming) <= 1 {
		return joinFire, nil
	}

	waitAll := node.LogicType != nil && *node.LogicType == models.LogicTypeAnd

	return e.joins.Arrive(runID, node.ID, viaConnectionID, waitAll, len(incoming)), nil
}

// kindOutcome is the node-local result of running a node's kind handler.
type kindOutcome struct {
	status  models.ExecutionStatus
	channel string
	output  map[string]any
	logs    string
}

func (e *Engine) runKind(ctx context.Context, wf *models.Workflow, node *models.Node, input map[string]any) (kindOutcome, error) {
	switch node.Kind() {
	case models.NodeKindAction:
		return kindOutcome{
			status:  models.ExecutionStatusSuccess,
			channel: models.ChannelSuccess,
			output:  input,
			logs:    "Action node: external event recorded, passing input through\n",
		}, nil
	case models.NodeKindReaction:
		return e.runReaction(ctx, wf, node, input)
	case models.NodeKindLogic:
		return e.runLogic(ctx, wf, node, input)
	default:
		return kindOutcome{}, fmt.Errorf("node %s: %w", node.ID, models.ErrNodeKindMissing)
	}
}

// runReaction interpolates the node configuration and dispatches it to the
// reaction's owning service. Dispatch failures are absorbed: the node
// completes FAILED on the "failed" channel and the run continues along
// "failed"-channel connections.
func (e *Engine) runReaction(ctx context.Context, wf *models.Workflow, node *models.Node, input map[string]any) (kindOutcome, error) {
	reaction, err := e.persistence.CatalogRepository().ReactionByID(ctx, *node.ReactionID)
	if err != nil {
		return kindOutcome{}, fmt.Errorf("fetch reaction %s: %w", *node.ReactionID, err)
	}

	service, err := e.persistence.CatalogRepository().ServiceByID(ctx, reaction.ServiceID)
	if err != nil {
		return kindOutcome{}, fmt.Errorf("fetch service %s: %w", reaction.ServiceID, err)
	}

	var logs strings.Builder

	fmt.Fprintf(&logs, "Executing reaction %q via %s\n", reaction.Name, service.BaseURL)

	config := interpolate.Config(node.Conf, input)

	output, err := e.dispatcher.Dispatch(ctx, service.BaseURL, dispatch.Request{
		Type:   "reaction",
		Name:   reaction.Name,
		UserID: wf.UserID,
		Config: config,
		Input:  input,
	})
	if err != nil {
		fmt.Fprintf(&logs, "Dispatch failed: %s\n", err.Error())

		return kindOutcome{
			status:  models.ExecutionStatusFailed,
			channel: models.ChannelFailed,
			output:  map[string]any{"error": err.Error()},
			logs:    logs.String(),
		}, nil
	}

	logs.WriteString("Dispatch succeeded\n")

	return kindOutcome{
		status:  models.ExecutionStatusSuccess,
		channel: models.ChannelSuccess,
		output:  output,
		logs:    logs.String(),
	}, nil
}

// runLogic evaluates IF against the node's configured condition, and AND/NOT
// against the latest execution of every node connected into this one.
// Malformed logic nodes (missing incoming nodes, unknown type) are fatal to
// the node's execution; evaluation outcomes are always a channel.
func (e *Engine) runLogic(ctx context.Context, wf *models.Workflow, node *models.Node, input map[string]any) (kindOutcome, error) {
	var (
		result logic.Result
		err    error
	)

	switch *node.LogicType {
	case models.LogicTypeIf:
		result, err = e.evaluator.If(node.Conf["condition"], input)
	case models.LogicTypeAnd:
		incoming, incomingErr := e.incomingNodes(ctx, wf, node.ID)
		if incomingErr != nil {
			return kindOutcome{}, incomingErr
		}

		result, err = e.evaluator.And(incoming)
	case models.LogicTypeNot:
		incoming, incomingErr := e.incomingNodes(ctx, wf, node.ID)
		if incomingErr != nil {
			return kindOutcome{}, incomingErr
		}

		result, err = e.evaluator.Not(incoming, input)
	default:
		return kindOutcome{}, fmt.Errorf("node %s: %w: %s", node.ID, models.ErrUnknownLogicType, *node.LogicType)
	}

	if err != nil {
		return kindOutcome{}, fmt.Errorf("node %s: %w", node.ID, err)
	}

	return kindOutcome{
		status:  models.ExecutionStatusSuccess,
		channel: result.Channel,
		output:  result.Output,
		logs:    result.Logs,
	}, nil
}

// incomingNodes collects, for every connection into nodeID, the latest
// recorded execution of the source node. Sources that never executed are
// reported with the "unknown" channel.
func (e *Engine) incomingNodes(ctx context.Context, wf *models.Workflow, nodeID string) ([]logic.IncomingNode, error) {
	connections, err := e.persistence.ConnectionRepository().GetByTargetNode(ctx, wf.ID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch incoming connections of %s: %w", nodeID, err)
	}

	incoming := make([]logic.IncomingNode, 0, len(connections))

	for _, connection := range connections {
		latest, err := e.persistence.ExecutionRepository().LatestNodeExecution(ctx, connection.SourceNodeID)
		if err != nil {
			if persistence.IsNotFound(err) {
				incoming = append(incoming, logic.IncomingNode{Channel: models.ChannelUnknown})

				continue
			}

			return nil, fmt.Errorf("fetch latest execution of %s: %w", connection.SourceNodeID, err)
		}

		channel := latest.ExecutionChannel
		if channel == "" {
			channel = models.ChannelUnknown
		}

		incoming = append(incoming, logic.IncomingNode{
			Status:  latest.Status,
			Output:  latest.Output,
			Channel: channel,
		})
	}

	return incoming, nil
}

// fanOut launches every matching continuation concurrently and waits for all
// of them to settle. A continuation's own failure becomes an error entry in
// the aggregate result instead of aborting its siblings.
func (e *Engine) fanOut(ctx context.Context, wf *models.Workflow, connections []*models.Connection, output map[string]any, runID string) []ContinuationResult {
	if len(connections) == 0 {
		return nil
	}

	results := make([]ContinuationResult, len(connections))

	var wg sync.WaitGroup

	for i, connection := range connections {
		wg.Add(1)

		go func(i int, connection *models.Connection) {
			defer wg.Done()

			result, err := e.executeNode(ctx, wf, connection.TargetNodeID, output, runID, connection.ID)
			if err != nil {
				e.logger.WarnContext(ctx, "Continuation failed",
					"workflow_id", wf.ID,
					"node_id", connection.TargetNodeID,
					"execution_id", runID,
					"error", err,
				)
				results[i] = ContinuationResult{NodeID: connection.TargetNodeID, Error: err.Error()}

				return
			}

			results[i] = ContinuationResult{NodeID: connection.TargetNodeID, Result: result}
		}(i, connection)
	}

	wg.Wait()

	return results
}

// finalizeRun marks the run SUCCESS once no node execution is RUNNING or
// PENDING. Runs are never marked FAILED from this path: branch failures are
// expressed per node via the "failed" channel.
func (e *Engine) finalizeRun(ctx context.Context, runID, workflowID string) {
	defer e.joins.Forget(runID)

	complete, err := e.completion.IsRunComplete(ctx, runID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Completion check failed", "execution_id", runID, "error", err)

		return
	}

	if !complete {
		return
	}

	run, err := e.persistence.ExecutionRepository().RunByID(ctx, runID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load run for finalization", "execution_id", runID, "error", err)

		return
	}

	now := time.Now().UTC()
	run.Status = models.ExecutionStatusSuccess
	run.CompletedAt = &now

	if err := e.persistence.ExecutionRepository().SaveRun(ctx, run); err != nil {
		e.logger.ErrorContext(ctx, "Failed to finalize run", "execution_id", runID, "error", err)

		return
	}

	e.logger.InfoContext(ctx, "Run completed", "workflow_id", workflowID, "execution_id", runID)
	e.publish(ctx, runID, events.RunCompleted{
		BaseEvent:   events.NewBaseEvent(events.RunCompletedEvent, workflowID),
		ExecutionID: runID,
		Duration:    now.Sub(run.StartedAt),
	})
}

// failRun marks the run FAILED with the fatal error's message. A missing or
// empty runID is a no-op: access and existence failures happen before any
// run is created.
func (e *Engine) failRun(ctx context.Context, runID, workflowID string, cause error) {
	if runID == "" {
		return
	}

	defer e.joins.Forget(runID)

	run, err := e.persistence.ExecutionRepository().RunByID(ctx, runID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load run for failure", "execution_id", runID, "error", err)

		return
	}

	if run.Status.Terminal() {
		return
	}

	now := time.Now().UTC()
	run.Status = models.ExecutionStatusFailed
	run.CompletedAt = &now
	run.ErrorMsg = cause.Error()

	if err := e.persistence.ExecutionRepository().SaveRun(ctx, run); err != nil {
		e.logger.ErrorContext(ctx, "Failed to record run failure", "execution_id", runID, "error", err)

		return
	}

	e.logger.WarnContext(ctx, "Run failed", "workflow_id", workflowID, "execution_id", runID, "error", cause)
	e.publish(ctx, runID, events.RunFailed{
		BaseEvent:   events.NewBaseEvent(events.RunFailedEvent, workflowID),
		ExecutionID: runID,
		Error:       cause.Error(),
		Duration:    now.Sub(run.StartedAt),
	})
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", string(event.GetType()), "error", err)
	}
}
