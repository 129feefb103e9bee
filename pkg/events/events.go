// Package events defines the lifecycle notifications published while runs
// and node executions progress.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every lifecycle event.
const Topic = "areaflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Trigger ingress.
	WorkflowTriggeredEvent EventType = "workflow.triggered"

	// Run lifecycle.
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"

	// Node execution lifecycle.
	NodeExecutionFinishedEvent EventType = "node.execution.finished"
	NodeExecutionFailedEvent   EventType = "node.execution.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowTriggered records an external event reaching the trigger ingress.
type WorkflowTriggered struct {
	BaseEvent

	ServiceID  string         `json:"service_id"`
	ActionName string         `json:"action_name"`
	UserID     int64          `json:"user_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func (e WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

// RunStarted marks the creation of a new run.
type RunStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	TriggeredBy string `json:"triggered_by"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunCompleted marks a run reaching SUCCESS.
type RunCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Duration    time.Duration `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

// RunFailed marks a run aborted by a fatal error.
type RunFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

// NodeExecutionFinished marks a node execution reaching a terminal status,
// including dispatch failures absorbed into the "failed" channel.
type NodeExecutionFinished struct {
	BaseEvent

	ExecutionID     string         `json:"execution_id"`
	NodeID          string         `json:"node_id"`
	NodeExecutionID string         `json:"node_execution_id"`
	Status          string         `json:"status"`
	Channel         string         `json:"channel"`
	Output          map[string]any `json:"output,omitempty"`
	DurationMs      int64          `json:"duration_ms"`
}

func (e NodeExecutionFinished) GetType() EventType {
	return NodeExecutionFinishedEvent
}

// NodeExecutionFailed marks a node execution aborted by a fatal error, as
// opposed to an absorbed dispatch failure.
type NodeExecutionFailed struct {
	BaseEvent

	ExecutionID     string `json:"execution_id"`
	NodeID          string `json:"node_id"`
	NodeExecutionID string `json:"node_execution_id"`
	Error           string `json:"error"`
}

func (e NodeExecutionFailed) GetType() EventType {
	return NodeExecutionFailedEvent
}
