// Package persistence provides the data storage abstraction consumed by the
// execution engine and the service layer.
package persistence

import (
	"context"
	"time"

	"github.com/stellivo/areaflow/pkg/models"
)

// Persistence is the entry point to all repositories of a backing store.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	NodeRepository() NodeRepository
	ConnectionRepository() ConnectionRepository
	ExecutionRepository() ExecutionRepository
	CatalogRepository() CatalogRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository persists workflows.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// GetActiveByUser returns the active workflows owned by a user; the
	// trigger ingress scans these on every external event.
	GetActiveByUser(ctx context.Context, userID int64) ([]*models.Workflow, error)

	Save(ctx context.Context, workflow *models.Workflow) error

	// Delete removes the workflow and cascades to its nodes, connections
	// and executions.
	Delete(ctx context.Context, id string) error
}

// NodeRepository persists workflow nodes.
type NodeRepository interface {
	GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Node, error)
	GetByID(ctx context.Context, workflowID, nodeID string) (*models.Node, error)
	Save(ctx context.Context, node *models.Node) error
	Delete(ctx context.Context, workflowID, nodeID string) error

	// FindTriggerNodes returns the trigger-flagged nodes of a workflow that
	// reference the given action.
	FindTriggerNodes(ctx context.Context, workflowID, actionID string) ([]*models.Node, error)

	// RecordExecution bumps the node's execution counter and last-executed
	// timestamp.
	RecordExecution(ctx context.Context, nodeID string, at time.Time) error
}

// ConnectionRepository persists the edges of workflow graphs.
type ConnectionRepository interface {
	GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Connection, error)
	GetBySourceNode(ctx context.Context, workflowID, sourceNodeID string) ([]*models.Connection, error)
	GetByTargetNode(ctx context.Context, workflowID, targetNodeID string) ([]*models.Connection, error)
	Save(ctx context.Context, connection *models.Connection) error
	Delete(ctx context.Context, workflowID, connectionID string) error
}

// ExecutionRepository persists runs and per-node execution records.
type ExecutionRepository interface {
	SaveRun(ctx context.Context, run *models.WorkflowExecution) error
	RunByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	RunsByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error)

	SaveNodeExecution(ctx context.Context, nodeExecution *models.NodeExecution) error
	NodeExecutionsByRun(ctx context.Context, executionID string) ([]*models.NodeExecution, error)

	// LatestNodeExecution returns the most recently started execution of a
	// node across all runs, or ErrNodeExecutionNotFound when the node never
	// ran.
	LatestNodeExecution(ctx context.Context, nodeID string) (*models.NodeExecution, error)
}

// CatalogRepository persists services and their published actions and
// reactions.
type CatalogRepository interface {
	Services(ctx context.Context) ([]*models.Service, error)
	ServiceByID(ctx context.Context, id string) (*models.Service, error)
	SaveService(ctx context.Context, service *models.Service) error

	ActionByID(ctx context.Context, id string) (*models.Action, error)
	ActionByName(ctx context.Context, serviceID, name string) (*models.Action, error)
	ActionsByService(ctx context.Context, serviceID string) ([]*models.Action, error)
	SaveAction(ctx context.Context, action *models.Action) error

	ReactionByID(ctx context.Context, id string) (*models.Reaction, error)
	ReactionByName(ctx context.Context, serviceID, name string) (*models.Reaction, error)
	ReactionsByService(ctx context.Context, serviceID string) ([]*models.Reaction, error)
	SaveReaction(ctx context.Context, reaction *models.Reaction) error
}
