// Package memory provides an in-memory persistence implementation used by
// tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// Persistence implements persistence.Persistence backed by process memory.
// All methods are safe for concurrent use; the engine's fan-out hits the
// execution repository from many goroutines at once.
type Persistence struct {
	mu sync.RWMutex

	workflows   map[string]*models.Workflow
	nodes       map[string]*models.Node
	connections map[string]*models.Connection
	runs        map[string]*models.WorkflowExecution
	nodeExecs   map[string]*models.NodeExecution
	services    map[string]*models.Service
	actions     map[string]*models.Action
	reactions   map[string]*models.Reaction
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		workflows:   make(map[string]*models.Workflow),
		nodes:       make(map[string]*models.Node),
		connections: make(map[string]*models.Connection),
		runs:        make(map[string]*models.WorkflowExecution),
		nodeExecs:   make(map[string]*models.NodeExecution),
		services:    make(map[string]*models.Service),
		actions:     make(map[string]*models.Action),
		reactions:   make(map[string]*models.Reaction),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return &workflowRepository{p}
}

func (p *Persistence) NodeRepository() persistence.NodeRepository {
	return &nodeRepository{p}
}

func (p *Persistence) ConnectionRepository() persistence.ConnectionRepository {
	return &connectionRepository{p}
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return &executionRepository{p}
}

func (p *Persistence) CatalogRepository() persistence.CatalogRepository {
	return &catalogRepository{p}
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

type workflowRepository struct {
	p *Persistence
}

func (r *workflowRepository) GetAll(_ context.Context) ([]*models.Workflow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(r.p.workflows))
	for _, w := range r.p.workflows {
		clone := *w
		workflows = append(workflows, &clone)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *workflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	workflow, ok := r.p.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	clone := *workflow

	return &clone, nil
}

func (r *workflowRepository) GetActiveByUser(_ context.Context, userID int64) ([]*models.Workflow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var workflows []*models.Workflow

	for _, w := range r.p.workflows {
		if w.UserID == userID && w.IsActive {
			clone := *w
			workflows = append(workflows, &clone)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *workflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	clone := *workflow
	r.p.workflows[workflow.ID] = &clone

	return nil
}

func (r *workflowRepository) Delete(_ context.Context, id string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if _, ok := r.p.workflows[id]; !ok {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	delete(r.p.workflows, id)

	// Cascade to nodes, connections and executions.
	for nodeID, node := range r.p.nodes {
		if node.WorkflowID == id {
			delete(r.p.nodes, nodeID)
		}
	}

	for connID, conn := range r.p.connections {
		if conn.WorkflowID == id {
			delete(r.p.connections, connID)
		}
	}

	for runID, run := range r.p.runs {
		if run.WorkflowID == id {
			delete(r.p.runs, runID)

			for neID, ne := range r.p.nodeExecs {
				if ne.ExecutionID == runID {
					delete(r.p.nodeExecs, neID)
				}
			}
		}
	}

	return nil
}

type nodeRepository struct {
	p *Persistence
}

func (r *nodeRepository) GetByWorkflow(_ context.Context, workflowID string) ([]*models.Node, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var nodes []*models.Node

	for _, node := range r.p.nodes {
		if node.WorkflowID == workflowID {
			clone := *node
			nodes = append(nodes, &clone)
		}
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return nodes, nil
}

func (r *nodeRepository) GetByID(_ context.Context, workflowID, nodeID string) (*models.Node, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	node, ok := r.p.nodes[nodeID]
	if !ok || node.WorkflowID != workflowID {
		return nil, persistence.NewNodeError("GetByID", workflowID, nodeID, persistence.ErrNodeNotFound)
	}

	clone := *node

	return &clone, nil
}

func (r *nodeRepository) Save(_ context.Context, node *models.Node) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	clone := *node
	r.p.nodes[node.ID] = &clone

	return nil
}

func (r *nodeRepository) Delete(_ context.Context, workflowID, nodeID string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	node, ok := r.p.nodes[nodeID]
	if !ok || node.WorkflowID != workflowID {
		return persistence.NewNodeError("Delete", workflowID, nodeID, persistence.ErrNodeNotFound)
	}

	delete(r.p.nodes, nodeID)

	// Cascade: connections touching the node go with it.
	for connID, conn := range r.p.connections {
		if conn.SourceNodeID == nodeID || conn.TargetNodeID == nodeID {
			delete(r.p.connections, connID)
		}
	}

	return nil
}

func (r *nodeRepository) FindTriggerNodes(_ context.Context, workflowID, actionID string) ([]*models.Node, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var nodes []*models.Node

	for _, node := range r.p.nodes {
		if node.WorkflowID != workflowID || !node.IsTriggered {
			continue
		}

		if node.ActionID != nil && *node.ActionID == actionID {
			clone := *node
			nodes = append(nodes, &clone)
		}
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return nodes, nil
}

func (r *nodeRepository) RecordExecution(_ context.Context, nodeID string, at time.Time) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	node, ok := r.p.nodes[nodeID]
	if !ok {
		return persistence.NewNodeError("RecordExecution", "", nodeID, persistence.ErrNodeNotFound)
	}

	node.ExecutionCount++
	node.LastExecuted = &at

	return nil
}

type connectionRepository struct {
	p *Persistence
}

func (r *connectionRepository) GetByWorkflow(_ context.Context, workflowID string) ([]*models.Connection, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var connections []*models.Connection

	for _, conn := range r.p.connections {
		if conn.WorkflowID == workflowID {
			clone := *conn
			connections = append(connections, &clone)
		}
	}

	sort.Slice(connections, func(i, j int) bool { return connections[i].ID < connections[j].ID })

	return connections, nil
}

func (r *connectionRepository) GetBySourceNode(_ context.Context, workflowID, sourceNodeID string) ([]*models.Connection, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var connections []*models.Connection

	for _, conn := range r.p.connections {
		if conn.WorkflowID == workflowID && conn.SourceNodeID == sourceNodeID {
			clone := *conn
			connections = append(connections, &clone)
		}
	}

	sort.Slice(connections, func(i, j int) bool { return connections[i].ID < connections[j].ID })

	return connections, nil
}

func (r *connectionRepository) GetByTargetNode(_ context.Context, workflowID, targetNodeID string) ([]*models.Connection, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var connections []*models.Connection

	for _, conn := range r.p.connections {
		if conn.WorkflowID == workflowID && conn.TargetNodeID == targetNodeID {
			clone := *conn
			connections = append(connections, &clone)
		}
	}

	sort.Slice(connections, func(i, j int) bool { return connections[i].ID < connections[j].ID })

	return connections, nil
}

func (r *connectionRepository) Save(_ context.Context, connection *models.Connection) error {
	if connection.SourceNodeID == connection.TargetNodeID {
		return persistence.ErrSelfConnection
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	for _, existing := range r.p.connections {
		if existing.ID == connection.ID {
			continue
		}

		if existing.WorkflowID == connection.WorkflowID &&
			existing.SourceNodeID == connection.SourceNodeID &&
			existing.TargetNodeID == connection.TargetNodeID &&
			existing.Channel == connection.Channel {
			return persistence.ErrConnectionExists
		}
	}

	clone := *connection
	r.p.connections[connection.ID] = &clone

	return nil
}

func (r *connectionRepository) Delete(_ context.Context, workflowID, connectionID string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	conn, ok := r.p.connections[connectionID]
	if !ok || conn.WorkflowID != workflowID {
		return &persistence.ConnectionError{Op: "Delete", WorkflowID: workflowID, ConnectionID: connectionID, Err: persistence.ErrConnectionNotFound}
	}

	delete(r.p.connections, connectionID)

	return nil
}

type executionRepository struct {
	p *Persistence
}

func (r *executionRepository) SaveRun(_ context.Context, run *models.WorkflowExecution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	clone := *run
	r.p.runs[run.ID] = &clone

	return nil
}

func (r *executionRepository) RunByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	run, ok := r.p.runs[id]
	if !ok {
		return nil, persistence.ErrRunNotFound
	}

	clone := *run

	return &clone, nil
}

func (r *executionRepository) RunsByWorkflow(_ context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var runs []*models.WorkflowExecution

	for _, run := range r.p.runs {
		if run.WorkflowID == workflowID {
			clone := *run
			runs = append(runs, &clone)
		}
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })

	return runs, nil
}

func (r *executionRepository) SaveNodeExecution(_ context.Context, nodeExecution *models.NodeExecution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	clone := *nodeExecution
	r.p.nodeExecs[nodeExecution.ID] = &clone

	return nil
}

func (r *executionRepository) NodeExecutionsByRun(_ context.Context, executionID string) ([]*models.NodeExecution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var executions []*models.NodeExecution

	for _, ne := range r.p.nodeExecs {
		if ne.ExecutionID == executionID {
			clone := *ne
			executions = append(executions, &clone)
		}
	}

	sort.Slice(executions, func(i, j int) bool { return executions[i].StartedAt.Before(executions[j].StartedAt) })

	return executions, nil
}

func (r *executionRepository) LatestNodeExecution(_ context.Context, nodeID string) (*models.NodeExecution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var latest *models.NodeExecution

	for _, ne := range r.p.nodeExecs {
		if ne.NodeID != nodeID {
			continue
		}

		if latest == nil || ne.StartedAt.After(latest.StartedAt) {
			latest = ne
		}
	}

	if latest == nil {
		return nil, persistence.ErrNodeExecutionNotFound
	}

	clone := *latest

	return &clone, nil
}

type catalogRepository struct {
	p *Persistence
}

func (r *catalogRepository) Services(_ context.Context) ([]*models.Service, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	services := make([]*models.Service, 0, len(r.p.services))
	for _, s := range r.p.services {
		clone := *s
		services = append(services, &clone)
	}

	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })

	return services, nil
}

func (r *catalogRepository) ServiceByID(_ context.Context, id string) (*models.Service, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	service, ok := r.p.services[id]
	if !ok {
		return nil, persistence.ErrServiceNotFound
	}

	clone := *service

	return &clone, nil
}

func (r *catalogRepository) SaveService(_ context.Context, service *models.Service) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	clone := *service
	r.p.services[service.ID] = &clone

	return nil
}

func (r *catalogRepository) ActionByID(_ context.Context, id string) (*models.Action, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	action, ok := r.p.actions[id]
	if !ok {
		return nil, persistence.ErrActionNotFound
	}

	clone := *action

	return &clone, nil
}

func (r *catalogRepository) ActionByName(_ context.Context, serviceID, name string) (*models.Action, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	for _, action := range r.p.actions {
		if action.ServiceID == serviceID && action.Name == name {
			clone := *action

			return &clone, nil
		}
	}

	return nil, persistence.ErrActionNotFound
}

func (r *catalogRepository) ActionsByService(_ context.Context, serviceID string) ([]*models.Action, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var actions []*models.Action

	for _, action := range r.p.actions {
		if action.ServiceID == serviceID {
			clone := *action
			actions = append(actions, &clone)
		}
	}

	sort.Slice(actions, func(i, j int) bool { return actions[i].Name < actions[j].Name })

	return actions, nil
}

func (r *catalogRepository) SaveAction(_ context.Context, action *models.Action) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	clone := *action
	r.p.actions[action.ID] = &clone

	return nil
}

func (r *catalogRepository) ReactionByID(_ context.Context, id string) (*models.Reaction, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	reaction, ok := r.p.reactions[id]
	if !ok {
		return nil, persistence.ErrReactionNotFound
	}

	clone := *reaction

	return &clone, nil
}

func (r *catalogRepository) ReactionByName(_ context.Context, serviceID, name string) (*models.Reaction, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	for _, reaction := range r.p.reactions {
		if reaction.ServiceID == serviceID && reaction.Name == name {
			clone := *reaction

			return &clone, nil
		}
	}

	return nil, persistence.ErrReactionNotFound
}

func (r *catalogRepository) ReactionsByService(_ context.Context, serviceID string) ([]*models.Reaction, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var reactions []*models.Reaction

	for _, reaction := range r.p.reactions {
		if reaction.ServiceID == serviceID {
			clone := *reaction
			reactions = append(reactions, &clone)
		}
	}

	sort.Slice(reactions, func(i, j int) bool { return reactions[i].Name < reactions[j].Name })

	return reactions, nil
}

func (r *catalogRepository) SaveReaction(_ context.Context, reaction *models.Reaction) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	clone := *reaction
	r.p.reactions[reaction.ID] = &clone

	return nil
}
