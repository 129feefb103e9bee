// Package testutil provides test data builders shared across packages.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/stellivo/areaflow/pkg/models"
)

// CreateTestWorkflow creates an active workflow with default values that can
// be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:        uuid.New().String(),
		Name:      "Test Workflow",
		UserID:    1,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithOwner sets the workflow owner.
func WithOwner(userID int64) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.UserID = userID
	}
}

// WithInactive deactivates the workflow.
func WithInactive() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.IsActive = false
	}
}

// CreateActionNode creates a trigger-flagged action node.
func CreateActionNode(workflowID, actionID string, overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:          uuid.New().String(),
		WorkflowID:  workflowID,
		Name:        "Test Action Node",
		ActionID:    &actionID,
		IsTriggered: true,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// CreateReactionNode creates a reaction node.
func CreateReactionNode(workflowID, reactionID string, overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Name:       "Test Reaction Node",
		ReactionID: &reactionID,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// CreateLogicNode creates a logic node of the given type.
func CreateLogicNode(workflowID string, logicType models.LogicType, overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Name:       "Test Logic Node",
		LogicType:  &logicType,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithConf sets the node configuration.
func WithConf(conf map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Conf = conf
	}
}

// WithNodeName sets the node name.
func WithNodeName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// WithoutTrigger clears the trigger flag.
func WithoutTrigger() func(*models.Node) {
	return func(n *models.Node) {
		n.IsTriggered = false
	}
}

// CreateConnection creates a connection on the "success" channel.
func CreateConnection(workflowID, sourceNodeID, targetNodeID string, overrides ...func(*models.Connection)) *models.Connection {
	connection := &models.Connection{
		ID:           uuid.New().String(),
		WorkflowID:   workflowID,
		SourceNodeID: sourceNodeID,
		TargetNodeID: targetNodeID,
		Channel:      models.ChannelSuccess,
	}

	for _, override := range overrides {
		override(connection)
	}

	return connection
}

// WithChannel sets the connection channel.
func WithChannel(channel string) func(*models.Connection) {
	return func(c *models.Connection) {
		c.Channel = channel
	}
}

// CreateTestService creates an active service.
func CreateTestService(baseURL string, overrides ...func(*models.Service)) *models.Service {
	service := &models.Service{
		ID:        uuid.New().String(),
		Name:      "test-service",
		BaseURL:   baseURL,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(service)
	}

	return service
}

// CreateTestAction creates an action owned by a service.
func CreateTestAction(serviceID, name string) *models.Action {
	return &models.Action{
		ID:        uuid.New().String(),
		ServiceID: serviceID,
		Name:      name,
	}
}

// CreateTestReaction creates a reaction owned by a service.
func CreateTestReaction(serviceID, name string) *models.Reaction {
	return &models.Reaction{
		ID:        uuid.New().String(),
		ServiceID: serviceID,
		Name:      name,
	}
}
