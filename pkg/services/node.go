package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
	"github.com/xeipuuv/gojsonschema"
)

// Node manages the vertices of workflow graphs.
type Node struct {
	persistence persistence.Persistence
}

// NewNode creates a new node service.
func NewNode(persistence persistence.Persistence) *Node {
	return &Node{persistence: persistence}
}

// ListNodes returns the nodes of a workflow.
func (s *Node) ListNodes(ctx context.Context, workflowID string) ([]*models.Node, error) {
	if _, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	return s.persistence.NodeRepository().GetByWorkflow(ctx, workflowID)
}

// GetNode returns one node of a workflow.
func (s *Node) GetNode(ctx context.Context, workflowID, nodeID string) (*models.Node, error) {
	return s.persistence.NodeRepository().GetByID(ctx, workflowID, nodeID)
}

// CreateNodeRequest carries the fields accepted on node creation.
type CreateNodeRequest struct {
	Name        string            `json:"name"`
	ActionID    *string           `json:"action_id,omitempty"`
	ReactionID  *string           `json:"reaction_id,omitempty"`
	LogicType   *models.LogicType `json:"logic_type,omitempty"`
	Conf        map[string]any    `json:"conf,omitempty"`
	IsTriggered bool              `json:"is_triggered"`
	PositionX   int               `json:"position_x"`
	PositionY   int               `json:"position_y"`
}

// CreateNode validates and persists a node. Exactly one of action, reaction
// and logic type must be referenced; action/reaction references must exist
// in the catalog and the conf must satisfy the registered schema.
func (s *Node) CreateNode(ctx context.Context, workflowID string, req CreateNodeRequest) (*models.Node, error) {
	if _, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	node := &models.Node{
		ID:          uuid.New().String(),
		WorkflowID:  workflowID,
		Name:        strings.TrimSpace(req.Name),
		ActionID:    req.ActionID,
		ReactionID:  req.ReactionID,
		LogicType:   req.LogicType,
		Conf:        req.Conf,
		IsTriggered: req.IsTriggered,
		PositionX:   req.PositionX,
		PositionY:   req.PositionY,
	}

	if err := s.validateNode(ctx, node); err != nil {
		return nil, err
	}

	if err := s.persistence.NodeRepository().Save(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	return node, nil
}

// UpdateNodeRequest carries the mutable node fields.
type UpdateNodeRequest struct {
	Name      *string        `json:"name,omitempty"`
	Conf      map[string]any `json:"conf,omitempty"`
	PositionX *int           `json:"position_x,omitempty"`
	PositionY *int           `json:"position_y,omitempty"`
}

// UpdateNode applies the mutable fields and revalidates the conf.
func (s *Node) UpdateNode(ctx context.Context, workflowID, nodeID string, req UpdateNodeRequest) (*models.Node, error) {
	node, err := s.persistence.NodeRepository().GetByID(ctx, workflowID, nodeID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		node.Name = strings.TrimSpace(*req.Name)
	}

	if req.Conf != nil {
		node.Conf = req.Conf
	}

	if req.PositionX != nil {
		node.PositionX = *req.PositionX
	}

	if req.PositionY != nil {
		node.PositionY = *req.PositionY
	}

	if err := s.validateNode(ctx, node); err != nil {
		return nil, err
	}

	if err := s.persistence.NodeRepository().Save(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	return node, nil
}

// ToggleTrigger flips the node's trigger flag.
func (s *Node) ToggleTrigger(ctx context.Context, workflowID, nodeID string) (*models.Node, error) {
	node, err := s.persistence.NodeRepository().GetByID(ctx, workflowID, nodeID)
	if err != nil {
		return nil, err
	}

	node.IsTriggered = !node.IsTriggered

	if err := s.persistence.NodeRepository().Save(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	return node, nil
}

// DeleteNode removes the node and its connections.
func (s *Node) DeleteNode(ctx context.Context, workflowID, nodeID string) error {
	return s.persistence.NodeRepository().Delete(ctx, workflowID, nodeID)
}

func (s *Node) validateNode(ctx context.Context, node *models.Node) error {
	if err := node.Validate(); err != nil {
		return NewValidationError("validate_node", "invalid_kind", err.Error(), ErrInvalidRequest)
	}

	var schema map[string]any

	switch {
	case node.ActionID != nil:
		action, err := s.persistence.CatalogRepository().ActionByID(ctx, *node.ActionID)
		if err != nil {
			if persistence.IsNotFound(err) {
				return NewValidationError("validate_node", "unknown_action", "action "+*node.ActionID+" is not registered", ErrUnknownActionRef)
			}

			return err
		}

		schema = action.ConfigSchema
	case node.ReactionID != nil:
		reaction, err := s.persistence.CatalogRepository().ReactionByID(ctx, *node.ReactionID)
		if err != nil {
			if persistence.IsNotFound(err) {
				return NewValidationError("validate_node", "unknown_reaction", "reaction "+*node.ReactionID+" is not registered", ErrUnknownReactionRef)
			}

			return err
		}

		schema = reaction.ConfigSchema
	}

	return s.validateConf(schema, node.Conf)
}

// validateConf checks the node configuration against the JSON schema the
// owning service published in its catalog. Interpolation placeholders are
// plain strings at this point, so schemas should type them as strings.
func (s *Node) validateConf(schema, conf map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	if conf == nil {
		conf = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(conf))
	if err != nil {
		return fmt.Errorf("failed to validate node configuration: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			details = append(details, resultError.String())
		}

		return NewValidationError("validate_node", "conf_schema", strings.Join(details, "; "), ErrConfSchemaViolation)
	}

	return nil
}
