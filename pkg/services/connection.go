package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// Connection manages the edges of workflow graphs.
type Connection struct {
	persistence persistence.Persistence
}

// NewConnection creates a new connection service.
func NewConnection(persistence persistence.Persistence) *Connection {
	return &Connection{persistence: persistence}
}

// ListConnections returns the connections of a workflow.
func (s *Connection) ListConnections(ctx context.Context, workflowID string) ([]*models.Connection, error) {
	if _, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	return s.persistence.ConnectionRepository().GetByWorkflow(ctx, workflowID)
}

// CreateConnectionRequest carries the fields accepted on creation. Channel
// defaults to "success"; Condition is stored untouched and reserved for
// per-edge routing.
type CreateConnectionRequest struct {
	SourceNodeID string         `json:"source_node_id" validate:"required"`
	TargetNodeID string         `json:"target_node_id" validate:"required"`
	Channel      string         `json:"channel"`
	Condition    map[string]any `json:"condition,omitempty"`
}

// CreateConnection validates endpoints and persists the edge.
func (s *Connection) CreateConnection(ctx context.Context, workflowID string, req CreateConnectionRequest) (*models.Connection, error) {
	if _, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	if _, err := s.persistence.NodeRepository().GetByID(ctx, workflowID, req.SourceNodeID); err != nil {
		return nil, err
	}

	if _, err := s.persistence.NodeRepository().GetByID(ctx, workflowID, req.TargetNodeID); err != nil {
		return nil, err
	}

	channel := req.Channel
	if channel == "" {
		channel = models.DefaultChannel
	}

	switch channel {
	case models.ChannelSuccess, models.ChannelFailed, models.ChannelUnknown:
	default:
		return nil, NewValidationError("create_connection", "invalid_channel", "channel "+channel+" is not supported", ErrInvalidChannel)
	}

	connection := &models.Connection{
		ID:           uuid.New().String(),
		WorkflowID:   workflowID,
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		Channel:      channel,
		Condition:    req.Condition,
	}

	if err := s.persistence.ConnectionRepository().Save(ctx, connection); err != nil {
		switch {
		case errors.Is(err, persistence.ErrSelfConnection):
			return nil, NewValidationError("create_connection", "self_connection", "source and target must differ", ErrSelfConnection)
		case errors.Is(err, persistence.ErrConnectionExists):
			return nil, &ServiceError{Op: "create_connection", Code: "duplicate", Message: "an identical connection already exists", Err: ErrConnectionExists}
		default:
			return nil, fmt.Errorf("failed to create connection: %w", err)
		}
	}

	return connection, nil
}

// DeleteConnection removes one edge.
func (s *Connection) DeleteConnection(ctx context.Context, workflowID, connectionID string) error {
	return s.persistence.ConnectionRepository().Delete(ctx, workflowID, connectionID)
}
