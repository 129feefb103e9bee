package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// Postgres error codes mapped onto persistence sentinels.
const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

// ConnectionRepository handles connection-related database operations.
type ConnectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *sql.DB, logger *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, logger: logger}
}

func (cr *ConnectionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Connection, error) {
	query := `
		SELECT id, workflow_id, source_node_id, target_node_id, channel, condition
		FROM connections
		WHERE workflow_id = $1
		ORDER BY id
	`

	return cr.queryConnections(ctx, query, workflowID)
}

func (cr *ConnectionRepository) GetBySourceNode(ctx context.Context, workflowID, sourceNodeID string) ([]*models.Connection, error) {
	query := `
		SELECT id, workflow_id, source_node_id, target_node_id, channel, condition
		FROM connections
		WHERE workflow_id = $1 AND source_node_id = $2
		ORDER BY id
	`

	return cr.queryConnections(ctx, query, workflowID, sourceNodeID)
}

func (cr *ConnectionRepository) GetByTargetNode(ctx context.Context, workflowID, targetNodeID string) ([]*models.Connection, error) {
	query := `
		SELECT id, workflow_id, source_node_id, target_node_id, channel, condition
		FROM connections
		WHERE workflow_id = $1 AND target_node_id = $2
		ORDER BY id
	`

	return cr.queryConnections(ctx, query, workflowID, targetNodeID)
}

func (cr *ConnectionRepository) Save(ctx context.Context, connection *models.Connection) error {
	var conditionJSON []byte

	if connection.Condition != nil {
		marshaled, err := json.Marshal(connection.Condition)
		if err != nil {
			return fmt.Errorf("failed to marshal connection condition: %w", err)
		}

		conditionJSON = marshaled
	}

	query := `
		INSERT INTO connections (id, workflow_id, source_node_id, target_node_id, channel, condition)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			channel = EXCLUDED.channel,
			condition = EXCLUDED.condition
	`

	_, err := cr.db.ExecContext(ctx, query,
		connection.ID,
		connection.WorkflowID,
		connection.SourceNodeID,
		connection.TargetNodeID,
		connection.Channel,
		conditionJSON,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqUniqueViolation:
				return persistence.ErrConnectionExists
			case pqCheckViolation:
				return persistence.ErrSelfConnection
			}
		}

		return fmt.Errorf("failed to save connection: %w", err)
	}

	return nil
}

func (cr *ConnectionRepository) Delete(ctx context.Context, workflowID, connectionID string) error {
	result, err := cr.db.ExecContext(ctx, "DELETE FROM connections WHERE workflow_id = $1 AND id = $2", workflowID, connectionID)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &persistence.ConnectionError{Op: "Delete", WorkflowID: workflowID, ConnectionID: connectionID, Err: persistence.ErrConnectionNotFound}
	}

	return nil
}

func (cr *ConnectionRepository) queryConnections(ctx context.Context, query string, args ...any) ([]*models.Connection, error) {
	rows, err := cr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			cr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var connections []*models.Connection

	for rows.Next() {
		connection, err := cr.scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		connections = append(connections, connection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return connections, nil
}

func (cr *ConnectionRepository) scanConnection(scanner interface {
	Scan(dest ...any) error
}) (*models.Connection, error) {
	var (
		connection    models.Connection
		conditionJSON []byte
	)

	err := scanner.Scan(
		&connection.ID,
		&connection.WorkflowID,
		&connection.SourceNodeID,
		&connection.TargetNodeID,
		&connection.Channel,
		&conditionJSON,
	)
	if err != nil {
		return nil, err
	}

	if conditionJSON != nil {
		err := json.Unmarshal(conditionJSON, &connection.Condition)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal connection condition: %w", err)
		}
	}

	return &connection, nil
}
