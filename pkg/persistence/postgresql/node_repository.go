package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// NodeRepository handles node-related database operations.
type NodeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository.
func NewNodeRepository(db *sql.DB, logger *slog.Logger) *NodeRepository {
	return &NodeRepository{db: db, logger: logger}
}

const nodeColumns = `id, workflow_id, name, action_id, reaction_id, logic_type, conf,
		is_triggered, position_x, position_y, last_executed, execution_count`

func (nr *NodeRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE workflow_id = $1
		ORDER BY id
	`

	rows, err := nr.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			nr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var nodes []*models.Node

	for rows.Next() {
		node, err := nr.scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}

		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

func (nr *NodeRepository) GetByID(ctx context.Context, workflowID, nodeID string) (*models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE workflow_id = $1 AND id = $2
	`

	row := nr.db.QueryRowContext(ctx, query, workflowID, nodeID)

	node, err := nr.scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewNodeError("GetByID", workflowID, nodeID, persistence.ErrNodeNotFound)
		}

		return nil, fmt.Errorf("failed to scan node: %w", err)
	}

	return node, nil
}

func (nr *NodeRepository) Save(ctx context.Context, node *models.Node) error {
	confJSON, err := json.Marshal(node.Conf)
	if err != nil {
		return fmt.Errorf("failed to marshal node configuration: %w", err)
	}

	query := `
		INSERT INTO nodes (id, workflow_id, name, action_id, reaction_id, logic_type, conf,
			is_triggered, position_x, position_y, last_executed, execution_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			action_id = EXCLUDED.action_id,
			reaction_id = EXCLUDED.reaction_id,
			logic_type = EXCLUDED.logic_type,
			conf = EXCLUDED.conf,
			is_triggered = EXCLUDED.is_triggered,
			position_x = EXCLUDED.position_x,
			position_y = EXCLUDED.position_y,
			last_executed = EXCLUDED.last_executed,
			execution_count = EXCLUDED.execution_count
	`

	_, err = nr.db.ExecContext(ctx, query,
		node.ID,
		node.WorkflowID,
		node.Name,
		node.ActionID,
		node.ReactionID,
		node.LogicType,
		confJSON,
		node.IsTriggered,
		node.PositionX,
		node.PositionY,
		node.LastExecuted,
		node.ExecutionCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save node: %w", err)
	}

	return nil
}

// Delete removes a node; connections touching it cascade at the schema level.
func (nr *NodeRepository) Delete(ctx context.Context, workflowID, nodeID string) error {
	result, err := nr.db.ExecContext(ctx, "DELETE FROM nodes WHERE workflow_id = $1 AND id = $2", workflowID, nodeID)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewNodeError("Delete", workflowID, nodeID, persistence.ErrNodeNotFound)
	}

	return nil
}

func (nr *NodeRepository) FindTriggerNodes(ctx context.Context, workflowID, actionID string) ([]*models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE workflow_id = $1 AND action_id = $2 AND is_triggered = true
		ORDER BY id
	`

	rows, err := nr.db.QueryContext(ctx, query, workflowID, actionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trigger nodes: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			nr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var nodes []*models.Node

	for rows.Next() {
		node, err := nr.scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trigger node: %w", err)
		}

		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trigger nodes: %w", err)
	}

	return nodes, nil
}

func (nr *NodeRepository) RecordExecution(ctx context.Context, nodeID string, at time.Time) error {
	query := `
		UPDATE nodes
		SET execution_count = execution_count + 1, last_executed = $2
		WHERE id = $1
	`

	result, err := nr.db.ExecContext(ctx, query, nodeID, at)
	if err != nil {
		return fmt.Errorf("failed to record node execution: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewNodeError("RecordExecution", "", nodeID, persistence.ErrNodeNotFound)
	}

	return nil
}

func (nr *NodeRepository) scanNode(scanner interface {
	Scan(dest ...any) error
}) (*models.Node, error) {
	var (
		node      models.Node
		logicType *string
		confJSON  []byte
	)

	err := scanner.Scan(
		&node.ID,
		&node.WorkflowID,
		&node.Name,
		&node.ActionID,
		&node.ReactionID,
		&logicType,
		&confJSON,
		&node.IsTriggered,
		&node.PositionX,
		&node.PositionY,
		&node.LastExecuted,
		&node.ExecutionCount,
	)
	if err != nil {
		return nil, err
	}

	if logicType != nil {
		lt := models.LogicType(*logicType)
		node.LogicType = &lt
	}

	if confJSON != nil {
		err := json.Unmarshal(confJSON, &node.Conf)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal node configuration: %w", err)
		}
	}

	return &node, nil
}
