package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// ExecutionRepository handles run and node-execution database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (er *ExecutionRepository) SaveRun(ctx context.Context, run *models.WorkflowExecution) error {
	query := `
		INSERT INTO workflow_executions (id, workflow_id, triggered_by, status, started_at, completed_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			error_message = EXCLUDED.error_message
	`

	_, err := er.db.ExecContext(ctx, query,
		run.ID,
		run.WorkflowID,
		run.TriggeredBy,
		run.Status,
		run.StartedAt,
		run.CompletedAt,
		run.ErrorMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow execution: %w", err)
	}

	return nil
}

func (er *ExecutionRepository) RunByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `
		SELECT id, workflow_id, triggered_by, status, started_at, completed_at, error_message
		FROM workflow_executions
		WHERE id = $1
	`

	row := er.db.QueryRowContext(ctx, query, id)

	run, err := er.scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrRunNotFound
		}

		return nil, fmt.Errorf("failed to scan workflow execution: %w", err)
	}

	return run, nil
}

func (er *ExecutionRepository) RunsByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	query := `
		SELECT id, workflow_id, triggered_by, status, started_at, completed_at, error_message
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY started_at
	`

	rows, err := er.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow executions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			er.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var runs []*models.WorkflowExecution

	for rows.Next() {
		run, err := er.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow execution: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflow executions: %w", err)
	}

	return runs, nil
}

func (er *ExecutionRepository) SaveNodeExecution(ctx context.Context, nodeExecution *models.NodeExecution) error {
	var outputJSON []byte

	if nodeExecution.Output != nil {
		marshaled, err := json.Marshal(nodeExecution.Output)
		if err != nil {
			return fmt.Errorf("failed to marshal node execution output: %w", err)
		}

		outputJSON = marshaled
	}

	query := `
		INSERT INTO node_executions (id, node_id, execution_id, status, started_at, completed_at, output, logs, execution_channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			output = EXCLUDED.output,
			logs = EXCLUDED.logs,
			execution_channel = EXCLUDED.execution_channel
	`

	_, err := er.db.ExecContext(ctx, query,
		nodeExecution.ID,
		nodeExecution.NodeID,
		nodeExecution.ExecutionID,
		nodeExecution.Status,
		nodeExecution.StartedAt,
		nodeExecution.CompletedAt,
		outputJSON,
		nodeExecution.Logs,
		nodeExecution.ExecutionChannel,
	)
	if err != nil {
		return fmt.Errorf("failed to save node execution: %w", err)
	}

	return nil
}

func (er *ExecutionRepository) NodeExecutionsByRun(ctx context.Context, executionID string) ([]*models.NodeExecution, error) {
	query := `
		SELECT id, node_id, execution_id, status, started_at, completed_at, output, logs, execution_channel
		FROM node_executions
		WHERE execution_id = $1
		ORDER BY started_at
	`

	rows, err := er.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query node executions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			er.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var executions []*models.NodeExecution

	for rows.Next() {
		execution, err := er.scanNodeExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating node executions: %w", err)
	}

	return executions, nil
}

func (er *ExecutionRepository) LatestNodeExecution(ctx context.Context, nodeID string) (*models.NodeExecution, error) {
	query := `
		SELECT id, node_id, execution_id, status, started_at, completed_at, output, logs, execution_channel
		FROM node_executions
		WHERE node_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`

	row := er.db.QueryRowContext(ctx, query, nodeID)

	execution, err := er.scanNodeExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNodeExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan node execution: %w", err)
	}

	return execution, nil
}

func (er *ExecutionRepository) scanRun(scanner interface {
	Scan(dest ...any) error
}) (*models.WorkflowExecution, error) {
	var run models.WorkflowExecution

	err := scanner.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.TriggeredBy,
		&run.Status,
		&run.StartedAt,
		&run.CompletedAt,
		&run.ErrorMsg,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

func (er *ExecutionRepository) scanNodeExecution(scanner interface {
	Scan(dest ...any) error
}) (*models.NodeExecution, error) {
	var (
		execution  models.NodeExecution
		outputJSON []byte
	)

	err := scanner.Scan(
		&execution.ID,
		&execution.NodeID,
		&execution.ExecutionID,
		&execution.Status,
		&execution.StartedAt,
		&execution.CompletedAt,
		&outputJSON,
		&execution.Logs,
		&execution.ExecutionChannel,
	)
	if err != nil {
		return nil, err
	}

	if outputJSON != nil {
		err := json.Unmarshal(outputJSON, &execution.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal node execution output: %w", err)
		}
	}

	return &execution, nil
}
