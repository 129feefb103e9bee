package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// ErrWorkflowNotFound is re-exported for handlers that only import services.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow manages workflow lifecycle operations.
type Workflow struct {
	persistence persistence.Persistence
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence) *Workflow {
	return &Workflow{persistence: persistence}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflows returns every workflow.
func (w *Workflow) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// GetWorkflow returns a workflow by ID.
func (w *Workflow) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowRepository().GetByID(ctx, id)
}

// CreateWorkflowRequest carries the fields accepted on creation.
type CreateWorkflowRequest struct {
	Name   string `json:"name"    validate:"required"`
	UserID int64  `json:"user_id" validate:"required"`
}

// CreateWorkflow creates an inactive workflow.
func (w *Workflow) CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("create_workflow", "name_required", "workflow name is required", ErrWorkflowNameRequired)
	}

	if req.UserID == 0 {
		return nil, NewValidationError("create_workflow", "owner_required", "workflow owner is required", ErrOwnerRequired)
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		UserID:    req.UserID,
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// UpdateWorkflowRequest carries the mutable fields.
type UpdateWorkflowRequest struct {
	Name *string `json:"name,omitempty"`
}

// UpdateWorkflow renames a workflow.
func (w *Workflow) UpdateWorkflow(ctx context.Context, id string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, NewValidationError("update_workflow", "name_required", "workflow name is required", ErrWorkflowNameRequired)
		}

		workflow.Name = strings.TrimSpace(*req.Name)
	}

	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// SetActive toggles whether the workflow reacts to external triggers.
func (w *Workflow) SetActive(ctx context.Context, id string, active bool) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.IsActive = active
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// DeleteWorkflow removes the workflow and everything it owns.
func (w *Workflow) DeleteWorkflow(ctx context.Context, id string) error {
	return w.persistence.WorkflowRepository().Delete(ctx, id)
}

// ListRuns returns the runs of a workflow.
func (w *Workflow) ListRuns(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	if _, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	return w.persistence.ExecutionRepository().RunsByWorkflow(ctx, workflowID)
}

// ListNodeExecutions returns the node execution rows of a run.
func (w *Workflow) ListNodeExecutions(ctx context.Context, runID string) ([]*models.NodeExecution, error) {
	if _, err := w.persistence.ExecutionRepository().RunByID(ctx, runID); err != nil {
		return nil, err
	}

	return w.persistence.ExecutionRepository().NodeExecutionsByRun(ctx, runID)
}
