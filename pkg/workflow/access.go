package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellivo/areaflow/pkg/models"
)

// ErrAccessDenied is returned before any execution state is created when the
// actor may not operate on the workflow.
var ErrAccessDenied = errors.New("actor may not access this workflow")

// Actor identifies who is asking for an execution. Admin and service actors
// bypass the ownership check.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// AccessChecker decides whether an actor may execute a workflow.
type AccessChecker interface {
	CanExecute(ctx context.Context, workflow *models.Workflow, actor Actor) error
}

// OwnershipAccessChecker grants access to the workflow owner and to
// admin/service actors.
type OwnershipAccessChecker struct{}

func (OwnershipAccessChecker) CanExecute(_ context.Context, workflow *models.Workflow, actor Actor) error {
	if actor.IsAdmin || actor.UserID == workflow.UserID {
		return nil
	}

	return fmt.Errorf("workflow %s: %w", workflow.ID, ErrAccessDenied)
}
