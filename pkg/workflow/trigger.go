package workflow

import (
	"context"
	"fmt"

	"github.com/stellivo/areaflow/pkg/events"
)

// TriggerOutcome reports one workflow execution started by an external
// trigger event.
type TriggerOutcome struct {
	WorkflowID  string `json:"workflow_id"`
	NodeID      string `json:"node_id"`
	ExecutionID string `json:"execution_id,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// TriggerSummary aggregates the outcome of a trigger ingress call. Partial
// failure across matched workflows is reported per workflow inside Results,
// never as an all-or-nothing failure of the call.
type TriggerSummary struct {
	Success        bool             `json:"success"`
	TriggeredCount int              `json:"triggered_count"`
	Results        []TriggerOutcome `json:"results"`
}

// TriggerWorkflows executes, for every active workflow of the user with a
// trigger-flagged node referencing the named action, one run rooted at that
// node. Each matched workflow runs to completion before the next is
// examined; a failed run becomes an error entry in the summary.
func (e *Engine) TriggerWorkflows(ctx context.Context, serviceID, actionName string, userID int64, payload map[string]any) (*TriggerSummary, error) {
	logger := e.logger.With("service_id", serviceID, "action_name", actionName, "user_id", userID)

	action, err := e.persistence.CatalogRepository().ActionByName(ctx, serviceID, actionName)
	if err != nil {
		return nil, fmt.Errorf("fetch action %s/%s: %w", serviceID, actionName, err)
	}

	workflows, err := e.persistence.WorkflowRepository().GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active workflows of user %d: %w", userID, err)
	}

	summary := &TriggerSummary{Success: true, Results: []TriggerOutcome{}}

	for _, wf := range workflows {
		triggerNodes, err := e.persistence.NodeRepository().FindTriggerNodes(ctx, wf.ID, action.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch trigger nodes of workflow %s: %w", wf.ID, err)
		}

		if len(triggerNodes) == 0 {
			continue
		}

		e.publish(ctx, wf.ID, events.WorkflowTriggered{
			BaseEvent:  events.NewBaseEvent(events.WorkflowTriggeredEvent, wf.ID),
			ServiceID:  serviceID,
			ActionName: actionName,
			UserID:     userID,
			Payload:    payload,
		})

		for _, node := range triggerNodes {
			summary.TriggeredCount++

			result, err := e.Execute(ctx, wf.ID, node.ID, payload, "", Actor{UserID: userID})
			if err != nil {
				logger.WarnContext(ctx, "Triggered execution failed", "workflow_id", wf.ID, "node_id", node.ID, "error", err)

				summary.Success = false
				summary.Results = append(summary.Results, TriggerOutcome{
					WorkflowID: wf.ID,
					NodeID:     node.ID,
					Error:      err.Error(),
				})

				continue
			}

			summary.Results = append(summary.Results, TriggerOutcome{
				WorkflowID:  wf.ID,
				NodeID:      node.ID,
				ExecutionID: result.ExecutionID,
				Success:     true,
			})
		}
	}

	logger.InfoContext(ctx, "Trigger processed", "triggered_count", summary.TriggeredCount)

	return summary, nil
}
