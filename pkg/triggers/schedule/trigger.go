// Package schedule provides a cron-based trigger receiver.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stellivo/areaflow/pkg/protocol"
)

// Trigger fires a fixed trigger event on a cron schedule. It stands in for
// services that have no push delivery, e.g. a daily digest action.
type Trigger struct {
	ID         string
	CronExpr   string
	ServiceID  string
	ActionName string
	UserID     int64
	Payload    map[string]any
	Enabled    bool

	cron     *cron.Cron
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	id, _ := config["id"].(string)
	cronExpr, _ := config["cron"].(string)
	serviceID, _ := config["service_id"].(string)
	actionName, _ := config["action"].(string)
	payload, _ := config["payload"].(map[string]any)

	var userID int64

	switch v := config["user_id"].(type) {
	case int64:
		userID = v
	case int:
		userID = int64(v)
	case float64:
		userID = int64(v)
	}

	trigger := &Trigger{
		ID:         id,
		CronExpr:   cronExpr,
		ServiceID:  serviceID,
		ActionName: actionName,
		UserID:     userID,
		Payload:    payload,
		Enabled:    true,
		logger: logger.With(
			"module", "schedule_trigger",
			"id", id,
			"cron", cronExpr,
		),
	}

	if err := trigger.Validate(); err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.ID == "" {
		return errors.New("schedule trigger ID is required")
	}

	if t.CronExpr == "" {
		return errors.New("schedule trigger cron expression is required")
	}

	if _, err := cron.ParseStandard(t.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	if t.ServiceID == "" || t.ActionName == "" {
		return errors.New("schedule trigger requires service_id and action")
	}

	if t.UserID == 0 {
		return errors.New("schedule trigger requires user_id")
	}

	return nil
}

func (t *Trigger) Start(_ context.Context, callback protocol.TriggerCallback) error {
	if !t.Enabled {
		t.logger.Info("ScheduleTrigger is disabled.")

		return nil
	}

	t.logger.Info("Starting ScheduleTrigger")
	t.callback = callback

	t.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := t.cron.AddFunc(t.CronExpr, t.run)
	if err != nil {
		return fmt.Errorf("failed to add cron job for trigger %s: %w", t.ID, err)
	}

	t.logger.Info("Added cron job for trigger", "entry", id)
	t.cron.Start()

	return nil
}

func (t *Trigger) run() {
	t.logger.Info("Cron job triggered")

	payload := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range t.Payload {
		payload[k] = v
	}

	event := protocol.TriggerEvent{
		ServiceID:  t.ServiceID,
		ActionName: t.ActionName,
		UserID:     t.UserID,
		Payload:    payload,
	}

	go func() {
		if err := t.callback(context.Background(), event); err != nil {
			t.logger.Error("Error triggering workflows for schedule", "error", err)
		}
	}()
}

func (t *Trigger) Stop(_ context.Context) error {
	t.logger.Info("Stopping ScheduleTrigger", "id", t.ID)

	if t.cron != nil {
		t.cron.Stop()
	}

	return nil
}
