package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stellivo/areaflow/pkg/cmd"
	"github.com/stellivo/areaflow/pkg/config"
	"github.com/stellivo/areaflow/pkg/dispatch"
	"github.com/stellivo/areaflow/pkg/log"
	"github.com/stellivo/areaflow/pkg/otelhelper"
	"github.com/stellivo/areaflow/pkg/protocol"
	"github.com/stellivo/areaflow/pkg/triggers/queue"
	"github.com/stellivo/areaflow/pkg/triggers/schedule"
	"github.com/stellivo/areaflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func RunTriggerDaemon(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("trigger")
	logger.InfoContext(ctx, "Initializing AreaFlow trigger daemon")

	// The engine picks the provider up through the otel globals.
	_, shutdownTracing, err := otelhelper.NewTracer(ctx, "areaflow-trigger")
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.ErrorContext(ctx, "Failed to shut down tracing", "error", err)
		}
	}()

	persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persist.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	dispatcher := dispatch.NewHTTPDispatcher(dispatch.DefaultTimeout, logger)
	engine := workflow.NewEngine(persist, dispatcher, eventBus, logger)

	callback := func(ctx context.Context, event protocol.TriggerEvent) error {
		summary, err := engine.TriggerWorkflows(ctx, event.ServiceID, event.ActionName, event.UserID, event.Payload)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "Trigger event processed",
			"service_id", event.ServiceID,
			"action", event.ActionName,
			"triggered", summary.TriggeredCount,
			"success", summary.Success,
		)

		return nil
	}

	triggers, err := buildTriggers(ctx, command, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, trigger := range triggers {
		if err := trigger.Start(ctx, callback); err != nil {
			return fmt.Errorf("failed to start trigger: %w", err)
		}
	}

	logger.InfoContext(ctx, "Trigger daemon running", "triggers", len(triggers))

	<-ctx.Done()

	logger.Info("Shutting down trigger daemon")

	shutdownCtx := context.Background()
	for _, trigger := range triggers {
		if err := trigger.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop trigger", "error", err)
		}
	}

	return nil
}

func buildTriggers(ctx context.Context, command *cli.Command, logger *slog.Logger) ([]protocol.Trigger, error) {
	queueName := command.String("queue")
	connection := map[string]any{
		"addr":     command.String("redis-addr"),
		"password": command.String("redis-password"),
		"db":       command.String("redis-db"),
	}

	var schedules []map[string]any

	if configPath := command.String("config"); configPath != "" {
		configFile, err := config.LoadTriggerConfig(configPath)
		if err != nil {
			return nil, err
		}

		if configFile.Queue != nil {
			if configFile.Queue.Name != "" {
				queueName = configFile.Queue.Name
			}

			for k, v := range configFile.Queue.Connection {
				connection[k] = v
			}
		}

		schedules = configFile.Schedules
	}

	queueTrigger, err := queue.NewTrigger(ctx, map[string]any{
		"queue":      queueName,
		"connection": connection,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue trigger: %w", err)
	}

	triggers := []protocol.Trigger{queueTrigger}

	for _, scheduleConfig := range schedules {
		scheduleTrigger, err := schedule.NewTrigger(scheduleConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create schedule trigger: %w", err)
		}

		triggers = append(triggers, scheduleTrigger)
	}

	return triggers, nil
}
