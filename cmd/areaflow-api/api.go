// Package main provides the AreaFlow API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/stellivo/areaflow/pkg/dispatch"
	"github.com/stellivo/areaflow/pkg/eventbus"
	"github.com/stellivo/areaflow/pkg/persistence"
	"github.com/stellivo/areaflow/pkg/services"
	"github.com/stellivo/areaflow/pkg/web"
	"github.com/stellivo/areaflow/pkg/workflow"
)

const catalogSyncTimeout = 10 * time.Second

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	dispatcher := dispatch.NewHTTPDispatcher(dispatch.DefaultTimeout, a.logger)
	engine := workflow.NewEngine(a.persistence, dispatcher, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(a.persistence),
		services.NewNode(a.persistence),
		services.NewConnection(a.persistence),
		services.NewCatalog(a.persistence, catalogSyncTimeout, a.logger),
		engine,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("AreaFlow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/trigger/:serviceId/:actionName", handlers.TriggerWorkflows)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)

	// Node endpoints:
	w.Get("/:id/nodes", handlers.GetNodes)
	w.Post("/:id/nodes", handlers.CreateNode)
	w.Get("/:id/nodes/:nodeId", handlers.GetNode)
	w.Patch("/:id/nodes/:nodeId", handlers.UpdateNode)
	w.Delete("/:id/nodes/:nodeId", handlers.DeleteNode)
	w.Post("/:id/nodes/:nodeId/toggle-trigger", handlers.ToggleNodeTrigger)
	w.Post("/:id/nodes/:nodeId/execute", handlers.ExecuteNode)

	// Connection endpoints:
	w.Get("/:id/connections", handlers.GetConnections)
	w.Post("/:id/connections", handlers.CreateConnection)
	w.Delete("/:id/connections/:connectionId", handlers.DeleteConnection)

	// Execution history:
	w.Get("/:id/executions", handlers.GetRuns)
	app.Get("/executions/:runId/nodes", handlers.GetRunNodes)

	// Service catalog:
	s := app.Group("/services")
	s.Get("/", handlers.GetServices)
	s.Post("/", handlers.RegisterService)
	s.Post("/:id/sync", handlers.SyncService)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
