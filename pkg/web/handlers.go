package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stellivo/areaflow/pkg/services"
	"github.com/stellivo/areaflow/pkg/workflow"
)

type APIHandlers struct {
	workflowService   *services.Workflow
	nodeService       *services.Node
	connectionService *services.Connection
	catalogService    *services.Catalog
	engine            *workflow.Engine
	validator         *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	nodeService *services.Node,
	connectionService *services.Connection,
	catalogService *services.Catalog,
	engine *workflow.Engine,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService:   workflowService,
		nodeService:       nodeService,
		connectionService: connectionService,
		catalogService:    catalogService,
		engine:            engine,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.workflowService.HealthCheck(c.Context())
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"message": message,
		})
	}

	return c.JSON(fiber.Map{"status": "healthy", "message": message})
}

// Workflows

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.ListWorkflows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req services.CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.CreateWorkflow(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	wf, err := h.workflowService.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req services.UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	updated, err := h.workflowService.UpdateWorkflow(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	var req ActivateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	updated, err := h.workflowService.SetActive(c.Context(), c.Params("id"), req.Active)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.DeleteWorkflow(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Nodes

func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	nodes, err := h.nodeService.ListNodes(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(nodes)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	var req services.CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	created, err := h.nodeService.CreateNode(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	node, err := h.nodeService.GetNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	var req services.UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	updated, err := h.nodeService.UpdateNode(c.Context(), c.Params("id"), c.Params("nodeId"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ToggleNodeTrigger(c fiber.Ctx) error {
	updated, err := h.nodeService.ToggleTrigger(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	if err := h.nodeService.DeleteNode(c.Context(), c.Params("id"), c.Params("nodeId")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteNode starts a new run rooted at the node.
func (h *APIHandlers) ExecuteNode(c fiber.Ctx) error {
	var req ExecuteNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	actor := workflow.Actor{UserID: req.UserID, IsAdmin: req.Admin}

	result, err := h.engine.Execute(c.Context(), c.Params("id"), c.Params("nodeId"), req.Input, "", actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// Connections

func (h *APIHandlers) GetConnections(c fiber.Ctx) error {
	connections, err := h.connectionService.ListConnections(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(connections)
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	var req services.CreateConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.connectionService.CreateConnection(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	if err := h.connectionService.DeleteConnection(c.Context(), c.Params("id"), c.Params("connectionId")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Executions

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	runs, err := h.workflowService.ListRuns(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(runs)
}

func (h *APIHandlers) GetRunNodes(c fiber.Ctx) error {
	nodeExecutions, err := h.workflowService.ListNodeExecutions(c.Context(), c.Params("runId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(nodeExecutions)
}

// Trigger ingress

// TriggerWorkflows fans an external event out to every matching workflow of
// the user. Partial failure is reported per workflow inside the summary.
func (h *APIHandlers) TriggerWorkflows(c fiber.Ctx) error {
	var req TriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	summary, err := h.engine.TriggerWorkflows(c.Context(), c.Params("serviceId"), c.Params("actionName"), req.UserID, req.Payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

// Catalog

func (h *APIHandlers) GetServices(c fiber.Ctx) error {
	servicesList, err := h.catalogService.ListServices(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(servicesList)
}

func (h *APIHandlers) RegisterService(c fiber.Ctx) error {
	var req services.RegisterServiceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.catalogService.RegisterService(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) SyncService(c fiber.Ctx) error {
	if err := h.catalogService.SyncService(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
