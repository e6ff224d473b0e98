package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rankwise/seotrack/internal/dashboard"
	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/rankwise/seotrack/internal/health"
	"github.com/rankwise/seotrack/internal/metrics"
	"github.com/rankwise/seotrack/internal/objective"
	"github.com/rankwise/seotrack/internal/searchmetrics"
	"github.com/rankwise/seotrack/internal/tracker"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store     tracker.Store
	recorder  *tracker.Recorder
	lifecycle *tracker.Lifecycle
	dash      *dashboard.Aggregator
	provider  searchmetrics.Provider // nil when no provider is configured
	checker   *health.Checker
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st tracker.Store, rec *tracker.Recorder, lc *tracker.Lifecycle,
	dash *dashboard.Aggregator, provider searchmetrics.Provider,
	checker *health.Checker, m *metrics.Metrics, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:     st,
		recorder:  rec,
		lifecycle: lc,
		dash:      dash,
		provider:  provider,
		checker:   checker,
		metrics:   m,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	task, cycle, err := h.lifecycle.CreateTask(req.Subject, tracker.SubjectType(req.SubjectType))
	if err != nil {
		return h.domainError(c, "tasks", err)
	}

	return c.Status(fiber.StatusCreated).JSON(TaskResponse{Task: task, Cycle: cycle})
}

// ListTasks handles GET /api/v1/tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.store.ListTasks()
	if err != nil {
		return h.domainError(c, "tasks", err)
	}
	return c.JSON(TaskListResponse{Tasks: tasks})
}

// GetTask handles GET /api/v1/tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	task, err := h.store.GetTask(c.Params("id"))
	if err != nil {
		return h.domainError(c, "tasks", err)
	}
	return c.JSON(TaskResponse{Task: task})
}

// CreateCycle handles POST /api/v1/tasks/:id/cycles.
func (h *Handlers) CreateCycle(c *fiber.Ctx) error {
	task, err := h.store.GetTask(c.Params("id"))
	if err != nil {
		return h.domainError(c, "cycles", err)
	}

	cycle, err := h.lifecycle.CreateCycle(task)
	if err != nil {
		return h.domainError(c, "cycles", err)
	}

	return c.Status(fiber.StatusCreated).JSON(CycleResponse{Cycle: cycle})
}

// GetCycle handles GET /api/v1/cycles/:id.
func (h *Handlers) GetCycle(c *fiber.Ctx) error {
	cycle, err := h.store.GetCycle(c.Params("id"))
	if err != nil {
		return h.domainError(c, "cycles", err)
	}

	events, err := h.store.ListEvents(cycle.TaskID, cycle.ID)
	if err != nil {
		return h.domainError(c, "cycles", err)
	}

	return c.JSON(CycleResponse{Cycle: cycle, Events: events})
}

// StartCycle handles POST /api/v1/cycles/:id/start.
func (h *Handlers) StartCycle(c *fiber.Ctx) error {
	cycle, err := h.store.GetCycle(c.Params("id"))
	if err != nil {
		return h.domainError(c, "cycles", err)
	}

	if err := h.lifecycle.StartCycle(cycle); err != nil {
		return h.domainError(c, "cycles", err)
	}

	return c.JSON(CycleResponse{Cycle: cycle})
}

// CompleteCycle handles POST /api/v1/cycles/:id/complete.
func (h *Handlers) CompleteCycle(c *fiber.Ctx) error {
	var req CompleteCycleRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Action == "" {
		req.Action = string(tracker.ActionComplete)
	}

	cycle, err := h.store.GetCycle(c.Params("id"))
	if err != nil {
		return h.domainError(c, "cycles", err)
	}
	task, err := h.store.GetTask(cycle.TaskID)
	if err != nil {
		return h.domainError(c, "cycles", err)
	}

	if err := h.lifecycle.CompleteCycle(task, cycle, tracker.CompleteAction(req.Action)); err != nil {
		return h.domainError(c, "cycles", err)
	}

	return c.JSON(CycleResponse{Cycle: cycle})
}

// SetObjective handles POST /api/v1/cycles/:id/objective.
func (h *Handlers) SetObjective(c *fiber.Ctx) error {
	var in objective.Input
	if err := c.BodyParser(&in); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	cycle, err := h.store.GetCycle(c.Params("id"))
	if err != nil {
		return h.domainError(c, "objective", err)
	}

	verrs, err := h.lifecycle.SetObjective(cycle, &in)
	if err != nil {
		return h.domainError(c, "objective", err)
	}
	if len(verrs) > 0 {
		return validationResponse(c, verrs)
	}

	h.metrics.RecordEvaluation(string(cycle.ObjectiveStatus))
	return c.JSON(CycleResponse{Cycle: cycle})
}

// RecordMeasurement handles POST /api/v1/cycles/:id/measurements.
func (h *Handlers) RecordMeasurement(c *fiber.Ctx) error {
	var req MeasurementRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if len(req.Metrics) == 0 {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_metrics", "Bad Request",
			"At least one metric value is required")
	}

	cycle, err := h.store.GetCycle(c.Params("id"))
	if err != nil {
		return h.domainError(c, "measurements", err)
	}
	task, err := h.store.GetTask(cycle.TaskID)
	if err != nil {
		return h.domainError(c, "measurements", err)
	}

	event, created, err := h.recorder.Record(task, cycle, req.Metrics, req.Note, req.IsBaseline)
	if err != nil {
		h.metrics.RecordMeasurement("error")
		return h.domainError(c, "measurements", err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
		h.metrics.RecordMeasurement("recorded")
		h.metrics.RecordEvaluation(string(cycle.ObjectiveStatus))
	} else {
		h.metrics.RecordMeasurement("deduplicated")
	}

	return c.Status(status).JSON(MeasurementResponse{
		Event:        event,
		Deduplicated: !created,
		Cycle:        cycle,
	})
}

// AddNote handles POST /api/v1/cycles/:id/notes.
func (h *Handlers) AddNote(c *fiber.Ctx) error {
	var req NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	cycle, err := h.store.GetCycle(c.Params("id"))
	if err != nil {
		return h.domainError(c, "notes", err)
	}

	event, err := h.lifecycle.AddNote(cycle, req.Note)
	if err != nil {
		return h.domainError(c, "notes", err)
	}

	return c.Status(fiber.StatusCreated).JSON(EventResponse{Event: event})
}

// RefreshTask handles POST /api/v1/tasks/:id/refresh. It pulls fresh metrics
// from the configured search data provider and records them as a measurement
// on the task's active cycle.
func (h *Handlers) RefreshTask(c *fiber.Ctx) error {
	if h.provider == nil {
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"no_provider", "Service Unavailable",
			"No search data provider is configured")
	}

	task, err := h.store.GetTask(c.Params("id"))
	if err != nil {
		return h.domainError(c, "refresh", err)
	}
	if task.ActiveCycleID == nil {
		return problemResponse(c, fiber.StatusConflict,
			"no_active_cycle", "Conflict",
			"Task has no active cycle to record into")
	}

	cycle, err := h.store.GetCycle(*task.ActiveCycleID)
	if err != nil {
		return h.domainError(c, "refresh", err)
	}

	snapshot, err := h.provider.Fetch(c.Context(), task.Subject)
	if err != nil {
		h.metrics.RecordError("refresh", "provider")
		h.logger.Error().Err(err).Str("task_id", task.ID).Msg("provider fetch failed")
		return problemResponse(c, fiber.StatusBadGateway,
			"provider_error", "Bad Gateway",
			"Failed to fetch metrics: "+err.Error())
	}

	event, created, err := h.recorder.Record(task, cycle, snapshot, "provider refresh", false)
	if err != nil {
		return h.domainError(c, "refresh", err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
		h.metrics.RecordMeasurement("recorded")
	} else {
		h.metrics.RecordMeasurement("deduplicated")
	}

	return c.Status(status).JSON(MeasurementResponse{
		Event:        event,
		Deduplicated: !created,
		Cycle:        cycle,
	})
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	scope := dashboard.Scope(c.Query("scope", string(dashboard.ScopeActive)))
	if scope != dashboard.ScopeActive && scope != dashboard.ScopeAll {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_scope", "Bad Request",
			"scope must be \"active\" or \"all\"")
	}

	start := time.Now()
	snap, err := h.dash.Build(scope)
	if err != nil {
		h.metrics.RecordError("dashboard", "build")
		return h.domainError(c, "dashboard", err)
	}
	h.metrics.ObserveDashboardScan(time.Since(start).Seconds())

	return c.JSON(snap)
}

// Healthz handles GET /healthz.
func (h *Handlers) Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// Readyz handles GET /readyz.
func (h *Handlers) Readyz(c *fiber.Ctx) error {
	if !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"checks": h.checker.Cached(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": h.checker.Cached(),
	})
}

// domainError maps domain sentinel errors onto Problem Detail responses.
func (h *Handlers) domainError(c *fiber.Ctx, module string, err error) error {
	switch {
	case errors.Is(err, serrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case errors.Is(err, serrors.ErrInvalidInput):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_input", "Bad Request", err.Error())
	case errors.Is(err, serrors.ErrCycleClosed):
		return problemResponse(c, fiber.StatusConflict,
			"cycle_closed", "Conflict", err.Error())
	case errors.Is(err, serrors.ErrActiveCycle):
		return problemResponse(c, fiber.StatusConflict,
			"active_cycle_exists", "Conflict", err.Error())
	default:
		h.metrics.RecordError(module, "internal")
		h.logger.Error().Err(err).Str("module", module).Msg("request failed")
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error", err.Error())
	}
}
