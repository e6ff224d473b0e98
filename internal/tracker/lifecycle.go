package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/objective"
)

// CompleteAction picks the terminal state a cycle is closed with.
type CompleteAction string

const (
	ActionComplete CompleteAction = "complete"
	ActionArchive  CompleteAction = "archive"
)

// Lifecycle creates, completes and archives cycles and maintains each
// task's single active-cycle pointer.
type Lifecycle struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewLifecycle creates a cycle lifecycle manager.
func NewLifecycle(store Store, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		store:  store,
		logger: logger.With().Str("component", "lifecycle").Logger(),
		now:    time.Now,
	}
}

// CreateTask creates a task together with its first cycle.
func (m *Lifecycle) CreateTask(subject string, subjectType SubjectType) (*Task, *Cycle, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, nil, fmt.Errorf("create task: subject: %w", serrors.ErrInvalidInput)
	}
	if subjectType != SubjectPage && subjectType != SubjectKeyword {
		return nil, nil, fmt.Errorf("create task: subject_type %q: %w", subjectType, serrors.ErrInvalidInput)
	}

	now := m.now().UTC()
	task := &Task{
		ID:          uuid.New().String(),
		Subject:     subject,
		SubjectType: subjectType,
		Status:      TaskActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.SaveTask(task); err != nil {
		return nil, nil, fmt.Errorf("create task: %w", err)
	}

	cycle, err := m.CreateCycle(task)
	if err != nil {
		return nil, nil, err
	}
	return task, cycle, nil
}

// CreateCycle opens the task's next cycle. Cycle numbers are strictly
// increasing per task and never reused; the new cycle becomes the task's
// active cycle and starts planned.
func (m *Lifecycle) CreateCycle(task *Task) (*Cycle, error) {
	if task.ActiveCycleID != nil {
		return nil, fmt.Errorf("create cycle for task %s: %w", task.ID, serrors.ErrActiveCycle)
	}

	existing, err := m.store.ListCyclesByTask(task.ID)
	if err != nil {
		return nil, fmt.Errorf("create cycle: list cycles: %w", err)
	}
	maxNo := 0
	for _, c := range existing {
		if c.CycleNo > maxNo {
			maxNo = c.CycleNo
		}
	}

	now := m.now().UTC()
	cycle := &Cycle{
		ID:              uuid.New().String(),
		TaskID:          task.ID,
		CycleNo:         maxNo + 1,
		ObjectiveStatus: objective.StatusNotSet,
		Status:          CyclePlanned,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := m.store.SaveCycle(cycle); err != nil {
		return nil, fmt.Errorf("create cycle: %w", err)
	}

	task.ActiveCycleID = &cycle.ID
	task.UpdatedAt = now
	if err := m.store.SaveTask(task); err != nil {
		return nil, fmt.Errorf("create cycle: update task pointer: %w", err)
	}

	if err := m.appendAudit(cycle, EventCreated, fmt.Sprintf("cycle %d created", cycle.CycleNo), now); err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("task_id", task.ID).
		Str("cycle_id", cycle.ID).
		Int("cycle_no", cycle.CycleNo).
		Msg("cycle created")

	return cycle, nil
}

// StartCycle moves a planned cycle to active.
func (m *Lifecycle) StartCycle(cycle *Cycle) error {
	if cycle.Status != CyclePlanned {
		return fmt.Errorf("start cycle %s in status %s: %w", cycle.ID, cycle.Status, serrors.ErrInvalidInput)
	}
	now := m.now().UTC()
	cycle.Status = CycleActive
	cycle.StartDate = &now
	cycle.UpdatedAt = now
	if err := m.store.SaveCycle(cycle); err != nil {
		return fmt.Errorf("start cycle: %w", err)
	}
	return nil
}

// CompleteCycle closes a cycle as completed or archived. Both states are
// terminal; if this was the task's active cycle, the pointer is cleared.
func (m *Lifecycle) CompleteCycle(task *Task, cycle *Cycle, action CompleteAction) error {
	if cycle.Status.Terminal() {
		return fmt.Errorf("complete cycle %s: %w", cycle.ID, serrors.ErrCycleClosed)
	}

	var status CycleStatus
	var auditType EventType
	switch action {
	case ActionComplete:
		status, auditType = CycleCompleted, EventCycleCompleted
	case ActionArchive:
		status, auditType = CycleArchived, EventCycleArchived
	default:
		return fmt.Errorf("complete cycle: action %q: %w", action, serrors.ErrInvalidInput)
	}

	now := m.now().UTC()
	cycle.Status = status
	cycle.EndDate = &now
	cycle.UpdatedAt = now
	if err := m.store.SaveCycle(cycle); err != nil {
		return fmt.Errorf("complete cycle: %w", err)
	}

	if task.ActiveCycleID != nil && *task.ActiveCycleID == cycle.ID {
		task.ActiveCycleID = nil
		task.UpdatedAt = now
		if err := m.store.SaveTask(task); err != nil {
			return fmt.Errorf("complete cycle: clear task pointer: %w", err)
		}
	}

	if err := m.appendAudit(cycle, auditType, fmt.Sprintf("cycle %d %s", cycle.CycleNo, status), now); err != nil {
		return err
	}

	m.logger.Info().
		Str("task_id", task.ID).
		Str("cycle_id", cycle.ID).
		Str("status", string(status)).
		Msg("cycle closed")

	return nil
}

// SetObjective attaches, replaces or clears the cycle's objective. An empty
// input clears it. A non-empty input is validated; validation failures are
// returned as a list for the caller to surface, never as a hard error. On
// success the objective is evaluated immediately against the cycle's
// existing event history and the fresh status/progress cached.
func (m *Lifecycle) SetObjective(cycle *Cycle, in *objective.Input) ([]objective.ValidationError, error) {
	if cycle.Status.Terminal() {
		return nil, fmt.Errorf("set objective on cycle %s: %w", cycle.ID, serrors.ErrCycleClosed)
	}

	now := m.now().UTC()

	if in == nil || (in.Title == "" && in.KPI == "" && in.Target == nil) {
		cycle.Objective = nil
		cycle.ObjectiveStatus = objective.StatusNotSet
		cycle.ObjectiveProgress = nil
		cycle.UpdatedAt = now
		if err := m.store.SaveCycle(cycle); err != nil {
			return nil, fmt.Errorf("clear objective: %w", err)
		}
		return nil, nil
	}

	obj, verrs := objective.Validate(*in)
	if len(verrs) > 0 {
		return verrs, nil
	}

	events, err := m.store.ListEvents(cycle.TaskID, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("set objective: list events: %w", err)
	}

	var baselineMetrics, latestMetrics kpi.Snapshot
	if b := SelectBaseline(events); b != nil {
		baselineMetrics = b.Metrics
	}
	if l := LatestMeasurement(events); l != nil {
		latestMetrics = l.Metrics
	}

	status, progress := objective.Evaluate(&obj, baselineMetrics, latestMetrics, now)

	cycle.Objective = &obj
	cycle.ObjectiveStatus = status
	cycle.ObjectiveProgress = progress
	cycle.DueAt = obj.DueAt
	cycle.UpdatedAt = now
	if err := m.store.SaveCycle(cycle); err != nil {
		return nil, fmt.Errorf("set objective: %w", err)
	}

	m.logger.Info().
		Str("cycle_id", cycle.ID).
		Str("kpi", string(obj.KPI)).
		Str("objective_status", string(status)).
		Msg("objective set")

	return nil, nil
}

// AddNote appends a free-text note event to the cycle's log.
func (m *Lifecycle) AddNote(cycle *Cycle, note string) (*Event, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("add note: %w", serrors.ErrInvalidInput)
	}
	now := m.now().UTC()
	ev := &Event{
		ID:        uuid.New().String(),
		TaskID:    cycle.TaskID,
		CycleID:   cycle.ID,
		Type:      EventNote,
		Note:      note,
		CreatedAt: now,
	}
	if err := m.store.AppendEvent(ev); err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return ev, nil
}

func (m *Lifecycle) appendAudit(cycle *Cycle, typ EventType, note string, now time.Time) error {
	ev := &Event{
		ID:        uuid.New().String(),
		TaskID:    cycle.TaskID,
		CycleID:   cycle.ID,
		Type:      typ,
		Note:      note,
		CreatedAt: now,
	}
	if err := m.store.AppendEvent(ev); err != nil {
		return fmt.Errorf("append %s event: %w", typ, err)
	}
	return nil
}
