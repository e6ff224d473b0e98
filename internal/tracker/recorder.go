package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/objective"
)

// IdempotencyWindow absorbs retried submissions from unreliable callers: a
// measurement landing within this window of the cycle's previous one is
// treated as the same submission.
const IdempotencyWindow = 5 * time.Minute

// Recorder appends measurement snapshots to a cycle's event log and keeps
// the cycle's cached objective status and progress fresh.
type Recorder struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewRecorder creates a measurement recorder.
func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "recorder").Logger(),
		now:    time.Now,
	}
}

// Record appends a measurement event for (task, cycle), re-evaluates the
// cycle's objective against the updated history and caches the result on
// the cycle. The returned bool is false when the submission was absorbed
// by the idempotency window and an existing event is returned instead.
//
// The idempotency check is read-then-write against a store with no
// transactions across the pair; two submissions racing inside the window
// can still both insert. Accepted weak-consistency point.
func (r *Recorder) Record(task *Task, cycle *Cycle, metrics kpi.Snapshot, note string, isBaseline bool) (*Event, bool, error) {
	if cycle.Status.Terminal() {
		return nil, false, fmt.Errorf("record measurement: cycle %s: %w", cycle.ID, serrors.ErrCycleClosed)
	}

	now := r.now().UTC()

	events, err := r.store.ListEvents(task.ID, cycle.ID)
	if err != nil {
		return nil, false, fmt.Errorf("record measurement: list events: %w", err)
	}

	if last := LatestMeasurement(events); last != nil && now.Sub(last.CreatedAt) < IdempotencyWindow {
		r.logger.Debug().
			Str("task_id", task.ID).
			Str("cycle_id", cycle.ID).
			Str("event_id", last.ID).
			Msg("measurement absorbed by idempotency window")
		return last, false, nil
	}

	ev := &Event{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		CycleID:    cycle.ID,
		Type:       EventMeasurement,
		Metrics:    metrics,
		IsBaseline: isBaseline,
		Note:       note,
		CreatedAt:  now,
	}
	if err := r.store.AppendEvent(ev); err != nil {
		return nil, false, fmt.Errorf("record measurement: append event: %w", err)
	}
	events = append(events, ev)

	// First measurement on a planned cycle starts it.
	if cycle.Status == CyclePlanned {
		cycle.Status = CycleActive
		cycle.StartDate = &now
	}

	if err := r.reevaluate(cycle, events, now); err != nil {
		return nil, false, err
	}

	cycle.UpdatedAt = now
	if err := r.store.SaveCycle(cycle); err != nil {
		return nil, false, fmt.Errorf("record measurement: save cycle: %w", err)
	}

	r.logger.Info().
		Str("task_id", task.ID).
		Str("cycle_id", cycle.ID).
		Str("event_id", ev.ID).
		Bool("is_baseline", isBaseline).
		Str("objective_status", string(cycle.ObjectiveStatus)).
		Msg("measurement recorded")

	return ev, true, nil
}

// reevaluate recomputes the cached status/progress from the event history
// and appends a status_changed audit event when the status moved.
func (r *Recorder) reevaluate(cycle *Cycle, events []*Event, now time.Time) error {
	var baselineMetrics, latestMetrics kpi.Snapshot
	if b := SelectBaseline(events); b != nil {
		baselineMetrics = b.Metrics
	}
	if l := LatestMeasurement(events); l != nil {
		latestMetrics = l.Metrics
	}

	status, progress := objective.Evaluate(cycle.Objective, baselineMetrics, latestMetrics, now)

	if cycle.Objective != nil && status != cycle.ObjectiveStatus {
		change := &Event{
			ID:        uuid.New().String(),
			TaskID:    cycle.TaskID,
			CycleID:   cycle.ID,
			Type:      EventStatusChanged,
			Note:      fmt.Sprintf("%s → %s", cycle.ObjectiveStatus, status),
			CreatedAt: now,
		}
		if err := r.store.AppendEvent(change); err != nil {
			return fmt.Errorf("record status change: %w", err)
		}
	}

	cycle.ObjectiveStatus = status
	cycle.ObjectiveProgress = progress
	return nil
}
