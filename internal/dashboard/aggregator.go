package dashboard

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/objective"
	"github.com/rankwise/seotrack/internal/tracker"
)

// Aggregator builds dashboard snapshots from the durable store. It
// re-derives baseline/latest from the raw event log itself rather than
// trusting the recorder's cached fields, so a read can never mutate state.
type Aggregator struct {
	store  tracker.Store
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a dashboard aggregator.
func New(store tracker.Store, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger.With().Str("component", "dashboard").Logger(),
		now:    time.Now,
	}
}

// rowData carries the raw material a task row was built from, for tallying.
type rowData struct {
	obj             *objective.Objective
	baselineMetrics kpi.Snapshot
	latestMetrics   kpi.Snapshot
	events          []*tracker.Event
}

// Build scans all tasks and produces a dashboard snapshot for the scope.
// A single task with missing or malformed data reports null KPI fields and
// counts under needs_measurement; it never aborts the scan.
func (a *Aggregator) Build(scope Scope) (*Snapshot, error) {
	if scope != ScopeActive && scope != ScopeAll {
		scope = ScopeActive
	}
	now := a.now().UTC()

	tasks, err := a.store.ListTasks()
	if err != nil {
		return nil, fmt.Errorf("dashboard: list tasks: %w", err)
	}

	snap := &Snapshot{
		Scope:   scope,
		BuiltAt: now,
		Tasks:   []TaskRow{},
		Timeseries: Timeseries{
			WeeklyMeasurements: map[string]int{},
			MedianDeltas:       map[kpi.Key]float64{},
		},
	}
	deltas := map[kpi.Key][]float64{}

	for _, task := range tasks {
		if scope == ScopeActive && task.Status == tracker.TaskArchived {
			continue
		}
		row, data := a.buildRow(task, scope, now)
		snap.Tasks = append(snap.Tasks, row)
		a.tally(row, data, snap, now, deltas)
	}

	for key, vs := range deltas {
		snap.Timeseries.MedianDeltas[key] = Median(vs)
	}

	a.logger.Debug().
		Str("scope", string(scope)).
		Int("tasks", len(snap.Tasks)).
		Msg("dashboard built")

	return snap, nil
}

// buildRow enriches one task. Event-log problems degrade the row to
// no_data instead of failing the whole scan.
func (a *Aggregator) buildRow(task *tracker.Task, scope Scope, now time.Time) (TaskRow, rowData) {
	row := TaskRow{
		TaskID:          task.ID,
		Subject:         task.Subject,
		SubjectType:     task.SubjectType,
		TaskStatus:      task.Status,
		ObjectiveStatus: objective.StatusNotSet,
		Urgency:         UrgencyNoData,
	}
	var data rowData

	cycles, err := a.store.ListCyclesByTask(task.ID)
	if err != nil {
		a.logger.Warn().Err(err).Str("task_id", task.ID).Msg("skipping task cycles")
		return row, data
	}
	cycle := relevantCycle(task, cycles, scope)
	if cycle == nil {
		return row, data
	}

	row.CycleID = cycle.ID
	row.CycleNo = cycle.CycleNo
	row.CycleStatus = cycle.Status
	row.DueAt = cycle.DueAt
	data.obj = cycle.Objective
	if cycle.Objective != nil {
		row.ObjectiveTitle = cycle.Objective.Title
		row.KPI = cycle.Objective.KPI
		if cycle.Objective.DueAt != nil {
			row.DueAt = cycle.Objective.DueAt
		}
	}

	events, err := a.store.ListEvents(task.ID, cycle.ID)
	if err != nil {
		a.logger.Warn().Err(err).Str("task_id", task.ID).Str("cycle_id", cycle.ID).Msg("skipping task events")
		return row, data
	}
	data.events = events

	baseline := tracker.SelectBaseline(events)
	latest := tracker.LatestMeasurement(events)
	if latest != nil {
		t := latest.CreatedAt
		row.LastMeasuredAt = &t
		data.latestMetrics = latest.Metrics
	}
	if baseline != nil {
		data.baselineMetrics = baseline.Metrics
	}

	status, progress := objective.Evaluate(cycle.Objective, data.baselineMetrics, data.latestMetrics, now)
	row.ObjectiveStatus = status
	if progress != nil {
		row.Baseline = progress.Baseline
		row.Latest = progress.Latest
		row.Delta = progress.Delta
		row.Progress = objective.Format(cycle.Objective, progress)
	}
	row.Urgency = classify(cycle.Objective, status, latest, row.DueAt, now)

	return row, data
}

// relevantCycle picks which cycle represents the task for the scope:
// the active-cycle pointer (falling back to the highest-numbered
// non-terminal cycle) for the narrow scope, or the most recent cycle
// carrying an objective for the broad one.
func relevantCycle(task *tracker.Task, cycles []*tracker.Cycle, scope Scope) *tracker.Cycle {
	if len(cycles) == 0 {
		return nil
	}

	if scope == ScopeActive {
		if task.ActiveCycleID != nil {
			for _, c := range cycles {
				if c.ID == *task.ActiveCycleID {
					return c
				}
			}
		}
		var best *tracker.Cycle
		for _, c := range cycles {
			if c.Status.Terminal() {
				continue
			}
			if best == nil || c.CycleNo > best.CycleNo {
				best = c
			}
		}
		return best
	}

	var withObjective, newest *tracker.Cycle
	for _, c := range cycles {
		if newest == nil || c.CycleNo > newest.CycleNo {
			newest = c
		}
		if c.Objective == nil {
			continue
		}
		if withObjective == nil || c.CycleNo > withObjective.CycleNo {
			withObjective = c
		}
	}
	if withObjective != nil {
		return withObjective
	}
	return newest
}

// classify derives the display urgency. Distinct from the evaluator's
// status: met shows as on_track, and an unmet objective due within seven
// days shows as at_risk.
func classify(obj *objective.Objective, status objective.Status, latest *tracker.Event, dueAt *time.Time, now time.Time) Urgency {
	if obj == nil || latest == nil {
		return UrgencyNoData
	}
	switch status {
	case objective.StatusMet:
		return UrgencyOnTrack
	case objective.StatusOverdue:
		return UrgencyOverdue
	case objective.StatusNotSet:
		return UrgencyNoData
	}
	if dueAt != nil && dueAt.Sub(now) <= AtRiskWindow {
		return UrgencyAtRisk
	}
	return UrgencyOnTrack
}

// tally folds one row into tiles, impact and timeseries.
func (a *Aggregator) tally(row TaskRow, data rowData, snap *Snapshot, now time.Time, deltas map[kpi.Key][]float64) {
	switch row.KPI {
	case kpi.ClickThroughRate:
		switch row.Urgency {
		case UrgencyOnTrack:
			snap.Tiles.CTROnTrack++
		case UrgencyAtRisk:
			snap.Tiles.CTRAtRisk++
		case UrgencyOverdue:
			snap.Tiles.CTROverdue++
		}
	case kpi.Rank:
		if row.Delta != nil {
			switch {
			case *row.Delta > 0:
				snap.Tiles.RankImproved++
			case *row.Delta < 0:
				snap.Tiles.RankWorse++
			default:
				snap.Tiles.RankFlat++
			}
		}
	}

	if row.Urgency == UrgencyOverdue {
		snap.Tiles.OverdueCycles++
	}
	if row.LastMeasuredAt == nil || now.Sub(*row.LastMeasuredAt) > StaleWindow {
		snap.Tiles.NeedsMeasurement++
	}

	// AI visibility gap: an answer surface exists for the subject but the
	// task itself is never cited in it.
	present := kpi.Table[kpi.AIAnswerPresent].Extract(data.latestMetrics)
	citations := kpi.Table[kpi.AICitationCount].Extract(data.latestMetrics)
	if present != nil && *present >= 1 && citations != nil && *citations == 0 {
		snap.Tiles.AIVisibilityGap++
	}

	snap.Impact.EstimatedExtraClicks += extraClicks(row, data)

	for _, e := range tracker.Measurements(data.events) {
		week := weekStart(e.CreatedAt).Format("2006-01-02")
		snap.Timeseries.WeeklyMeasurements[week]++
	}

	if row.LastMeasuredAt != nil && now.Sub(*row.LastMeasuredAt) <= StaleWindow {
		collectDeltas(data.baselineMetrics, data.latestMetrics, deltas)
	}
}

// extraClicks estimates upside for an unmet CTR objective:
// latest impressions × (goal ratio − current ratio).
func extraClicks(row TaskRow, data rowData) float64 {
	if row.KPI != kpi.ClickThroughRate || data.obj == nil {
		return 0
	}
	if row.ObjectiveStatus == objective.StatusMet || row.ObjectiveStatus == objective.StatusNotSet {
		return 0
	}
	impressions := kpi.Table[kpi.Impressions].Extract(data.latestMetrics)
	current := kpi.Table[kpi.ClickThroughRate].Extract(data.latestMetrics)
	if impressions == nil || current == nil {
		return 0
	}

	goal := data.obj.Target
	if data.obj.TargetType == kpi.TargetDelta {
		if base := kpi.Table[kpi.ClickThroughRate].Extract(data.baselineMetrics); base != nil {
			goal += *base
		}
	}

	extra := *impressions * (goal - *current)
	if extra < 0 {
		return 0
	}
	return extra
}

// collectDeltas accumulates per-KPI improvement deltas for the trailing
// median. Only KPIs present in both snapshots contribute.
func collectDeltas(baseline, latest kpi.Snapshot, deltas map[kpi.Key][]float64) {
	for _, key := range kpi.Keys() {
		meta := kpi.Table[key]
		b := meta.Extract(baseline)
		l := meta.Extract(latest)
		if b == nil || l == nil {
			continue
		}
		var d float64
		if meta.Direction == kpi.LowerBetter {
			d = *b - *l
		} else {
			d = *l - *b
		}
		deltas[key] = append(deltas[key], d)
	}
}
