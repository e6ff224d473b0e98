// Package dashboard scans all tasks, cycles and events and rolls them up
// into portfolio-level tiles, impact estimates and trailing statistics.
// All reads are side-effect-free: nothing here writes cached state back.
package dashboard

import (
	"time"

	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/objective"
	"github.com/rankwise/seotrack/internal/tracker"
)

// Scope selects which cycles the aggregator looks at.
type Scope string

const (
	// ScopeActive looks only at each task's current cycle.
	ScopeActive Scope = "active"
	// ScopeAll looks across history, preferring the most recent cycle
	// that carries an objective.
	ScopeAll Scope = "all"
)

// Urgency is the dashboard's display classification. It is deliberately a
// different concept from the evaluator's cached objective status: at_risk
// here means "due within seven days and not yet met", which the evaluator
// never derives.
type Urgency string

const (
	UrgencyOnTrack Urgency = "on_track"
	UrgencyAtRisk  Urgency = "at_risk"
	UrgencyOverdue Urgency = "overdue"
	UrgencyNoData  Urgency = "no_data"
)

// AtRiskWindow is how close a due date has to be before an unmet objective
// shows as at_risk.
const AtRiskWindow = 7 * 24 * time.Hour

// StaleWindow is how long a task may go without a measurement before it
// counts under "needs measurement".
const StaleWindow = 30 * 24 * time.Hour

// TaskRow is one enriched per-task dashboard row.
type TaskRow struct {
	TaskID      string              `json:"task_id"`
	Subject     string              `json:"subject"`
	SubjectType tracker.SubjectType `json:"subject_type"`
	TaskStatus  tracker.TaskStatus  `json:"task_status"`

	CycleID     string              `json:"cycle_id,omitempty"`
	CycleNo     int                 `json:"cycle_no,omitempty"`
	CycleStatus tracker.CycleStatus `json:"cycle_status,omitempty"`

	ObjectiveTitle  string           `json:"objective_title,omitempty"`
	KPI             kpi.Key          `json:"kpi,omitempty"`
	ObjectiveStatus objective.Status `json:"objective_status"`
	Urgency         Urgency          `json:"urgency"`

	Baseline *float64           `json:"baseline,omitempty"`
	Latest   *float64           `json:"latest,omitempty"`
	Delta    *float64           `json:"delta,omitempty"`
	Progress *objective.Display `json:"progress,omitempty"`

	DueAt          *time.Time `json:"due_at,omitempty"`
	LastMeasuredAt *time.Time `json:"last_measured_at,omitempty"`
}

// Tiles are the portfolio counters.
type Tiles struct {
	CTROnTrack int `json:"ctr_on_track"`
	CTRAtRisk  int `json:"ctr_at_risk"`
	CTROverdue int `json:"ctr_overdue"`

	RankImproved int `json:"rank_improved"`
	RankWorse    int `json:"rank_worse"`
	RankFlat     int `json:"rank_flat"`

	// Tasks where an AI answer surface is present for the subject but the
	// task's own citations are zero.
	AIVisibilityGap int `json:"ai_visibility_gap"`

	OverdueCycles    int `json:"overdue_cycles"`
	NeedsMeasurement int `json:"needs_measurement"`
}

// Impact holds estimated upside figures.
type Impact struct {
	// EstimatedExtraClicks sums, over unmet CTR objectives,
	// latest impressions × (goal ratio − current ratio).
	EstimatedExtraClicks float64 `json:"estimated_extra_clicks"`
}

// Timeseries carries the trailing statistics.
type Timeseries struct {
	// WeeklyMeasurements counts measurement events per week, keyed by the
	// week's Monday in YYYY-MM-DD form.
	WeeklyMeasurements map[string]int `json:"weekly_measurements"`
	// MedianDeltas is the trailing-30-day median improvement delta per
	// KPI, across tasks with a recent measurement.
	MedianDeltas map[kpi.Key]float64 `json:"median_deltas"`
}

// Snapshot is the full dashboard payload handed to the presentation layer.
type Snapshot struct {
	Scope      Scope      `json:"scope"`
	Tasks      []TaskRow  `json:"tasks"`
	Tiles      Tiles      `json:"tiles"`
	Impact     Impact     `json:"impact"`
	Timeseries Timeseries `json:"timeseries"`
	BuiltAt    time.Time  `json:"built_at"`
}
