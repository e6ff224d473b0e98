// Package objective holds the objective value object, its validator, the
// pure evaluator that derives objective status from measurements, and the
// progress formatter that turns evaluator output into display strings.
package objective

import (
	"time"

	"github.com/rankwise/seotrack/internal/kpi"
)

// Status classifies an objective's health. Only the evaluator writes it.
type Status string

const (
	StatusNotSet  Status = "not_set"
	StatusOnTrack Status = "on_track"
	StatusAtRisk  Status = "at_risk"
	StatusOverdue Status = "overdue"
	StatusMet     Status = "met"
)

// Objective is a normalised target for exactly one KPI within one cycle.
// For the boolean-direction KPI the target is stored as 1/0.
type Objective struct {
	Title      string         `json:"title"`
	KPI        kpi.Key        `json:"kpi"`
	Target     float64        `json:"target"`
	TargetType kpi.TargetType `json:"target_type"`
	DueAt      *time.Time     `json:"due_at,omitempty"`
	Plan       string         `json:"plan,omitempty"`
}

// valid reports whether the objective is well-formed enough to evaluate.
// Objectives built by Validate always pass; this guards hand-built or
// deserialised values.
func (o *Objective) valid() bool {
	if o == nil || o.Title == "" {
		return false
	}
	if !kpi.Valid(o.KPI) {
		return false
	}
	return o.TargetType == kpi.TargetDelta || o.TargetType == kpi.TargetAbsolute
}

// Progress is the evaluator's measurement snapshot for an objective.
// Baseline, Latest and Delta are nil when the underlying field was absent
// from the relevant metrics snapshot.
type Progress struct {
	Baseline   *float64       `json:"baseline"`
	Latest     *float64       `json:"latest"`
	Delta      *float64       `json:"delta"`
	Target     float64        `json:"target"`
	TargetType kpi.TargetType `json:"target_type"`
	// Remaining is the direction-aware distance still to cover. Only set
	// while the objective is not met.
	Remaining *float64 `json:"remaining_to_target,omitempty"`
}
