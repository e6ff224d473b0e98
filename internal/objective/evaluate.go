package objective

import (
	"time"

	"github.com/rankwise/seotrack/internal/kpi"
)

// Evaluate derives an objective's status and progress from its baseline and
// latest metrics snapshots. It is a pure function: no I/O, no clock reads
// beyond the supplied now.
//
// The evaluator never emits StatusAtRisk. The dashboard derives display
// urgency separately; the two classifications are intentionally distinct.
func Evaluate(obj *Objective, baseline, latest kpi.Snapshot, now time.Time) (Status, *Progress) {
	if !obj.valid() {
		return StatusNotSet, nil
	}

	meta, _ := kpi.Lookup(obj.KPI)
	baseVal := meta.Extract(baseline)
	latestVal := meta.Extract(latest)

	delta := improvementDelta(meta.Direction, baseVal, latestVal)

	met := isMet(meta.Direction, obj, latestVal, delta)

	progress := &Progress{
		Baseline:   baseVal,
		Latest:     latestVal,
		Delta:      delta,
		Target:     obj.Target,
		TargetType: obj.TargetType,
	}
	if !met {
		progress.Remaining = remaining(meta.Direction, obj, latestVal, delta)
	}

	switch {
	case met:
		return StatusMet, progress
	case obj.DueAt != nil && now.After(*obj.DueAt):
		return StatusOverdue, progress
	default:
		return StatusOnTrack, progress
	}
}

// improvementDelta computes a signed delta where positive always means
// "getting better" regardless of the KPI's natural direction. A latest
// value with no baseline yields 0: measured once, nothing to compare yet.
// No latest value yields nil.
func improvementDelta(dir kpi.Direction, baseline, latest *float64) *float64 {
	if latest == nil {
		return nil
	}
	if baseline == nil {
		zero := 0.0
		return &zero
	}

	var d float64
	switch dir {
	case kpi.LowerBetter:
		d = *baseline - *latest
	default:
		// higher_better; boolean values are already 1/0 so the same
		// formula covers boolean_true_better.
		d = *latest - *baseline
	}
	return &d
}

func isMet(dir kpi.Direction, obj *Objective, latest, delta *float64) bool {
	// The boolean KPI is met iff the latest value is true, independent of
	// the delta formula and target type.
	if dir == kpi.BoolTrueBetter {
		return latest != nil && *latest >= 1
	}

	switch obj.TargetType {
	case kpi.TargetDelta:
		return delta != nil && *delta >= obj.Target
	case kpi.TargetAbsolute:
		if latest == nil {
			return false
		}
		if dir == kpi.LowerBetter {
			return *latest <= obj.Target
		}
		return *latest >= obj.Target
	}
	return false
}

// remaining is the direction-aware distance still to cover toward the
// target. Nil when the latest value is missing for an absolute target.
func remaining(dir kpi.Direction, obj *Objective, latest, delta *float64) *float64 {
	if dir == kpi.BoolTrueBetter {
		one := 1.0
		return &one
	}

	switch obj.TargetType {
	case kpi.TargetDelta:
		d := 0.0
		if delta != nil {
			d = *delta
		}
		r := obj.Target - d
		return &r
	case kpi.TargetAbsolute:
		if latest == nil {
			return nil
		}
		var r float64
		if dir == kpi.LowerBetter {
			r = *latest - obj.Target
		} else {
			r = obj.Target - *latest
		}
		return &r
	}
	return nil
}
