package objective

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/rankwise/seotrack/internal/kpi"
)

// Display is the presentation-ready view of an objective's progress.
type Display struct {
	Ratio    float64 `json:"ratio"`
	Baseline string  `json:"baseline"`
	Latest   string  `json:"latest"`
	Delta    string  `json:"delta"`
	Target   string  `json:"target"`
	Summary  string  `json:"summary"`
}

// kpiFormat renders values and deltas for one KPI. Dispatch is by KPI
// identity through the static table below, not by type.
type kpiFormat struct {
	value func(v float64) string
	delta func(d float64) string
}

func countValue(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func countDelta(d float64) string {
	n := int64(math.Round(d))
	if n >= 0 {
		return "+" + humanize.Comma(n)
	}
	return humanize.Comma(n)
}

func ctrValue(v float64) string {
	return trimFloat(v*100) + "%"
}

func ctrDelta(d float64) string {
	return signedFloat(d*100) + "pp"
}

func scoreValue(v float64) string {
	return trimFloat(v)
}

var formats = map[kpi.Key]kpiFormat{
	kpi.Clicks:           {value: countValue, delta: countDelta},
	kpi.Impressions:      {value: countValue, delta: countDelta},
	kpi.ClickThroughRate: {value: ctrValue, delta: ctrDelta},
	kpi.Rank: {
		value: func(v float64) string { return "#" + trimFloat(v) },
		delta: func(d float64) string { return signedFloat(d) + " positions" },
	},
	kpi.OpportunityScore: {value: scoreValue, delta: signedFloat},
	kpi.AIAnswerPresent: {
		value: func(v float64) string {
			if v >= 1 {
				return "present"
			}
			return "absent"
		},
		delta: func(d float64) string {
			switch {
			case d > 0:
				return "gained"
			case d < 0:
				return "lost"
			default:
				return "unchanged"
			}
		},
	},
	kpi.AICitationCount: {value: countValue, delta: countDelta},
}

// Format turns evaluator output into a clamped progress ratio and
// KPI-aware labels. Returns nil when there is no progress to show.
func Format(obj *Objective, p *Progress) *Display {
	if obj == nil || p == nil {
		return nil
	}
	f, ok := formats[obj.KPI]
	if !ok {
		return nil
	}

	d := &Display{
		Ratio:    Ratio(obj, p),
		Baseline: labelOrDash(f.value, p.Baseline),
		Latest:   labelOrDash(f.value, p.Latest),
		Delta:    labelOrDash(f.delta, p.Delta),
		Target:   targetLabel(obj, f),
	}
	d.Summary = fmt.Sprintf("%s → %s · %d%% of target %s",
		d.Baseline, d.Latest, int(math.Round(d.Ratio*100)), d.Target)
	return d
}

// Ratio computes how far along the objective is, clamped to [0,1].
func Ratio(obj *Objective, p *Progress) float64 {
	if obj == nil || p == nil {
		return 0
	}

	meta, ok := kpi.Lookup(obj.KPI)
	if !ok {
		return 0
	}

	if meta.Direction == kpi.BoolTrueBetter {
		if p.Latest != nil && *p.Latest >= 1 {
			return 1
		}
		return 0
	}

	switch obj.TargetType {
	case kpi.TargetDelta:
		return deltaRatio(obj, p)
	case kpi.TargetAbsolute:
		return absoluteRatio(meta.Direction, obj, p)
	}
	return 0
}

func deltaRatio(obj *Objective, p *Progress) float64 {
	// Click-through rate from a zero baseline: the delta target is read
	// as an absolute number of percentage points to reach, so there is
	// never a division against the zero baseline. A narrow exception for
	// this one KPI, not a general pattern.
	if obj.KPI == kpi.ClickThroughRate && (p.Baseline == nil || *p.Baseline == 0) {
		if p.Latest == nil {
			return 0
		}
		if obj.Target <= 0 {
			return boolRatio(*p.Latest >= obj.Target)
		}
		return clamp01(*p.Latest / obj.Target)
	}

	if p.Delta == nil {
		return 0
	}
	if obj.Target <= 0 {
		return boolRatio(*p.Delta >= obj.Target)
	}
	return clamp01(*p.Delta / obj.Target)
}

func absoluteRatio(dir kpi.Direction, obj *Objective, p *Progress) float64 {
	if p.Latest == nil {
		return 0
	}
	sign := 1.0
	if dir == kpi.LowerBetter {
		sign = -1
	}
	if p.Baseline == nil {
		return boolRatio(sign*(*p.Latest-obj.Target) >= 0)
	}

	span := sign * (obj.Target - *p.Baseline)
	if span <= 0 {
		// Zero or inverted range: the baseline already sat at or past
		// the target, so the ratio collapses to done/not-done.
		return boolRatio(sign*(*p.Latest-obj.Target) >= 0)
	}
	return clamp01(sign * (*p.Latest - *p.Baseline) / span)
}

func targetLabel(obj *Objective, f kpiFormat) string {
	if obj.TargetType == kpi.TargetDelta {
		return f.delta(obj.Target)
	}
	return f.value(obj.Target)
}

func labelOrDash(render func(float64) string, v *float64) string {
	if v == nil {
		return "–"
	}
	return render(*v)
}

func boolRatio(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// trimFloat renders with up to two decimals, dropping trailing zeros.
func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func signedFloat(v float64) string {
	if v >= 0 {
		return "+" + trimFloat(v)
	}
	return trimFloat(v)
}
