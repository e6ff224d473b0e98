// Package kpi defines the fixed set of tracked KPIs, their improvement
// directions, and extraction of KPI values from metrics snapshots.
package kpi

import "encoding/json"

// Key identifies a KPI.
type Key string

const (
	Clicks           Key = "clicks"
	Impressions      Key = "impressions"
	ClickThroughRate Key = "click_through_rate"
	Rank             Key = "rank"
	OpportunityScore Key = "opportunity_score"
	AIAnswerPresent  Key = "ai_answer_present"
	AICitationCount  Key = "ai_citation_count"
)

// Direction describes which way a KPI improves.
type Direction string

const (
	HigherBetter   Direction = "higher_better"
	LowerBetter    Direction = "lower_better"
	BoolTrueBetter Direction = "boolean_true_better"
)

// TargetType describes how an objective target is interpreted.
type TargetType string

const (
	TargetDelta    TargetType = "delta"
	TargetAbsolute TargetType = "absolute"
)

// Metadata describes one KPI: its direction, the snapshot fields it reads
// (primary name first, legacy aliases after), and the target type an
// objective on it defaults to.
type Metadata struct {
	Direction         Direction
	Fields            []string
	DefaultTargetType TargetType
}

// Table is the static KPI registry. The set is closed; there is no
// runtime registration.
var Table = map[Key]Metadata{
	Clicks: {
		Direction:         HigherBetter,
		Fields:            []string{"clicks"},
		DefaultTargetType: TargetDelta,
	},
	Impressions: {
		Direction:         HigherBetter,
		Fields:            []string{"impressions"},
		DefaultTargetType: TargetDelta,
	},
	ClickThroughRate: {
		Direction:         HigherBetter,
		Fields:            []string{"click_through_rate", "ctr"},
		DefaultTargetType: TargetDelta,
	},
	Rank: {
		Direction:         LowerBetter,
		Fields:            []string{"rank", "position", "avg_position"},
		DefaultTargetType: TargetDelta,
	},
	OpportunityScore: {
		Direction:         HigherBetter,
		Fields:            []string{"opportunity_score", "opportunity"},
		DefaultTargetType: TargetAbsolute,
	},
	AIAnswerPresent: {
		Direction:         BoolTrueBetter,
		Fields:            []string{"ai_answer_present", "ai_overview_present"},
		DefaultTargetType: TargetAbsolute,
	},
	AICitationCount: {
		Direction:         HigherBetter,
		Fields:            []string{"ai_citation_count", "ai_citations"},
		DefaultTargetType: TargetDelta,
	},
}

// Lookup returns the metadata for a KPI key.
func Lookup(k Key) (Metadata, bool) {
	m, ok := Table[k]
	return m, ok
}

// Valid reports whether k names a known KPI.
func Valid(k Key) bool {
	_, ok := Table[k]
	return ok
}

// Keys returns all KPI keys in a stable order.
func Keys() []Key {
	return []Key{
		Clicks, Impressions, ClickThroughRate, Rank,
		OpportunityScore, AIAnswerPresent, AICitationCount,
	}
}

// Snapshot is an open key-value metrics bag. Callers may send any subset of
// the known fields (including legacy aliases); absent keys extract as nil.
type Snapshot map[string]any

// Extract reads the KPI's value from a snapshot, trying the primary field
// name first and legacy aliases after. Boolean values map to 1/0. Returns
// nil when no recognised field is present.
func (m Metadata) Extract(s Snapshot) *float64 {
	if s == nil {
		return nil
	}
	for _, field := range m.Fields {
		raw, ok := s[field]
		if !ok || raw == nil {
			continue
		}
		if v, ok := asFloat(raw); ok {
			return &v
		}
	}
	return nil
}

// asFloat coerces the value types a JSON or YAML decoder can produce.
func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
