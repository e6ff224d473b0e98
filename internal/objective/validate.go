package objective

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rankwise/seotrack/internal/kpi"
)

// Input is a raw objective as submitted by a caller, before validation.
// Target is untyped because its required type depends on the KPI.
type Input struct {
	Title      string `json:"title"`
	KPI        string `json:"kpi"`
	Target     any    `json:"target"`
	TargetType string `json:"target_type,omitempty"`
	DueAt      string `json:"due_at,omitempty"`
	Plan       string `json:"plan,omitempty"`
}

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// dueAtLayouts are the accepted due-date forms, normalised to UTC.
var dueAtLayouts = []string{time.RFC3339, "2006-01-02"}

// Validate normalises and validates a raw objective input against the KPI
// table. It never fails hard: the returned error list is empty exactly when
// the objective is usable, and the caller decides how to surface failures.
func Validate(in Input) (Objective, []ValidationError) {
	var errs []ValidationError

	title := strings.TrimSpace(in.Title)
	if title == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}

	key := kpi.Key(strings.TrimSpace(in.KPI))
	meta, known := kpi.Lookup(key)
	if !known {
		errs = append(errs, ValidationError{Field: "kpi", Message: fmt.Sprintf("unknown kpi %q", in.KPI)})
	}

	var target float64
	if known {
		var terr *ValidationError
		target, terr = normalizeTarget(meta.Direction, in.Target)
		if terr != nil {
			errs = append(errs, *terr)
		}
	}

	targetType := kpi.TargetType(in.TargetType)
	switch {
	case in.TargetType == "" && known:
		targetType = meta.DefaultTargetType
	case targetType != kpi.TargetDelta && targetType != kpi.TargetAbsolute:
		errs = append(errs, ValidationError{
			Field:   "target_type",
			Message: fmt.Sprintf("target_type must be %q or %q", kpi.TargetDelta, kpi.TargetAbsolute),
		})
	}

	var dueAt *time.Time
	if in.DueAt != "" {
		parsed, ok := parseDueAt(in.DueAt)
		if !ok {
			errs = append(errs, ValidationError{Field: "due_at", Message: fmt.Sprintf("cannot parse %q as a date", in.DueAt)})
		} else {
			dueAt = &parsed
		}
	}

	if len(errs) > 0 {
		return Objective{}, errs
	}

	return Objective{
		Title:      title,
		KPI:        key,
		Target:     target,
		TargetType: targetType,
		DueAt:      dueAt,
		Plan:       strings.TrimSpace(in.Plan),
	}, nil
}

// normalizeTarget enforces the target's type against the KPI direction:
// boolean for the boolean-direction KPI, numeric otherwise. Booleans are
// stored as 1/0.
func normalizeTarget(dir kpi.Direction, raw any) (float64, *ValidationError) {
	if raw == nil {
		return 0, &ValidationError{Field: "target", Message: "target is required"}
	}

	if dir == kpi.BoolTrueBetter {
		b, ok := raw.(bool)
		if !ok {
			return 0, &ValidationError{Field: "target", Message: "target must be a boolean for this kpi"}
		}
		if b {
			return 1, nil
		}
		return 0, nil
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err == nil {
			return f, nil
		}
	}
	return 0, &ValidationError{Field: "target", Message: "target must be a number for this kpi"}
}

func parseDueAt(raw string) (time.Time, bool) {
	for _, layout := range dueAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
