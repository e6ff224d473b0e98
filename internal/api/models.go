package api

import (
	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/objective"
	"github.com/rankwise/seotrack/internal/tracker"
)

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
	// Errors carries field-level validation failures when present.
	Errors []objective.ValidationError `json:"errors,omitempty"`
}

// CreateTaskRequest creates a task together with its first cycle.
type CreateTaskRequest struct {
	Subject     string `json:"subject"`
	SubjectType string `json:"subject_type"`
}

// TaskResponse wraps a task, optionally with its newly created cycle.
type TaskResponse struct {
	Task  *tracker.Task  `json:"task"`
	Cycle *tracker.Cycle `json:"cycle,omitempty"`
}

// TaskListResponse lists all tasks.
type TaskListResponse struct {
	Tasks []*tracker.Task `json:"tasks"`
}

// CycleResponse wraps a cycle with its event log.
type CycleResponse struct {
	Cycle  *tracker.Cycle   `json:"cycle"`
	Events []*tracker.Event `json:"events,omitempty"`
}

// MeasurementRequest submits a metrics snapshot for a cycle.
type MeasurementRequest struct {
	Metrics    kpi.Snapshot `json:"metrics"`
	Note       string       `json:"note,omitempty"`
	IsBaseline bool         `json:"is_baseline,omitempty"`
}

// MeasurementResponse reports the stored (or deduplicated) event and the
// cycle with its refreshed cached evaluation.
type MeasurementResponse struct {
	Event *tracker.Event `json:"event"`
	// Deduplicated is true when the submission was absorbed by the
	// idempotency window and Event is the pre-existing one.
	Deduplicated bool           `json:"deduplicated"`
	Cycle        *tracker.Cycle `json:"cycle"`
}

// CompleteCycleRequest closes a cycle.
type CompleteCycleRequest struct {
	Action string `json:"action"` // "complete" or "archive"
}

// NoteRequest appends a free-text note to a cycle's log.
type NoteRequest struct {
	Note string `json:"note"`
}

// EventResponse wraps a single event.
type EventResponse struct {
	Event *tracker.Event `json:"event"`
}
