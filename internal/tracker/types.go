// Package tracker holds the core domain model: tasks, optimisation cycles
// and their append-only measurement event log, plus the measurement
// recorder and the cycle lifecycle manager.
package tracker

import (
	"time"

	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/objective"
)

// TaskStatus is the lifecycle state of an optimisation task.
type TaskStatus string

const (
	TaskActive   TaskStatus = "active"
	TaskPaused   TaskStatus = "paused"
	TaskArchived TaskStatus = "archived"
)

// SubjectType distinguishes what a task optimises.
type SubjectType string

const (
	SubjectPage    SubjectType = "page"
	SubjectKeyword SubjectType = "keyword"
)

// Task is one page or keyword under optimisation. A task points at most at
// one current cycle.
type Task struct {
	ID            string      `json:"id"`
	Subject       string      `json:"subject"`
	SubjectType   SubjectType `json:"subject_type"`
	Status        TaskStatus  `json:"status"`
	ActiveCycleID *string     `json:"active_cycle_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// CycleStatus is the lifecycle state of a cycle. Transitions are
// one-directional: planned → active → completed or archived.
type CycleStatus string

const (
	CyclePlanned   CycleStatus = "planned"
	CycleActive    CycleStatus = "active"
	CycleCompleted CycleStatus = "completed"
	CycleArchived  CycleStatus = "archived"
)

// Terminal reports whether the status ends the cycle.
func (s CycleStatus) Terminal() bool {
	return s == CycleCompleted || s == CycleArchived
}

// Cycle is one bounded iteration of work on a task. It carries at most one
// objective; the cached status and progress are only ever written from
// evaluator output.
type Cycle struct {
	ID                string               `json:"id"`
	TaskID            string               `json:"task_id"`
	CycleNo           int                  `json:"cycle_no"`
	Objective         *objective.Objective `json:"objective,omitempty"`
	ObjectiveStatus   objective.Status     `json:"objective_status"`
	ObjectiveProgress *objective.Progress  `json:"objective_progress,omitempty"`
	DueAt             *time.Time           `json:"due_at,omitempty"`
	StartDate         *time.Time           `json:"start_date,omitempty"`
	EndDate           *time.Time           `json:"end_date,omitempty"`
	Status            CycleStatus          `json:"status"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// EventType classifies entries in a cycle's event log.
type EventType string

const (
	EventCreated        EventType = "created"
	EventMeasurement    EventType = "measurement"
	EventStatusChanged  EventType = "status_changed"
	EventNote           EventType = "note"
	EventCycleCompleted EventType = "cycle_completed"
	EventCycleArchived  EventType = "cycle_archived"
)

// Event is an immutable, append-only log entry for one (task, cycle) pair,
// ordered by creation time. Measurement events carry a metrics snapshot
// and may be flagged as a deliberate new baseline.
type Event struct {
	ID         string       `json:"id"`
	TaskID     string       `json:"task_id"`
	CycleID    string       `json:"cycle_id"`
	Type       EventType    `json:"event_type"`
	Metrics    kpi.Snapshot `json:"metrics,omitempty"`
	IsBaseline bool         `json:"is_baseline,omitempty"`
	Note       string       `json:"note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Store is the durable-store contract the tracker depends on. The SQLite
// implementation lives in internal/store; tests use an in-memory fake.
// The store offers last-write-wins per record and no internal locking.
type Store interface {
	SaveTask(t *Task) error
	GetTask(id string) (*Task, error)
	ListTasks() ([]*Task, error)

	SaveCycle(c *Cycle) error
	GetCycle(id string) (*Cycle, error)
	ListCyclesByTask(taskID string) ([]*Cycle, error)

	AppendEvent(e *Event) error
	// ListEvents returns the cycle's events ordered by creation time.
	ListEvents(taskID, cycleID string) ([]*Event, error)
}
