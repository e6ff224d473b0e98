package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/tracker"
)

// AppendEvent inserts one immutable event. Events are never updated or
// deleted; the log is append-only.
func (s *Store) AppendEvent(e *tracker.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metricsJSON sql.NullString
	if e.Metrics != nil {
		b, err := json.Marshal(e.Metrics)
		if err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
		metricsJSON = sql.NullString{String: string(b), Valid: true}
	}

	query := `
	INSERT INTO events (
		id, task_id, cycle_id, event_type, metrics, is_baseline, note, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		e.ID, e.TaskID, e.CycleID, string(e.Type),
		metricsJSON, boolToInt(e.IsBaseline),
		sql.NullString{String: e.Note, Valid: e.Note != ""},
		e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListEvents returns a cycle's events ordered by creation time.
func (s *Store) ListEvents(taskID, cycleID string) ([]*tracker.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, task_id, cycle_id, event_type, metrics, is_baseline, note, created_at
	FROM events WHERE task_id = ? AND cycle_id = ?
	ORDER BY created_at ASC
	`

	rows, err := s.db.Query(query, taskID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*tracker.Event
	for rows.Next() {
		e := &tracker.Event{}
		var eventType string
		var metricsJSON, note sql.NullString
		var isBaseline int
		var createdAt int64

		err := rows.Scan(&e.ID, &e.TaskID, &e.CycleID, &eventType, &metricsJSON, &isBaseline, &note, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		e.Type = tracker.EventType(eventType)
		if metricsJSON.Valid {
			var m kpi.Snapshot
			if err := json.Unmarshal([]byte(metricsJSON.String), &m); err != nil {
				return nil, fmt.Errorf("failed to decode metrics: %w", err)
			}
			e.Metrics = m
		}
		e.IsBaseline = isBaseline != 0
		if note.Valid {
			e.Note = note.String
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
