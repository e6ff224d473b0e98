package store

import (
	"database/sql"
	"fmt"
	"time"

	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/rankwise/seotrack/internal/tracker"
)

// SaveTask inserts or updates a task (last write wins).
func (s *Store) SaveTask(t *tracker.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	INSERT OR REPLACE INTO tasks (
		id, subject, subject_type, status, active_cycle_id, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var activeCycle sql.NullString
	if t.ActiveCycleID != nil {
		activeCycle = sql.NullString{String: *t.ActiveCycleID, Valid: true}
	}

	_, err := s.db.Exec(query,
		t.ID, t.Subject, string(t.SubjectType), string(t.Status),
		activeCycle,
		t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(id string) (*tracker.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, subject, subject_type, status, active_cycle_id, created_at, updated_at
	FROM tasks WHERE id = ?
	`

	t, err := scanTask(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, serrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks retrieves all tasks, oldest first.
func (s *Store) ListTasks() ([]*tracker.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, subject, subject_type, status, active_cycle_id, created_at, updated_at
	FROM tasks ORDER BY created_at ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*tracker.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*tracker.Task, error) {
	t := &tracker.Task{}
	var subjectType, status string
	var activeCycle sql.NullString
	var createdAt, updatedAt int64

	if err := row.Scan(&t.ID, &t.Subject, &subjectType, &status, &activeCycle, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	t.SubjectType = tracker.SubjectType(subjectType)
	t.Status = tracker.TaskStatus(status)
	if activeCycle.Valid {
		t.ActiveCycleID = &activeCycle.String
	}
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return t, nil
}
