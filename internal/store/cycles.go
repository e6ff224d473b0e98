package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	serrors "github.com/rankwise/seotrack/internal/errors"
	"github.com/rankwise/seotrack/internal/objective"
	"github.com/rankwise/seotrack/internal/tracker"
)

// SaveCycle inserts or updates a cycle record, including its objective and
// the cached evaluation fields (last write wins).
func (s *Store) SaveCycle(c *tracker.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	objJSON, err := marshalNullable(c.Objective)
	if err != nil {
		return fmt.Errorf("failed to encode objective: %w", err)
	}
	progressJSON, err := marshalNullable(c.ObjectiveProgress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO cycles (
		id, task_id, cycle_no, objective, objective_status, objective_progress,
		due_at, start_date, end_date, status, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		c.ID, c.TaskID, c.CycleNo,
		objJSON, string(c.ObjectiveStatus), progressJSON,
		nullTime(c.DueAt), nullTime(c.StartDate), nullTime(c.EndDate),
		string(c.Status),
		c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle: %w", err)
	}
	return nil
}

// GetCycle retrieves a cycle by ID.
func (s *Store) GetCycle(id string) (*tracker.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, task_id, cycle_no, objective, objective_status, objective_progress,
	       due_at, start_date, end_date, status, created_at, updated_at
	FROM cycles WHERE id = ?
	`

	c, err := scanCycle(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cycle %s: %w", id, serrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return c, nil
}

// ListCyclesByTask retrieves all of a task's cycles ordered by cycle_no.
func (s *Store) ListCyclesByTask(taskID string) ([]*tracker.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, task_id, cycle_no, objective, objective_status, objective_progress,
	       due_at, start_date, end_date, status, created_at, updated_at
	FROM cycles WHERE task_id = ? ORDER BY cycle_no ASC
	`

	rows, err := s.db.Query(query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*tracker.Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func scanCycle(row rowScanner) (*tracker.Cycle, error) {
	c := &tracker.Cycle{}
	var objJSON, progressJSON sql.NullString
	var objStatus, status string
	var dueAt, startDate, endDate sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&c.ID, &c.TaskID, &c.CycleNo, &objJSON, &objStatus, &progressJSON,
		&dueAt, &startDate, &endDate, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if objJSON.Valid {
		var obj objective.Objective
		if err := json.Unmarshal([]byte(objJSON.String), &obj); err != nil {
			return nil, fmt.Errorf("failed to decode objective: %w", err)
		}
		c.Objective = &obj
	}
	if progressJSON.Valid {
		var p objective.Progress
		if err := json.Unmarshal([]byte(progressJSON.String), &p); err != nil {
			return nil, fmt.Errorf("failed to decode progress: %w", err)
		}
		c.ObjectiveProgress = &p
	}

	c.ObjectiveStatus = objective.Status(objStatus)
	c.Status = tracker.CycleStatus(status)
	c.DueAt = timeFromNull(dueAt)
	c.StartDate = timeFromNull(startDate)
	c.EndDate = timeFromNull(endDate)
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return c, nil
}

// marshalNullable encodes v as JSON, mapping a nil pointer to SQL NULL.
func marshalNullable(v any) (sql.NullString, error) {
	switch val := v.(type) {
	case *objective.Objective:
		if val == nil {
			return sql.NullString{}, nil
		}
	case *objective.Progress:
		if val == nil {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
