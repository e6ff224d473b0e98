package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		subject         TEXT NOT NULL,
		subject_type    TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'active',
		active_cycle_id TEXT,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS cycles (
		id                 TEXT PRIMARY KEY,
		task_id            TEXT NOT NULL REFERENCES tasks(id),
		cycle_no           INTEGER NOT NULL,
		objective          TEXT,
		objective_status   TEXT NOT NULL DEFAULT 'not_set',
		objective_progress TEXT,
		due_at             INTEGER,
		start_date         INTEGER,
		end_date           INTEGER,
		status             TEXT NOT NULL DEFAULT 'planned',
		created_at         INTEGER NOT NULL,
		updated_at         INTEGER NOT NULL,
		UNIQUE(task_id, cycle_no)
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_task ON cycles(task_id, cycle_no);

	CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		task_id     TEXT NOT NULL REFERENCES tasks(id),
		cycle_id    TEXT NOT NULL REFERENCES cycles(id),
		event_type  TEXT NOT NULL,
		metrics     TEXT,
		is_baseline INTEGER NOT NULL DEFAULT 0,
		note        TEXT,
		created_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_cycle ON events(task_id, cycle_id, created_at);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}

func (s *Store) migrateV2() error {
	// Check current version
	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil || version >= "2" {
		return nil // already at v2+
	}

	schema := `
	CREATE INDEX IF NOT EXISTS idx_events_baseline ON events(cycle_id, is_baseline, created_at);
	CREATE INDEX IF NOT EXISTS idx_cycles_status ON cycles(status);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}
