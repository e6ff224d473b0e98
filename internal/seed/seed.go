// Package seed loads demo fixtures from YAML files into the store. It is
// used by the seed command to bootstrap a local database for development.
package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rankwise/seotrack/internal/kpi"
	"github.com/rankwise/seotrack/internal/objective"
	"github.com/rankwise/seotrack/internal/tracker"
)

// Fixture is the root of a seed YAML file.
type Fixture struct {
	Tasks []TaskFixture `yaml:"tasks"`
}

// TaskFixture describes one task with its first cycle's content.
type TaskFixture struct {
	Subject      string               `yaml:"subject"`
	SubjectType  string               `yaml:"subject_type"`
	Objective    *ObjectiveFixture    `yaml:"objective"`
	Measurements []MeasurementFixture `yaml:"measurements"`
	Notes        []string             `yaml:"notes"`
	// Completed closes the cycle after seeding, "complete" or "archive".
	Completed string `yaml:"completed"`
}

// ObjectiveFixture mirrors the objective input fields.
type ObjectiveFixture struct {
	Title      string `yaml:"title"`
	KPI        string `yaml:"kpi"`
	Target     any    `yaml:"target"`
	TargetType string `yaml:"target_type"`
	DueAt      string `yaml:"due_at"`
	Plan       string `yaml:"plan"`
}

// MeasurementFixture is one metrics snapshot. At is optional; when absent
// measurements are spread one day apart ending now, so the idempotency
// window never collapses them.
type MeasurementFixture struct {
	Metrics  map[string]any `yaml:"metrics"`
	Baseline bool           `yaml:"baseline"`
	Note     string         `yaml:"note"`
	At       string         `yaml:"at"`
}

// Load parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Seeder applies fixtures against the store.
type Seeder struct {
	store     tracker.Store
	lifecycle *tracker.Lifecycle
	logger    zerolog.Logger
}

// New creates a Seeder.
func New(store tracker.Store, logger zerolog.Logger) *Seeder {
	return &Seeder{
		store:     store,
		lifecycle: tracker.NewLifecycle(store, logger),
		logger:    logger.With().Str("component", "seed").Logger(),
	}
}

// Apply loads every task in the fixture. Measurement events are written
// directly so their timestamps can lie in the past; the objective is set
// afterwards so its cached evaluation sees the full history.
func (s *Seeder) Apply(f *Fixture) error {
	for i := range f.Tasks {
		if err := s.applyTask(&f.Tasks[i]); err != nil {
			return fmt.Errorf("task %q: %w", f.Tasks[i].Subject, err)
		}
	}
	return nil
}

func (s *Seeder) applyTask(tf *TaskFixture) error {
	subjectType := tracker.SubjectType(tf.SubjectType)
	if subjectType == "" {
		subjectType = tracker.SubjectPage
	}

	task, cycle, err := s.lifecycle.CreateTask(tf.Subject, subjectType)
	if err != nil {
		return err
	}

	if len(tf.Measurements) > 0 {
		if err := s.lifecycle.StartCycle(cycle); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for i, mf := range tf.Measurements {
		at := now.Add(-time.Duration(len(tf.Measurements)-1-i) * 24 * time.Hour)
		if mf.At != "" {
			parsed, err := time.Parse(time.RFC3339, mf.At)
			if err != nil {
				parsed, err = time.Parse("2006-01-02", mf.At)
			}
			if err != nil {
				return fmt.Errorf("measurement %d: bad at %q", i, mf.At)
			}
			at = parsed.UTC()
		}

		ev := &tracker.Event{
			ID:         uuid.New().String(),
			TaskID:     task.ID,
			CycleID:    cycle.ID,
			Type:       tracker.EventMeasurement,
			Metrics:    kpi.Snapshot(mf.Metrics),
			IsBaseline: mf.Baseline,
			Note:       mf.Note,
			CreatedAt:  at,
		}
		if err := s.store.AppendEvent(ev); err != nil {
			return fmt.Errorf("measurement %d: %w", i, err)
		}
	}

	if tf.Objective != nil {
		in := objective.Input{
			Title:      tf.Objective.Title,
			KPI:        tf.Objective.KPI,
			Target:     tf.Objective.Target,
			TargetType: tf.Objective.TargetType,
			DueAt:      tf.Objective.DueAt,
			Plan:       tf.Objective.Plan,
		}
		verrs, err := s.lifecycle.SetObjective(cycle, &in)
		if err != nil {
			return err
		}
		if len(verrs) > 0 {
			return fmt.Errorf("objective invalid: %s: %s", verrs[0].Field, verrs[0].Message)
		}
	}

	for _, note := range tf.Notes {
		if _, err := s.lifecycle.AddNote(cycle, note); err != nil {
			return err
		}
	}

	switch tf.Completed {
	case "":
	case "complete":
		if err := s.lifecycle.CompleteCycle(task, cycle, tracker.ActionComplete); err != nil {
			return err
		}
	case "archive":
		if err := s.lifecycle.CompleteCycle(task, cycle, tracker.ActionArchive); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown completed action %q", tf.Completed)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("subject", task.Subject).
		Int("measurements", len(tf.Measurements)).
		Msg("seeded task")

	return nil
}
