package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwise/seotrack/internal/objective"
	"github.com/rankwise/seotrack/internal/store"
	"github.com/rankwise/seotrack/internal/tracker"
)

const fixtureYAML = `
tasks:
  - subject: /pricing
    subject_type: page
    objective:
      title: Lift CTR
      kpi: click_through_rate
      target: 0.005
      due_at: "2026-12-01"
    measurements:
      - metrics: { click_through_rate: 0.02, impressions: 8000 }
        baseline: true
        note: starting point
      - metrics: { click_through_rate: 0.026, impressions: 8100 }
    notes:
      - new titles shipped

  - subject: old campaign
    subject_type: keyword
    measurements:
      - metrics: { clicks: 40 }
        baseline: true
    completed: archive
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newSeededStore(t *testing.T, yaml string) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "seed-test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f, err := Load(writeFixture(t, yaml))
	require.NoError(t, err)
	require.NoError(t, New(st, zerolog.Nop()).Apply(f))
	return st
}

func TestApply(t *testing.T) {
	st := newSeededStore(t, fixtureYAML)

	tasks, err := st.ListTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	var pricing, campaign *tracker.Task
	for _, task := range tasks {
		switch task.Subject {
		case "/pricing":
			pricing = task
		case "old campaign":
			campaign = task
		}
	}
	require.NotNil(t, pricing)
	require.NotNil(t, campaign)

	// Measured task: active cycle with evaluated objective
	cycles, err := st.ListCyclesByTask(pricing.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	c := cycles[0]
	assert.Equal(t, tracker.CycleActive, c.Status)
	require.NotNil(t, c.Objective)
	assert.Equal(t, objective.StatusMet, c.ObjectiveStatus)

	events, err := st.ListEvents(pricing.ID, c.ID)
	require.NoError(t, err)
	ms := tracker.Measurements(events)
	require.Len(t, ms, 2)
	assert.True(t, ms[0].IsBaseline)
	assert.True(t, ms[0].CreatedAt.Before(ms[1].CreatedAt))

	// Archived task: cycle closed and pointer cleared
	cycles, err = st.ListCyclesByTask(campaign.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, tracker.CycleArchived, cycles[0].Status)
	assert.Nil(t, campaign.ActiveCycleID)
}

func TestApply_InvalidObjective(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "seed-test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f, err := Load(writeFixture(t, `
tasks:
  - subject: /broken
    objective:
      title: bad
      kpi: bounce_rate
      target: 1
`))
	require.NoError(t, err)

	err = New(st, zerolog.Nop()).Apply(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kpi")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/fixture.yaml")
	assert.Error(t, err)
}
