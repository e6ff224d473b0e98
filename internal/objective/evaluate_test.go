package objective

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwise/seotrack/internal/kpi"
)

var evalNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func deltaObjective(key kpi.Key, target float64) *Objective {
	return &Objective{Title: "t", KPI: key, Target: target, TargetType: kpi.TargetDelta}
}

func absObjective(key kpi.Key, target float64) *Objective {
	return &Objective{Title: "t", KPI: key, Target: target, TargetType: kpi.TargetAbsolute}
}

func TestEvaluate_InvalidObjective(t *testing.T) {
	status, progress := Evaluate(nil, nil, nil, evalNow)
	assert.Equal(t, StatusNotSet, status)
	assert.Nil(t, progress)

	status, _ = Evaluate(&Objective{Title: "x", KPI: "bogus"}, nil, nil, evalNow)
	assert.Equal(t, StatusNotSet, status)
}

func TestEvaluate_DeltaMetBoundary(t *testing.T) {
	obj := deltaObjective(kpi.Clicks, 50)

	baseline := kpi.Snapshot{"clicks": 100}

	// Exactly on target counts as met
	status, p := Evaluate(obj, baseline, kpi.Snapshot{"clicks": 150}, evalNow)
	assert.Equal(t, StatusMet, status)
	require.NotNil(t, p.Delta)
	assert.Equal(t, 50.0, *p.Delta)
	assert.Nil(t, p.Remaining)

	// One short is not
	status, p = Evaluate(obj, baseline, kpi.Snapshot{"clicks": 149}, evalNow)
	assert.Equal(t, StatusOnTrack, status)
	require.NotNil(t, p.Remaining)
	assert.Equal(t, 1.0, *p.Remaining)
}

func TestEvaluate_LowerBetterDelta(t *testing.T) {
	// Rank 10 -> 7 is an improvement of 3
	obj := deltaObjective(kpi.Rank, 3)
	status, p := Evaluate(obj, kpi.Snapshot{"rank": 10}, kpi.Snapshot{"rank": 7}, evalNow)
	assert.Equal(t, StatusMet, status)
	require.NotNil(t, p.Delta)
	assert.Equal(t, 3.0, *p.Delta)

	// Rank got worse: negative improvement
	status, p = Evaluate(obj, kpi.Snapshot{"rank": 10}, kpi.Snapshot{"rank": 12}, evalNow)
	assert.Equal(t, StatusOnTrack, status)
	require.NotNil(t, p.Delta)
	assert.Equal(t, -2.0, *p.Delta)
}

func TestEvaluate_LowerBetterAbsolute(t *testing.T) {
	obj := absObjective(kpi.Rank, 5)

	status, _ := Evaluate(obj, kpi.Snapshot{"rank": 12}, kpi.Snapshot{"rank": 4}, evalNow)
	assert.Equal(t, StatusMet, status)

	status, p := Evaluate(obj, kpi.Snapshot{"rank": 12}, kpi.Snapshot{"rank": 7}, evalNow)
	assert.Equal(t, StatusOnTrack, status)
	require.NotNil(t, p.Remaining)
	assert.Equal(t, 2.0, *p.Remaining)
}

func TestEvaluate_BooleanMetIffLatestTrue(t *testing.T) {
	obj := absObjective(kpi.AIAnswerPresent, 1)

	status, _ := Evaluate(obj, nil, kpi.Snapshot{"ai_answer_present": true}, evalNow)
	assert.Equal(t, StatusMet, status)

	status, p := Evaluate(obj, kpi.Snapshot{"ai_answer_present": true}, kpi.Snapshot{"ai_answer_present": false}, evalNow)
	assert.Equal(t, StatusOnTrack, status)
	require.NotNil(t, p.Remaining)
	assert.Equal(t, 1.0, *p.Remaining)
}

func TestEvaluate_NoLatest(t *testing.T) {
	obj := deltaObjective(kpi.Clicks, 50)
	status, p := Evaluate(obj, kpi.Snapshot{"clicks": 100}, nil, evalNow)
	assert.Equal(t, StatusOnTrack, status)
	assert.Nil(t, p.Delta)
	assert.Nil(t, p.Latest)
	require.NotNil(t, p.Remaining)
	assert.Equal(t, 50.0, *p.Remaining)
}

func TestEvaluate_LatestOnlyDeltaZero(t *testing.T) {
	// Measured once with no baseline: delta is zero, not nil
	obj := deltaObjective(kpi.Clicks, 50)
	_, p := Evaluate(obj, nil, kpi.Snapshot{"clicks": 120}, evalNow)
	require.NotNil(t, p.Delta)
	assert.Equal(t, 0.0, *p.Delta)
}

func TestEvaluate_Overdue(t *testing.T) {
	due := evalNow.Add(-24 * time.Hour)
	obj := deltaObjective(kpi.Clicks, 50)
	obj.DueAt = &due

	status, _ := Evaluate(obj, kpi.Snapshot{"clicks": 100}, kpi.Snapshot{"clicks": 110}, evalNow)
	assert.Equal(t, StatusOverdue, status)

	// Met wins over overdue
	status, _ = Evaluate(obj, kpi.Snapshot{"clicks": 100}, kpi.Snapshot{"clicks": 160}, evalNow)
	assert.Equal(t, StatusMet, status)
}

func TestEvaluate_NeverAtRisk(t *testing.T) {
	due := evalNow.Add(time.Hour)
	obj := deltaObjective(kpi.Clicks, 1000)
	obj.DueAt = &due

	status, _ := Evaluate(obj, kpi.Snapshot{"clicks": 100}, kpi.Snapshot{"clicks": 101}, evalNow)
	assert.Equal(t, StatusOnTrack, status)
	assert.NotEqual(t, StatusAtRisk, status)
}

func TestEvaluate_CTREndToEnd(t *testing.T) {
	obj := deltaObjective(kpi.ClickThroughRate, 0.005)

	baseline := kpi.Snapshot{"click_through_rate": 0.02}

	status, p := Evaluate(obj, baseline, kpi.Snapshot{"click_through_rate": 0.025}, evalNow)
	assert.Equal(t, StatusMet, status)
	require.NotNil(t, p.Delta)
	assert.InDelta(t, 0.005, *p.Delta, 1e-9)

	status, p = Evaluate(obj, baseline, kpi.Snapshot{"ctr": 0.0235}, evalNow)
	assert.Equal(t, StatusOnTrack, status)
	require.NotNil(t, p.Remaining)
	assert.InDelta(t, 0.0015, *p.Remaining, 1e-9)
}
