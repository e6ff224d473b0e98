package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwise/seotrack/internal/kpi"
)

func fptr(v float64) *float64 { return &v }

func TestRatio_DeltaProportional(t *testing.T) {
	obj := deltaObjective(kpi.Clicks, 100)
	p := &Progress{Delta: fptr(25), Target: 100, TargetType: kpi.TargetDelta}
	assert.InDelta(t, 0.25, Ratio(obj, p), 1e-9)
}

func TestRatio_ClampsOvershoot(t *testing.T) {
	obj := deltaObjective(kpi.Clicks, 100)
	p := &Progress{Delta: fptr(250), Target: 100, TargetType: kpi.TargetDelta}
	assert.Equal(t, 1.0, Ratio(obj, p))

	p.Delta = fptr(-40)
	assert.Equal(t, 0.0, Ratio(obj, p))
}

func TestRatio_CTRZeroBaseline(t *testing.T) {
	// With no baseline CTR the target reads as an absolute level to reach
	obj := deltaObjective(kpi.ClickThroughRate, 0.02)

	p := &Progress{Latest: fptr(0.01), Target: 0.02, TargetType: kpi.TargetDelta}
	assert.InDelta(t, 0.5, Ratio(obj, p), 1e-9)

	p.Baseline = fptr(0)
	assert.InDelta(t, 0.5, Ratio(obj, p), 1e-9)

	// A real baseline uses the normal delta ratio
	p.Baseline = fptr(0.015)
	p.Delta = fptr(0.005)
	assert.InDelta(t, 0.25, Ratio(obj, p), 1e-9)
}

func TestRatio_AbsoluteLowerBetter(t *testing.T) {
	// Rank 10 -> target 4, currently at 7: half way
	obj := absObjective(kpi.Rank, 4)
	p := &Progress{Baseline: fptr(10), Latest: fptr(7), Target: 4, TargetType: kpi.TargetAbsolute}
	assert.InDelta(t, 0.5, Ratio(obj, p), 1e-9)
}

func TestRatio_AbsoluteSpanCollapse(t *testing.T) {
	// Baseline already at the target: done/not-done only
	obj := absObjective(kpi.OpportunityScore, 50)

	p := &Progress{Baseline: fptr(50), Latest: fptr(60), Target: 50, TargetType: kpi.TargetAbsolute}
	assert.Equal(t, 1.0, Ratio(obj, p))

	p.Latest = fptr(40)
	assert.Equal(t, 0.0, Ratio(obj, p))
}

func TestRatio_Boolean(t *testing.T) {
	obj := absObjective(kpi.AIAnswerPresent, 1)
	assert.Equal(t, 1.0, Ratio(obj, &Progress{Latest: fptr(1)}))
	assert.Equal(t, 0.0, Ratio(obj, &Progress{Latest: fptr(0)}))
	assert.Equal(t, 0.0, Ratio(obj, &Progress{}))
}

func TestFormat_Counts(t *testing.T) {
	obj := deltaObjective(kpi.Clicks, 500)
	p := &Progress{
		Baseline:   fptr(1200),
		Latest:     fptr(1450),
		Delta:      fptr(250),
		Target:     500,
		TargetType: kpi.TargetDelta,
	}

	d := Format(obj, p)
	require.NotNil(t, d)
	assert.Equal(t, "1,200", d.Baseline)
	assert.Equal(t, "1,450", d.Latest)
	assert.Equal(t, "+250", d.Delta)
	assert.Equal(t, "+500", d.Target)
	assert.InDelta(t, 0.5, d.Ratio, 1e-9)
	assert.Contains(t, d.Summary, "50% of target")
}

func TestFormat_CTR(t *testing.T) {
	obj := deltaObjective(kpi.ClickThroughRate, 0.005)
	p := &Progress{
		Baseline:   fptr(0.02),
		Latest:     fptr(0.025),
		Delta:      fptr(0.005),
		Target:     0.005,
		TargetType: kpi.TargetDelta,
	}

	d := Format(obj, p)
	require.NotNil(t, d)
	assert.Equal(t, "2%", d.Baseline)
	assert.Equal(t, "2.5%", d.Latest)
	assert.Equal(t, "+0.5pp", d.Delta)
	assert.Equal(t, 1.0, d.Ratio)
}

func TestFormat_Rank(t *testing.T) {
	obj := absObjective(kpi.Rank, 5)
	p := &Progress{
		Baseline:   fptr(12),
		Latest:     fptr(7),
		Delta:      fptr(5),
		Target:     5,
		TargetType: kpi.TargetAbsolute,
	}

	d := Format(obj, p)
	require.NotNil(t, d)
	assert.Equal(t, "#12", d.Baseline)
	assert.Equal(t, "#7", d.Latest)
	assert.Equal(t, "+5 positions", d.Delta)
	assert.Equal(t, "#5", d.Target)
}

func TestFormat_Boolean(t *testing.T) {
	obj := absObjective(kpi.AIAnswerPresent, 1)
	p := &Progress{
		Baseline:   fptr(0),
		Latest:     fptr(1),
		Delta:      fptr(1),
		Target:     1,
		TargetType: kpi.TargetAbsolute,
	}

	d := Format(obj, p)
	require.NotNil(t, d)
	assert.Equal(t, "absent", d.Baseline)
	assert.Equal(t, "present", d.Latest)
	assert.Equal(t, "gained", d.Delta)
	assert.Equal(t, 1.0, d.Ratio)
}

func TestFormat_MissingValuesDash(t *testing.T) {
	obj := deltaObjective(kpi.Clicks, 100)
	p := &Progress{Target: 100, TargetType: kpi.TargetDelta}

	d := Format(obj, p)
	require.NotNil(t, d)
	assert.Equal(t, "–", d.Baseline)
	assert.Equal(t, "–", d.Latest)
	assert.Equal(t, "–", d.Delta)
	assert.Equal(t, 0.0, d.Ratio)
}

func TestFormat_NilInputs(t *testing.T) {
	assert.Nil(t, Format(nil, &Progress{}))
	assert.Nil(t, Format(&Objective{KPI: kpi.Clicks}, nil))
}
