package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics(t *testing.T) {
	stats := ComputeStatistics(ScoreSet{95, 55, 75, 85, 65})

	assert.Equal(t, 5, stats.Count)
	assert.InDelta(t, 75.0, stats.Mean, 1e-9)
	assert.InDelta(t, 75.0, stats.Median, 1e-9)
	assert.Equal(t, 55.0, stats.Min)
	assert.Equal(t, 95.0, stats.Max)
	assert.Equal(t, [HistogramBuckets]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, stats.Histogram)
}

func TestComputeStatisticsEvenMedianAndEdges(t *testing.T) {
	stats := ComputeStatistics(ScoreSet{100, 0, 10, 90})
	assert.InDelta(t, 50.0, stats.Median, 1e-9)
	assert.Equal(t, 1, stats.Histogram[0])
	assert.Equal(t, 1, stats.Histogram[1])
	assert.Equal(t, 2, stats.Histogram[9], "100 belongs to the last bucket")
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)
	assert.Equal(t, Statistics{}, stats)
}

func TestBucketLabel(t *testing.T) {
	assert.Equal(t, "0-9", BucketLabel(0))
	assert.Equal(t, "50-59", BucketLabel(5))
	assert.Equal(t, "90-100", BucketLabel(9))
	assert.Equal(t, "", BucketLabel(10))
}

func TestApplyCurveFlatClamps(t *testing.T) {
	out := ApplyCurve(ScoreSet{98, 50, 0}, Flat(10))
	assert.Equal(t, ScoreSet{100, 60, 10}, out)

	out = ApplyCurve(ScoreSet{5}, Flat(-20))
	assert.Equal(t, ScoreSet{0}, out)
}

func TestApplyCurvePercentageBoostClamps(t *testing.T) {
	out := ApplyCurve(ScoreSet{95, 50}, PercentageBoost(1.5))
	assert.Equal(t, ScoreSet{100, 75}, out)

	for _, s := range ApplyCurve(ScoreSet{1e9, -1e9, 42}, PercentageBoost(1e6)) {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
}

func TestApplyCurveSquareRoot(t *testing.T) {
	out := ApplyCurve(ScoreSet{49, 64, 81, 100, 0}, SquareRoot())
	assert.Equal(t, ScoreSet{70, 80, 90, 100, 0}, out)
}

func TestApplyCurveSquareRootNegativeInputIsZero(t *testing.T) {
	out := ApplyCurve(ScoreSet{-4}, SquareRoot())
	assert.Equal(t, ScoreSet{0}, out)
}

func TestApplyCurveBellIdenticalScoresIsNoop(t *testing.T) {
	in := ScoreSet{75, 75, 75, 75, 75}
	assert.Equal(t, in, ApplyCurve(in, BellCurve(90, 15)))
	assert.Equal(t, ScoreSet{42}, ApplyCurve(ScoreSet{42}, BellCurve(60, 3)))

	fractional := []ScoreSet{
		{19.0 / 30 * 100, 19.0 / 30 * 100, 19.0 / 30 * 100},
		{0.1, 0.1, 0.1},
	}
	for _, v := range []float64{100.0 / 6, 100.0 / 3, 190.0 / 3, 200.0 / 3} {
		six := make(ScoreSet, 6)
		for i := range six {
			six[i] = v
		}
		fractional = append(fractional, six)
	}
	for _, in := range fractional {
		assert.Equal(t, in, ApplyCurve(in, BellCurve(85, 10)), "scores %v", in)
	}
}

func TestApplyCurveBellIdenticalSweep(t *testing.T) {
	for n := 2; n <= 40; n++ {
		for k := 0; k <= 30; k++ {
			v := float64(k) / 30 * 100
			in := make(ScoreSet, n)
			for i := range in {
				in[i] = v
			}
			require.Equal(t, in, ApplyCurve(in, BellCurve(85, 10)), "n=%d v=%v", n, v)
		}
	}
}

func TestApplyCurveBellRescales(t *testing.T) {
	in := ScoreSet{60, 70, 80}
	out := ApplyCurve(in, BellCurve(80, 5))

	stats := ComputeStatistics(out)
	assert.InDelta(t, 80.0, stats.Mean, 1e-9)
	assert.InDelta(t, 5.0, stats.StdDev, 1e-9)

	// population sd of {60,70,80} is sqrt(200/3)
	sd := math.Sqrt(200.0 / 3.0)
	assert.InDelta(t, 80+(-10/sd)*5, out[0], 1e-9)
}

func TestApplyCurveBellClamps(t *testing.T) {
	out := ApplyCurve(ScoreSet{0, 100}, BellCurve(95, 20))
	assert.Equal(t, 75.0, out[0])
	assert.Equal(t, 100.0, out[1])
}

func TestApplyCurveDoesNotMutateInput(t *testing.T) {
	in := ScoreSet{50, 60}
	_ = ApplyCurve(in, Flat(10))
	assert.Equal(t, ScoreSet{50, 60}, in)
}

func TestApplyCurveIsNotIdempotent(t *testing.T) {
	once := ApplyCurve(ScoreSet{50}, Flat(5))
	twice := ApplyCurve(once, Flat(5))
	assert.Equal(t, ScoreSet{60}, twice)
}

func TestApplyCurveUnknownKindCopies(t *testing.T) {
	out := ApplyCurve(ScoreSet{12}, CurvePolicy{Kind: "MYSTERY"})
	assert.Equal(t, ScoreSet{12}, out)
}

func TestCurvePolicyValidate(t *testing.T) {
	assert.NoError(t, Flat(5).Validate())
	assert.NoError(t, PercentageBoost(1.1).Validate())
	assert.NoError(t, SquareRoot().Validate())
	assert.NoError(t, BellCurve(75, 10).Validate())

	assert.ErrorIs(t, CurvePolicy{Kind: "NOPE"}.Validate(), ErrUnknownCurve)
	assert.Error(t, Flat(math.NaN()).Validate())
	assert.Error(t, PercentageBoost(-1).Validate())
	assert.Error(t, BellCurve(75, -1).Validate())
	assert.Error(t, BellCurve(math.Inf(1), 3).Validate())
}

func TestPreview(t *testing.T) {
	in := ScoreSet{55, 65, 75, 85, 95}
	preview := Preview(in, Flat(10))

	require.Len(t, preview.Curved, 5)
	assert.InDelta(t, 75.0, preview.Before.Mean, 1e-9)
	assert.InDelta(t, 84.0, preview.After.Mean, 1e-9)
	assert.Equal(t, 100.0, preview.After.Max)
	assert.Equal(t, in, preview.Original)
}

func TestPolicyRangesCoverEveryKind(t *testing.T) {
	ranges := PolicyRanges()
	for _, kind := range []CurveKind{CurveFlat, CurvePercentageBoost, CurveSquareRoot, CurveBell} {
		_, ok := ranges[kind]
		assert.True(t, ok, string(kind))
	}
	assert.Equal(t, 30.0, ranges[CurveFlat][0].Max)
}
