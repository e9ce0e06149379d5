package credit_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvecal/credit"
	"github.com/meenmo/curvecal/errs"
)

func TestHazardRateCurve_SurvivalProbability(t *testing.T) {
	t.Parallel()

	hc, err := credit.NewHazardRateCurve("ACME", []float64{1, 3}, []float64{0.02, 0.04})
	require.NoError(t, err)

	tests := []struct {
		t    float64
		want float64
	}{
		{t: -1, want: 1},
		{t: 0, want: 1},
		{t: 0.5, want: math.Exp(-0.01)},
		{t: 1, want: math.Exp(-0.02)},
		{t: 2, want: math.Exp(-0.06)},
		{t: 3, want: math.Exp(-0.10)},
		// flat extrapolation of the last rate
		{t: 5, want: math.Exp(-0.18)},
	}
	for _, tc := range tests {
		require.InDelta(t, tc.want, hc.SurvivalProbability(tc.t), 1e-14, "t=%v", tc.t)
	}

	require.Equal(t, 0.02, hc.HazardRate(0.3))
	require.Equal(t, 0.02, hc.HazardRate(1))
	require.Equal(t, 0.04, hc.HazardRate(1.5))
	require.Equal(t, 0.04, hc.HazardRate(10))
}

func TestHazardRateCurve_Empty(t *testing.T) {
	t.Parallel()

	hc, err := credit.NewHazardRateCurve("ACME", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, hc.Len())
	require.Equal(t, 1.0, hc.SurvivalProbability(10))
	require.Equal(t, 0.0, hc.HazardRate(10))
}

func TestHazardRateCurve_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		curve string
		times []float64
		rates []float64
	}{
		{name: "no name", curve: "", times: []float64{1}, rates: []float64{0.01}},
		{name: "length mismatch", curve: "ACME", times: []float64{1, 2}, rates: []float64{0.01}},
		{name: "zero time", curve: "ACME", times: []float64{0}, rates: []float64{0.01}},
		{name: "unordered", curve: "ACME", times: []float64{2, 1}, rates: []float64{0.01, 0.01}},
		{name: "negative rate", curve: "ACME", times: []float64{1}, rates: []float64{-0.01}},
		{name: "NaN rate", curve: "ACME", times: []float64{1}, rates: []float64{math.NaN()}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := credit.NewHazardRateCurve(tc.curve, tc.times, tc.rates)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestHazardRateCurve_ExtendKeepsOriginal(t *testing.T) {
	t.Parallel()

	base, err := credit.NewHazardRateCurve("ACME", []float64{1}, []float64{0.02})
	require.NoError(t, err)
	ext, err := base.Extend(3, 0.03)
	require.NoError(t, err)

	require.Equal(t, []float64{1}, base.Times())
	require.Equal(t, []float64{1, 3}, ext.Times())
	require.Equal(t, []float64{0.02, 0.03}, ext.Rates())
	require.Equal(t, base.SurvivalProbability(1), ext.SurvivalProbability(1))

	_, err = ext.Extend(2, 0.01)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	moved, err := ext.WithParameters([]float64{0.01, 0.01})
	require.NoError(t, err)
	require.Equal(t, []float64{0.01, 0.01}, moved.(*credit.HazardRateCurve).Rates())
	_, err = ext.WithParameters([]float64{0.01})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
