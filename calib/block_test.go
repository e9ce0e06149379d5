package calib_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/errs"
	"github.com/meenmo/curvecal/instrument"
)

func TestNewCurveBuildingBlock_RejectsInvalidTiling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []calib.BlockEntry
	}{
		{name: "empty", entries: nil},
		{name: "gap", entries: []calib.BlockEntry{{Name: "A", Start: 0, Len: 2}, {Name: "B", Start: 3, Len: 1}}},
		{name: "overlap", entries: []calib.BlockEntry{{Name: "A", Start: 0, Len: 2}, {Name: "B", Start: 1, Len: 2}}},
		{name: "not from zero", entries: []calib.BlockEntry{{Name: "A", Start: 1, Len: 2}}},
		{name: "zero length", entries: []calib.BlockEntry{{Name: "A", Start: 0, Len: 0}}},
		{name: "duplicate", entries: []calib.BlockEntry{{Name: "A", Start: 0, Len: 1}, {Name: "A", Start: 1, Len: 1}}},
		{name: "empty name", entries: []calib.BlockEntry{{Name: "", Start: 0, Len: 1}}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := calib.NewCurveBuildingBlock(tc.entries)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestCurveBuildingBlock_Lookup(t *testing.T) {
	t.Parallel()

	block, err := calib.NewCurveBuildingBlockFromSizes([]string{"OIS", "LIBOR3M"}, []int{3, 2})
	require.NoError(t, err)
	require.Equal(t, 5, block.TotalParameters())
	require.Equal(t, []string{"OIS", "LIBOR3M"}, block.Names())

	start, err := block.Start("LIBOR3M")
	require.NoError(t, err)
	require.Equal(t, 3, start)
	n, err := block.NbParameters("LIBOR3M")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	s, err := block.Slice([]float64{1, 2, 3, 4, 5}, "LIBOR3M")
	require.NoError(t, err)
	require.Equal(t, []float64{4, 5}, s)

	_, err = block.Start("EURIBOR")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Contains(t, err.Error(), "EURIBOR")
	_, err = block.NbParameters("EURIBOR")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

// Every unit tiles [0, total) with no overlap, whatever its curve sizes.
func TestMultiCurveBundle_BlockTilesParameterVector(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(20240611))
	for trial := 0; trial < 200; trial++ {
		nbCurves := 1 + rng.Intn(5)
		bundles := make([]*calib.SingleCurveBundle, nbCurves)
		for c := range bundles {
			size := 1 + rng.Intn(6)
			bundles[c] = singleCurve(t, fmt.Sprintf("C%d", c), size)
		}
		unit, err := calib.NewMultiCurveBundle(bundles...)
		require.NoError(t, err)

		block := unit.Block()
		covered := make([]int, block.TotalParameters())
		for _, e := range block.Entries() {
			for k := e.Start; k < e.Start+e.Len; k++ {
				covered[k]++
			}
		}
		for k, n := range covered {
			require.Equalf(t, 1, n, "trial %d: parameter %d covered %d times", trial, k, n)
		}
		require.Equal(t, unit.NumberOfInstruments(), block.TotalParameters())
		require.Len(t, unit.StartingPoint(), block.TotalParameters())
	}
}

func TestCurveBuildingBlockBundle_MissingBlock(t *testing.T) {
	t.Parallel()

	bundle := calib.NewCurveBuildingBlockBundle()
	_, err := bundle.Block("missing")
	require.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestCurveBuildingBlockBundle_AddAllLastWriteWins(t *testing.T) {
	t.Parallel()

	block, err := calib.NewCurveBuildingBlockFromSizes([]string{"A", "B"}, []int{1, 1})
	require.NoError(t, err)

	first := calib.NewCurveBuildingBlockBundle()
	require.NoError(t, first.Add("A", block, mat.NewDense(1, 2, []float64{1, 0})))
	require.NoError(t, first.Add("B", block, mat.NewDense(1, 2, []float64{0, 1})))

	second := calib.NewCurveBuildingBlockBundle()
	require.NoError(t, second.Add("A", block, mat.NewDense(1, 2, []float64{7, 7})))

	first.AddAll(second)
	require.Equal(t, []string{"A", "B"}, first.Names())
	a, err := first.Block("A")
	require.NoError(t, err)
	require.Equal(t, 7.0, a.Matrix.At(0, 0))
}

func TestCurveBuildingBlockBundle_AddValidatesShape(t *testing.T) {
	t.Parallel()

	block, err := calib.NewCurveBuildingBlockFromSizes([]string{"A", "B"}, []int{2, 1})
	require.NoError(t, err)
	bundle := calib.NewCurveBuildingBlockBundle()

	require.ErrorIs(t, bundle.Add("A", block, mat.NewDense(1, 3, nil)), errs.ErrInvalidArgument)
	require.ErrorIs(t, bundle.Add("A", block, mat.NewDense(2, 2, nil)), errs.ErrInvalidArgument)
	require.ErrorIs(t, bundle.Add("C", block, mat.NewDense(2, 3, nil)), errs.ErrInvalidArgument)
	require.ErrorIs(t, bundle.Add("A", nil, mat.NewDense(2, 3, nil)), errs.ErrInvalidArgument)
	require.NoError(t, bundle.Add("A", block, mat.NewDense(2, 3, nil)))
	require.Equal(t, 1, bundle.Len())
}

// singleCurve is a curve of n deposits maturing at 1..n years.
func singleCurve(t *testing.T, name string, n int) *calib.SingleCurveBundle {
	t.Helper()
	instruments := make([]calib.Instrument, n)
	start := make([]float64, n)
	for i := range instruments {
		instruments[i] = instrument.Deposit{End: float64(i + 1), Rate: 0.02, Curve: name}
		start[i] = 0.01
	}
	b, err := calib.NewSingleCurveBundle(name, instruments, start, curve.ZeroCurveGenerator{})
	require.NoError(t, err)
	return b
}
