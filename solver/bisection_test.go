package solver_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/meenmo/curvecal/errs"
	"github.com/meenmo/curvecal/solver"
)

func TestBisection_RandomRoots(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	b := solver.NewBisection()
	for i := 0; i < 200; i++ {
		r := rng.Float64()
		funcs := map[string]func(float64) (float64, error){
			"decreasing linear": func(x float64) (float64, error) { return r - x, nil },
			"increasing linear": func(x float64) (float64, error) { return x - r, nil },
			"decreasing exp":    func(x float64) (float64, error) { return math.Exp(-x) - math.Exp(-r), nil },
		}
		for name, f := range funcs {
			res, err := b.Solve(context.Background(), f, 0, 1)
			require.NoError(t, err, name)
			require.InDelta(t, r, res.Root, 1e-12, name)
			require.LessOrEqual(t, res.Iterations, solver.DefaultBisectionIterations, name)
		}
	}
}

func TestBisection_RootAtBracketEnd(t *testing.T) {
	t.Parallel()

	b := solver.NewBisection()
	res, err := b.Solve(context.Background(), func(x float64) (float64, error) { return x, nil }, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, res.Root)

	res, err = b.Solve(context.Background(), func(x float64) (float64, error) { return 1 - x, nil }, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 1.0, res.Root)
}

func TestBisection_NotBracketed(t *testing.T) {
	t.Parallel()

	_, err := solver.NewBisection().Solve(context.Background(), func(x float64) (float64, error) { return x + 1, nil }, 0, 1)
	require.ErrorIs(t, err, errs.ErrConvergence)

	var ce *errs.ConvergenceError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "root not bracketed", ce.Reason)
	require.Equal(t, 0, ce.Iterations)
}

func TestBisection_BudgetExhausted(t *testing.T) {
	t.Parallel()

	b := solver.Bisection{MaxIterations: 5, Tolerance: 1e-15}
	_, err := b.Solve(context.Background(), func(x float64) (float64, error) { return 0.3 - x, nil }, 0, 1)
	require.ErrorIs(t, err, errs.ErrConvergence)

	var ce *errs.ConvergenceError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, 5, ce.Iterations)
}

func TestBisection_Errors(t *testing.T) {
	t.Parallel()

	b := solver.NewBisection()
	ctx := context.Background()

	_, err := b.Solve(ctx, nil, 0, 1)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = b.Solve(ctx, func(x float64) (float64, error) { return x, nil }, 1, 0)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = b.Solve(ctx, func(x float64) (float64, error) { return math.NaN(), nil }, 0, 1)
	require.ErrorIs(t, err, errs.ErrDegenerate)

	boom := errors.New("valuation failed")
	_, err = b.Solve(ctx, func(x float64) (float64, error) { return 0, boom }, 0, 1)
	require.ErrorIs(t, err, boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = b.Solve(cancelled, func(x float64) (float64, error) { return 0.5 - x, nil }, 0, 1)
	require.ErrorIs(t, err, context.Canceled)
}
