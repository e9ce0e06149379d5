// Package solver provides the root finders driving curve calibration: Newton
// and Broyden iterations for vector systems, and bisection for the scalar
// hazard-rate bootstrap.
package solver

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/errs"
)

// VectorFunc is a function R^n -> R^m.
type VectorFunc func(x []float64) ([]float64, error)

// JacobianFunc returns the m×n Jacobian of a VectorFunc at x.
type JacobianFunc func(x []float64) (*mat.Dense, error)

// Result is the outcome of a successful vector root search.
type Result struct {
	X          []float64
	Iterations int
	// Residual is the infinity norm of f at X.
	Residual float64
}

// VectorRootFinder finds x with f(x) = 0 given the Jacobian of f.
type VectorRootFinder interface {
	Root(ctx context.Context, f VectorFunc, j JacobianFunc, x0 []float64) (Result, error)
}

const (
	defaultAbsoluteTolerance = 1e-10
	defaultRelativeTolerance = 1e-10
	defaultMaxSteps          = 100
	maxBacktracks            = 20

	// conditionLimit is the reciprocal condition number below which a
	// Jacobian is treated as singular.
	conditionLimit = 1e-14
)

// Option configures a root finder.
type Option func(*settings)

type settings struct {
	absTol   float64
	relTol   float64
	maxSteps int
	logger   *zap.Logger
}

func defaultSettings() settings {
	return settings{
		absTol:   defaultAbsoluteTolerance,
		relTol:   defaultRelativeTolerance,
		maxSteps: defaultMaxSteps,
		logger:   zap.NewNop(),
	}
}

// WithTolerances sets the absolute residual tolerance and the relative step
// tolerance. Non-positive values keep the defaults.
func WithTolerances(abs, rel float64) Option {
	return func(s *settings) {
		if abs > 0 {
			s.absTol = abs
		}
		if rel > 0 {
			s.relTol = rel
		}
	}
}

// WithMaxSteps sets the iteration budget. Non-positive values keep the default.
func WithMaxSteps(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithLogger sets the logger used for per-step debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func infNorm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, math.Inf(1))
}

func checkFinite(v []float64, what string) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errs.Degenerate("%s entry %d is %v", what, i, x)
		}
	}
	return nil
}

// solveStep solves J·dx = -y. Square systems use an LU solve; rectangular
// ones fall back to least squares through the same call.
func solveStep(jac *mat.Dense, y []float64) ([]float64, error) {
	r, c := jac.Dims()
	if r != len(y) {
		return nil, errs.InvalidArgument("Jacobian has %d rows for %d residuals", r, len(y))
	}
	if r < c {
		return nil, errs.Degenerate("under-determined system: %d equations, %d unknowns", r, c)
	}
	if r == c {
		var lu mat.LU
		lu.Factorize(jac)
		if cond := lu.Cond(); math.IsInf(cond, 1) || 1/cond < conditionLimit {
			return nil, errs.Degenerate("Jacobian is singular or ill-conditioned (condition %.3e)", cond)
		}
	}
	rhs := mat.NewVecDense(len(y), nil)
	for i, v := range y {
		rhs.SetVec(i, -v)
	}
	var dx mat.VecDense
	if err := dx.SolveVec(jac, rhs); err != nil {
		return nil, errs.Degenerate("linear solve failed: %v", err)
	}
	return mat.Col(nil, 0, &dx), nil
}

// trial returns x + lambda*dx.
func trial(x, dx []float64, lambda float64) []float64 {
	out := make([]float64, len(x))
	floats.AddScaledTo(out, x, lambda, dx)
	return out
}
