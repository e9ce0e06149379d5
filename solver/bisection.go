package solver

import (
	"context"
	"math"

	"github.com/meenmo/curvecal/errs"
)

const (
	// DefaultBisectionIterations is the iteration budget of Bisection.
	DefaultBisectionIterations = 100
	// DefaultBisectionTolerance is the bracket-width tolerance of Bisection.
	DefaultBisectionTolerance = 1e-15
)

// Bisection finds a root of a scalar function bracketed by [lower, upper].
//
// The search starts from the end where f is negative and moves towards the
// other end, halving the step each iteration and advancing whenever f at the
// midpoint is not positive. It stops when the step is below Tolerance.
type Bisection struct {
	MaxIterations int
	Tolerance     float64
}

// NewBisection returns a Bisection with the default budget and tolerance.
func NewBisection() Bisection {
	return Bisection{MaxIterations: DefaultBisectionIterations, Tolerance: DefaultBisectionTolerance}
}

// BisectionResult is the outcome of a converged bisection.
type BisectionResult struct {
	Root       float64
	Iterations int
	// Value is f(Root) as last evaluated, or f at the starting end when the
	// root was never advanced.
	Value float64
}

// Solve runs the bisection. f(lower) and f(upper) must not have the same
// strict sign.
func (b Bisection) Solve(ctx context.Context, f func(float64) (float64, error), lower, upper float64) (BisectionResult, error) {
	if f == nil {
		return BisectionResult{}, errs.InvalidArgument("bisection: function is required")
	}
	if !(lower <= upper) {
		return BisectionResult{}, errs.InvalidArgument("bisection: bracket [%v, %v] is not ordered", lower, upper)
	}
	maxIter := b.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultBisectionIterations
	}
	tol := b.Tolerance
	if tol <= 0 {
		tol = DefaultBisectionTolerance
	}

	fLower, err := evalFinite(f, lower)
	if err != nil {
		return BisectionResult{}, err
	}
	fUpper, err := evalFinite(f, upper)
	if err != nil {
		return BisectionResult{}, err
	}
	if (fLower > 0 && fUpper > 0) || (fLower < 0 && fUpper < 0) {
		return BisectionResult{}, &errs.ConvergenceError{
			Op:       "bisection",
			Residual: math.Min(math.Abs(fLower), math.Abs(fUpper)),
			Reason:   "root not bracketed",
		}
	}

	if fLower == 0 {
		return BisectionResult{Root: lower}, nil
	}
	if fUpper == 0 {
		return BisectionResult{Root: upper}, nil
	}

	var current, delta, value float64
	if fLower < 0 {
		current, delta, value = lower, upper-lower, fLower
	} else {
		current, delta, value = upper, lower-upper, fUpper
	}

	for iter := 1; iter <= maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return BisectionResult{}, err
		}
		delta *= 0.5
		mid := current + delta
		fMid, err := evalFinite(f, mid)
		if err != nil {
			return BisectionResult{}, err
		}
		if fMid <= 0 {
			current, value = mid, fMid
		}
		if math.Abs(delta) < tol || fMid == 0 {
			return BisectionResult{Root: current, Iterations: iter, Value: value}, nil
		}
	}
	return BisectionResult{}, &errs.ConvergenceError{
		Op:         "bisection",
		Iterations: maxIter,
		Residual:   math.Abs(delta),
	}
}

func evalFinite(f func(float64) (float64, error), x float64) (float64, error) {
	v, err := f(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errs.Degenerate("objective is %v at %v", v, x)
	}
	return v, nil
}
