package solver

import (
	"context"

	"go.uber.org/zap"

	"github.com/meenmo/curvecal/errs"
)

// NewtonVectorRootFinder is a damped Newton-Raphson iteration. A fresh
// Jacobian is evaluated at every step; the full step is halved until the
// residual norm decreases.
type NewtonVectorRootFinder struct {
	s settings
}

// NewNewtonVectorRootFinder returns a Newton root finder.
func NewNewtonVectorRootFinder(opts ...Option) *NewtonVectorRootFinder {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &NewtonVectorRootFinder{s: s}
}

// Root iterates from x0 until ‖f(x)‖∞ is within the absolute tolerance.
func (n *NewtonVectorRootFinder) Root(ctx context.Context, f VectorFunc, j JacobianFunc, x0 []float64) (Result, error) {
	if f == nil || j == nil {
		return Result{}, errs.InvalidArgument("newton: function and Jacobian are required")
	}
	x := make([]float64, len(x0))
	copy(x, x0)

	y, err := f(x)
	if err != nil {
		return Result{}, err
	}
	if err := checkFinite(y, "residual"); err != nil {
		return Result{}, err
	}
	norm := infNorm(y)

	for iter := 0; iter < n.s.maxSteps; iter++ {
		if norm <= n.s.absTol {
			return Result{X: x, Iterations: iter, Residual: norm}, nil
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		jac, err := j(x)
		if err != nil {
			return Result{}, err
		}
		dx, err := solveStep(jac, y)
		if err != nil {
			return Result{}, err
		}

		xNew, yNew, normNew, lambda, err := lineSearch(f, x, dx, norm)
		if err != nil {
			return Result{}, err
		}
		n.s.logger.Debug("newton step",
			zap.String("op", "solver.Newton"),
			zap.Int("iteration", iter+1),
			zap.Float64("residual", normNew),
			zap.Float64("lambda", lambda),
		)
		if xNew == nil {
			return Result{}, &errs.ConvergenceError{
				Op:         "newton",
				Iterations: iter + 1,
				Residual:   norm,
				Reason:     "line search could not reduce the residual",
			}
		}
		x, y, norm = xNew, yNew, normNew
	}
	if norm <= n.s.absTol {
		return Result{X: x, Iterations: n.s.maxSteps, Residual: norm}, nil
	}
	return Result{}, &errs.ConvergenceError{Op: "newton", Iterations: n.s.maxSteps, Residual: norm}
}

// lineSearch halves the step along dx until the residual norm drops below
// norm. It returns a nil point when no reduction was found.
func lineSearch(f VectorFunc, x, dx []float64, norm float64) ([]float64, []float64, float64, float64, error) {
	lambda := 1.0
	for k := 0; k <= maxBacktracks; k++ {
		xNew := trial(x, dx, lambda)
		yNew, err := f(xNew)
		if err != nil {
			return nil, nil, 0, 0, err
		}
		if checkFinite(yNew, "residual") == nil {
			if normNew := infNorm(yNew); normNew < norm {
				return xNew, yNew, normNew, lambda, nil
			}
		}
		lambda *= 0.5
	}
	return nil, nil, norm, lambda, nil
}
