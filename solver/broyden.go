package solver

import (
	"context"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/errs"
)

// BroydenVectorRootFinder is a quasi-Newton iteration: the Jacobian is
// evaluated once and then maintained by rank-one (good Broyden) updates. The
// exact Jacobian is re-evaluated whenever an updated step fails to reduce the
// residual or becomes smaller than the relative tolerance.
type BroydenVectorRootFinder struct {
	s settings
}

// NewBroydenVectorRootFinder returns a Broyden root finder.
func NewBroydenVectorRootFinder(opts ...Option) *BroydenVectorRootFinder {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &BroydenVectorRootFinder{s: s}
}

// Root iterates from x0 until ‖f(x)‖∞ is within the absolute tolerance.
func (b *BroydenVectorRootFinder) Root(ctx context.Context, f VectorFunc, j JacobianFunc, x0 []float64) (Result, error) {
	if f == nil || j == nil {
		return Result{}, errs.InvalidArgument("broyden: function and Jacobian are required")
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

	jac, err := j(x)
	if err != nil {
		return Result{}, err
	}
	fresh := true

	for iter := 0; iter < b.s.maxSteps; iter++ {
		if norm <= b.s.absTol {
			return Result{X: x, Iterations: iter, Residual: norm}, nil
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		dx, err := solveStep(jac, y)
		if err != nil {
			if fresh {
				return Result{}, err
			}
			// The updated Jacobian degenerated; start again from the exact one.
			b.refreshWarning(iter, "singular update")
			if jac, err = j(x); err != nil {
				return Result{}, err
			}
			fresh = true
			continue
		}

		xNew, yNew, normNew, lambda, err := lineSearch(f, x, dx, norm)
		if err != nil {
			return Result{}, err
		}
		small := xNew != nil && lambda*floats.Norm(dx, 2) <= b.s.relTol*(1+floats.Norm(x, 2))
		if xNew == nil || (small && normNew > b.s.absTol) {
			if fresh {
				return Result{}, &errs.ConvergenceError{
					Op:         "broyden",
					Iterations: iter + 1,
					Residual:   norm,
					Reason:     "line search could not reduce the residual",
				}
			}
			b.refreshWarning(iter, "no descent")
			if jac, err = j(x); err != nil {
				return Result{}, err
			}
			fresh = true
			continue
		}

		b.s.logger.Debug("broyden step",
			zap.String("op", "solver.Broyden"),
			zap.Int("iteration", iter+1),
			zap.Float64("residual", normNew),
			zap.Float64("lambda", lambda),
		)

		broydenUpdate(jac, x, xNew, y, yNew)
		x, y, norm = xNew, yNew, normNew
		fresh = false
	}
	if norm <= b.s.absTol {
		return Result{X: x, Iterations: b.s.maxSteps, Residual: norm}, nil
	}
	return Result{}, &errs.ConvergenceError{Op: "broyden", Iterations: b.s.maxSteps, Residual: norm}
}

func (b *BroydenVectorRootFinder) refreshWarning(iter int, reason string) {
	b.s.logger.Warn("broyden Jacobian refreshed",
		zap.String("op", "solver.Broyden"),
		zap.Int("iteration", iter+1),
		zap.String("reason", reason),
	)
}

// broydenUpdate applies J += (Δy - J·Δx) Δxᵀ / (Δxᵀ Δx) in place.
func broydenUpdate(jac *mat.Dense, x, xNew, y, yNew []float64) {
	n := len(x)
	dx := make([]float64, n)
	floats.SubTo(dx, xNew, x)
	denom := floats.Dot(dx, dx)
	if denom == 0 {
		return
	}
	dy := make([]float64, len(y))
	floats.SubTo(dy, yNew, y)

	jdx := mat.NewVecDense(len(y), nil)
	jdx.MulVec(jac, mat.NewVecDense(n, dx))
	u := make([]float64, len(y))
	for i := range u {
		u[i] = (dy[i] - jdx.AtVec(i)) / denom
	}
	jac.RankOne(jac, 1, mat.NewVecDense(len(u), u), mat.NewVecDense(n, dx))
}
