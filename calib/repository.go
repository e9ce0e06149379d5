package calib

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/errs"
	"github.com/meenmo/curvecal/solver"
)

// Repository calibrates units of curves one after another. Every unit is
// solved against the curves of the units before it, and the inverse Jacobian
// of every calibrated curve (its sensitivity to the market quotes of its own
// and all earlier units) is collected in a CurveBuildingBlockBundle.
type Repository struct {
	rootFinder  solver.VectorRootFinder
	valuator    InstrumentValuator
	sensitivity ParameterSensitivityCalculator
	priceType   PriceType
	parallel    bool
	logger      *zap.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLogger sets the logger used for per-unit progress.
func WithLogger(l *zap.Logger) RepositoryOption {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPriceType sets the price type passed to the valuator.
func WithPriceType(pt PriceType) RepositoryOption {
	return func(r *Repository) { r.priceType = pt }
}

// WithParallelJacobian evaluates Jacobian rows concurrently.
func WithParallelJacobian(parallel bool) RepositoryOption {
	return func(r *Repository) { r.parallel = parallel }
}

// NewRepository returns a repository solving every unit with rootFinder.
func NewRepository(rootFinder solver.VectorRootFinder, valuator InstrumentValuator, sensitivity ParameterSensitivityCalculator, opts ...RepositoryOption) (*Repository, error) {
	if rootFinder == nil {
		return nil, errs.InvalidArgument("repository: root finder is required")
	}
	if valuator == nil {
		return nil, errs.InvalidArgument("repository: valuator is required")
	}
	if sensitivity == nil {
		return nil, errs.InvalidArgument("repository: sensitivity calculator is required")
	}
	r := &Repository{
		rootFinder:  rootFinder,
		valuator:    valuator,
		sensitivity: sensitivity,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// UnitResult summarizes the solve of one unit.
type UnitResult struct {
	Curves     []string
	Iterations int
	Residual   float64
}

// Calibrate solves units in order. known holds the exogenous curves and
// knownBlocks their block Jacobians, if any; neither is modified. It returns
// the known curves extended with every calibrated curve and the extended
// block bundle.
func (r *Repository) Calibrate(ctx context.Context, units []*MultiCurveBundle, known CurveProvider, knownBlocks *CurveBuildingBlockBundle) (CurveProvider, *CurveBuildingBlockBundle, error) {
	curves, blocks, _, err := r.CalibrateWithReport(ctx, units, known, knownBlocks)
	return curves, blocks, err
}

// CalibrateWithReport is Calibrate plus a per-unit solve summary.
func (r *Repository) CalibrateWithReport(ctx context.Context, units []*MultiCurveBundle, known CurveProvider, knownBlocks *CurveBuildingBlockBundle) (CurveProvider, *CurveBuildingBlockBundle, []UnitResult, error) {
	if len(units) == 0 {
		return nil, nil, nil, errs.InvalidArgument("repository: no units to calibrate")
	}
	if known == nil {
		return nil, nil, nil, errs.InvalidArgument("repository: known curves are required")
	}

	curves := known.Copy()
	blocks := NewCurveBuildingBlockBundle()
	blocks.AddAll(knownBlocks)
	report := make([]UnitResult, 0, len(units))

	for i, unit := range units {
		if unit == nil {
			return nil, nil, nil, errs.InvalidArgument("repository: unit %d is nil", i)
		}
		subject := unitSubject(i, unit)

		res, next, err := r.solveUnit(ctx, unit, curves)
		if err != nil {
			var ce *errs.ConvergenceError
			if errors.As(err, &ce) {
				return nil, nil, nil, errs.WithSubject(err, subject)
			}
			return nil, nil, nil, fmt.Errorf("calibrate %s: %w", subject, err)
		}
		if err := r.updateBlockBundle(unit, next, blocks); err != nil {
			return nil, nil, nil, fmt.Errorf("block bundle for %s: %w", subject, err)
		}
		curves = next

		r.logger.Info("unit calibrated",
			zap.String("op", "repository.calibrate"),
			zap.Int("unit", i),
			zap.Strings("curves", unit.Names()),
			zap.Int("iterations", res.Iterations),
			zap.Float64("residual", res.Residual),
		)
		report = append(report, UnitResult{Curves: unit.Names(), Iterations: res.Iterations, Residual: res.Residual})
	}
	return curves, blocks, report, nil
}

func unitSubject(i int, unit *MultiCurveBundle) string {
	return fmt.Sprintf("unit %d [%s]", i, strings.Join(unit.Names(), ", "))
}

func (r *Repository) solveUnit(ctx context.Context, unit *MultiCurveBundle, known CurveProvider) (solver.Result, CurveProvider, error) {
	data, err := NewBuildingData(unit, known)
	if err != nil {
		return solver.Result{}, nil, err
	}
	f, err := NewFinderFunction(r.valuator, data, r.priceType)
	if err != nil {
		return solver.Result{}, nil, err
	}
	j, err := NewFinderJacobian(r.sensitivity, data, WithParallelRows(r.parallel))
	if err != nil {
		return solver.Result{}, nil, err
	}
	res, err := r.rootFinder.Root(ctx, f.Evaluate, j.Evaluate, unit.StartingPoint())
	if err != nil {
		return solver.Result{}, nil, err
	}
	calibrated, err := data.Curves(res.X)
	if err != nil {
		return solver.Result{}, nil, err
	}
	return res, calibrated, nil
}

// updateBlockBundle adds the inverse Jacobian of every curve of unit to
// blocks. Columns are market quotes: those of the curves already in blocks
// first, then the unit's own. The unit's quotes move its curves through the
// inverse of the direct Jacobian; earlier quotes move them through the
// earlier curves, chained by the transition matrix of earlier blocks.
func (r *Repository) updateBlockBundle(unit *MultiCurveBundle, curves CurveProvider, blocks *CurveBuildingBlockBundle) error {
	current := unit.Block()
	var before []string
	for _, name := range blocks.Names() {
		if !current.Contains(name) {
			before = append(before, name)
		}
	}

	names := make([]string, 0, len(before)+unit.Size())
	sizes := make([]int, 0, len(before)+unit.Size())
	nbBefore := 0
	for _, name := range before {
		n, err := curves.NumberOfParameters(name)
		if err != nil {
			return err
		}
		names = append(names, name)
		sizes = append(sizes, n)
		nbBefore += n
	}
	for _, e := range current.Entries() {
		names = append(names, e.Name)
		sizes = append(sizes, e.Len)
	}
	out, err := NewCurveBuildingBlockFromSizes(names, sizes)
	if err != nil {
		return err
	}

	nbCurrent := current.TotalParameters()
	instruments := unit.Instruments()
	sens := mat.NewDense(len(instruments), nbBefore+nbCurrent, nil)
	for i, inst := range instruments {
		row, err := r.sensitivity.Sensitivity(inst, names, curves)
		if err != nil {
			return fmt.Errorf("sensitivity of instrument %d (%s): %w", i, inst.Label(), err)
		}
		if len(row) != nbBefore+nbCurrent {
			return errs.InvalidArgument("sensitivity of instrument %d (%s) has %d entries, expected %d",
				i, inst.Label(), len(row), nbBefore+nbCurrent)
		}
		sens.SetRow(i, row)
	}

	direct := sens.Slice(0, len(instruments), nbBefore, nbBefore+nbCurrent)
	var inv mat.Dense
	if err := inv.Inverse(direct); err != nil {
		return errs.Degenerate("direct Jacobian of %s is not invertible: %v", strings.Join(unit.Names(), ", "), err)
	}

	full := mat.NewDense(nbCurrent, nbBefore+nbCurrent, nil)
	full.Slice(0, nbCurrent, nbBefore, nbBefore+nbCurrent).(*mat.Dense).Copy(&inv)
	if nbBefore > 0 {
		transition, err := transitionMatrix(before, out, blocks)
		if err != nil {
			return err
		}
		nonDirect := sens.Slice(0, len(instruments), 0, nbBefore)
		var chained mat.Dense
		chained.Product(&inv, nonDirect, transition)
		chained.Scale(-1, &chained)
		full.Slice(0, nbCurrent, 0, nbBefore).(*mat.Dense).Copy(&chained)
	}

	for _, e := range current.Entries() {
		rows := mat.DenseCopyOf(full.Slice(e.Start, e.Start+e.Len, 0, nbBefore+nbCurrent))
		if err := blocks.Add(e.Name, out, rows); err != nil {
			return err
		}
	}
	return nil
}

// transitionMatrix maps the parameters of the earlier curves to the market
// quotes of the earlier blocks, laid out by out. Quotes of curves that are
// not part of out are exogenous and dropped.
func transitionMatrix(before []string, out *CurveBuildingBlock, blocks *CurveBuildingBlockBundle) (*mat.Dense, error) {
	nbBefore := 0
	for _, name := range before {
		n, _ := out.NbParameters(name)
		nbBefore += n
	}
	t := mat.NewDense(nbBefore, nbBefore, nil)
	for _, name := range before {
		bj, err := blocks.Block(name)
		if err != nil {
			return nil, err
		}
		rowStart, _ := out.Start(name)
		rows, _ := out.NbParameters(name)
		if r, _ := bj.Matrix.Dims(); r != rows {
			return nil, errs.InvalidArgument("curve %q has %d Jacobian rows but %d parameters", name, r, rows)
		}
		for _, e := range bj.Block.Entries() {
			colStart, err := out.Start(e.Name)
			if err != nil || colStart >= nbBefore {
				continue
			}
			width, _ := out.NbParameters(e.Name)
			if width != e.Len {
				return nil, errs.InvalidArgument("curve %q has %d parameters in its block but %d now", e.Name, e.Len, width)
			}
			src := bj.Matrix.Slice(0, rows, e.Start, e.Start+e.Len)
			t.Slice(rowStart, rowStart+rows, colStart, colStart+width).(*mat.Dense).Copy(src)
		}
	}
	return t, nil
}
