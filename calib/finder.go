package calib

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/errs"
)

// BuildingData binds a unit's instruments and (finalized) generators to the
// known curves they are calibrated against.
type BuildingData struct {
	unit        *MultiCurveBundle
	instruments []Instrument
	generators  []CurveGenerator
	known       CurveProvider
}

// NewBuildingData prepares a unit for evaluation. Generators implementing
// FinalizingGenerator are finalized against their own curve's instruments.
func NewBuildingData(unit *MultiCurveBundle, known CurveProvider) (*BuildingData, error) {
	if unit == nil {
		return nil, errs.InvalidArgument("building data: unit is required")
	}
	if known == nil {
		return nil, errs.InvalidArgument("building data: known curves are required")
	}
	gens := make([]CurveGenerator, unit.Size())
	for i, b := range unit.bundles {
		g := b.generator
		if fg, ok := g.(FinalizingGenerator); ok {
			final, err := fg.FinalGenerator(b.Instruments())
			if err != nil {
				return nil, fmt.Errorf("finalize generator for curve %q: %w", b.name, err)
			}
			g = final
		}
		gens[i] = g
	}
	return &BuildingData{
		unit:        unit,
		instruments: unit.Instruments(),
		generators:  gens,
		known:       known,
	}, nil
}

// Unit returns the calibrated unit.
func (d *BuildingData) Unit() *MultiCurveBundle { return d.unit }

// Instruments returns the flattened instruments in residual order.
func (d *BuildingData) Instruments() []Instrument { return d.instruments }

// Curves materializes the unit's curves from x and merges them into a copy
// of the known curves. The known curves themselves are never modified.
func (d *BuildingData) Curves(x []float64) (CurveProvider, error) {
	block := d.unit.block
	if len(x) != block.TotalParameters() {
		return nil, errs.InvalidArgument("parameter vector has length %d, unit expects %d", len(x), block.TotalParameters())
	}
	merged := d.known.Copy()
	curves := make([]Curve, 0, len(d.generators))
	for i, e := range block.entries {
		params := make([]float64, e.Len)
		copy(params, x[e.Start:e.Start+e.Len])
		c, err := d.generators[i].Generate(e.Name, params)
		if err != nil {
			return nil, fmt.Errorf("generate curve %q: %w", e.Name, err)
		}
		curves = append(curves, c)
	}
	merged.SetAll(curves...)
	return merged, nil
}

// FinderFunction is the vector objective of the unit: the pricing error of
// every instrument for a candidate parameter vector.
type FinderFunction struct {
	valuator  InstrumentValuator
	data      *BuildingData
	priceType PriceType
}

// NewFinderFunction returns the objective for data priced by valuator.
func NewFinderFunction(valuator InstrumentValuator, data *BuildingData, pt PriceType) (*FinderFunction, error) {
	if valuator == nil {
		return nil, errs.InvalidArgument("finder function: valuator is required")
	}
	if data == nil {
		return nil, errs.InvalidArgument("finder function: building data is required")
	}
	return &FinderFunction{valuator: valuator, data: data, priceType: pt}, nil
}

// Evaluate returns one residual per instrument, in unit order.
func (f *FinderFunction) Evaluate(x []float64) ([]float64, error) {
	curves, err := f.data.Curves(x)
	if err != nil {
		return nil, err
	}
	residual := make([]float64, len(f.data.instruments))
	for i, inst := range f.data.instruments {
		v, err := f.valuator.Price(inst, curves, f.priceType)
		if err != nil {
			return nil, fmt.Errorf("price instrument %d (%s): %w", i, inst.Label(), err)
		}
		residual[i] = v
	}
	return residual, nil
}

// FinderJacobian is the derivative of FinderFunction: row i, column j is the
// derivative of residual i with respect to parameter j.
type FinderJacobian struct {
	sensitivity ParameterSensitivityCalculator
	data        *BuildingData
	parallel    bool
}

// JacobianOption configures a FinderJacobian.
type JacobianOption func(*FinderJacobian)

// WithParallelRows evaluates Jacobian rows concurrently. The merged curve
// provider is only read during evaluation.
func WithParallelRows(parallel bool) JacobianOption {
	return func(j *FinderJacobian) { j.parallel = parallel }
}

// NewFinderJacobian returns the Jacobian of the objective for data.
func NewFinderJacobian(sensitivity ParameterSensitivityCalculator, data *BuildingData, opts ...JacobianOption) (*FinderJacobian, error) {
	if sensitivity == nil {
		return nil, errs.InvalidArgument("finder Jacobian: sensitivity calculator is required")
	}
	if data == nil {
		return nil, errs.InvalidArgument("finder Jacobian: building data is required")
	}
	j := &FinderJacobian{sensitivity: sensitivity, data: data}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Evaluate returns the instruments × parameters Jacobian at x.
func (j *FinderJacobian) Evaluate(x []float64) (*mat.Dense, error) {
	curves, err := j.data.Curves(x)
	if err != nil {
		return nil, err
	}
	names := j.data.unit.Names()
	nbIns := len(j.data.instruments)
	nbParams := j.data.unit.block.TotalParameters()
	out := mat.NewDense(nbIns, nbParams, nil)

	row := func(i int) error {
		inst := j.data.instruments[i]
		s, err := j.sensitivity.Sensitivity(inst, names, curves)
		if err != nil {
			return fmt.Errorf("sensitivity of instrument %d (%s): %w", i, inst.Label(), err)
		}
		if len(s) != nbParams {
			return errs.InvalidArgument("sensitivity of instrument %d (%s) has %d entries, unit has %d parameters",
				i, inst.Label(), len(s), nbParams)
		}
		out.SetRow(i, s)
		return nil
	}

	if !j.parallel {
		for i := 0; i < nbIns; i++ {
			if err := row(i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	rowErrs := make([]error, nbIns)
	var wg sync.WaitGroup
	wg.Add(nbIns)
	for i := 0; i < nbIns; i++ {
		go func(i int) {
			defer wg.Done()
			rowErrs[i] = row(i)
		}(i)
	}
	wg.Wait()
	for _, err := range rowErrs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
