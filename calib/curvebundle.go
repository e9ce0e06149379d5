package calib

import (
	"math"

	"github.com/meenmo/curvecal/errs"
)

// SingleCurveBundle holds the calibration inputs of one curve. The curve has
// one parameter per instrument.
type SingleCurveBundle struct {
	name          string
	instruments   []Instrument
	startingPoint []float64
	generator     CurveGenerator
}

// NewSingleCurveBundle validates and copies the calibration inputs of a curve.
func NewSingleCurveBundle(name string, instruments []Instrument, startingPoint []float64, generator CurveGenerator) (*SingleCurveBundle, error) {
	if name == "" {
		return nil, errs.InvalidArgument("curve bundle: curve name is required")
	}
	if len(instruments) == 0 {
		return nil, errs.InvalidArgument("curve bundle %q: instruments are required", name)
	}
	if startingPoint == nil {
		return nil, errs.InvalidArgument("curve bundle %q: starting point is required", name)
	}
	if generator == nil {
		return nil, errs.InvalidArgument("curve bundle %q: curve generator is required", name)
	}
	if len(instruments) != len(startingPoint) {
		return nil, errs.InvalidArgument("curve bundle %q: %d instruments but %d starting points",
			name, len(instruments), len(startingPoint))
	}
	for i, inst := range instruments {
		if inst == nil {
			return nil, errs.InvalidArgument("curve bundle %q: instrument %d is nil", name, i)
		}
	}
	for i, v := range startingPoint {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errs.InvalidArgument("curve bundle %q: starting point %d is not finite", name, i)
		}
	}

	ins := make([]Instrument, len(instruments))
	copy(ins, instruments)
	sp := make([]float64, len(startingPoint))
	copy(sp, startingPoint)
	return &SingleCurveBundle{name: name, instruments: ins, startingPoint: sp, generator: generator}, nil
}

// Name returns the curve name.
func (b *SingleCurveBundle) Name() string { return b.name }

// Size returns the number of instruments (and parameters) of the curve.
func (b *SingleCurveBundle) Size() int { return len(b.instruments) }

// Instruments returns a copy of the calibration instruments.
func (b *SingleCurveBundle) Instruments() []Instrument {
	out := make([]Instrument, len(b.instruments))
	copy(out, b.instruments)
	return out
}

// StartingPoint returns a copy of the initial parameter guess.
func (b *SingleCurveBundle) StartingPoint() []float64 {
	out := make([]float64, len(b.startingPoint))
	copy(out, b.startingPoint)
	return out
}

// Generator returns the curve generator.
func (b *SingleCurveBundle) Generator() CurveGenerator { return b.generator }

// MultiCurveBundle is one simultaneous-calibration problem (a "unit"): an
// ordered set of curves solved together.
type MultiCurveBundle struct {
	bundles       []*SingleCurveBundle
	nbInstruments int
	block         *CurveBuildingBlock
}

// NewMultiCurveBundle validates the unit and fixes its parameter layout.
func NewMultiCurveBundle(bundles ...*SingleCurveBundle) (*MultiCurveBundle, error) {
	if len(bundles) == 0 {
		return nil, errs.InvalidArgument("multi-curve bundle: at least one curve is required")
	}
	names := make([]string, len(bundles))
	sizes := make([]int, len(bundles))
	total := 0
	for i, b := range bundles {
		if b == nil {
			return nil, errs.InvalidArgument("multi-curve bundle: curve bundle %d is nil", i)
		}
		names[i] = b.name
		sizes[i] = b.Size()
		total += b.Size()
	}
	block, err := NewCurveBuildingBlockFromSizes(names, sizes)
	if err != nil {
		return nil, err
	}
	out := make([]*SingleCurveBundle, len(bundles))
	copy(out, bundles)
	return &MultiCurveBundle{bundles: out, nbInstruments: total, block: block}, nil
}

// Size returns the number of curves in the unit.
func (m *MultiCurveBundle) Size() int { return len(m.bundles) }

// NumberOfInstruments returns the total instrument count over all curves.
func (m *MultiCurveBundle) NumberOfInstruments() int { return m.nbInstruments }

// CurveBundle returns the n-th curve bundle.
func (m *MultiCurveBundle) CurveBundle(n int) (*SingleCurveBundle, error) {
	if n < 0 || n >= len(m.bundles) {
		return nil, errs.IndexOutOfRange(n, len(m.bundles))
	}
	return m.bundles[n], nil
}

// Names returns the curve names in unit order.
func (m *MultiCurveBundle) Names() []string {
	return m.block.Names()
}

// Block returns the parameter layout of the unit. Residual rows, Jacobian
// rows and Jacobian columns all follow this order.
func (m *MultiCurveBundle) Block() *CurveBuildingBlock {
	return m.block
}

// Instruments returns all instruments flattened in unit order.
func (m *MultiCurveBundle) Instruments() []Instrument {
	out := make([]Instrument, 0, m.nbInstruments)
	for _, b := range m.bundles {
		out = append(out, b.instruments...)
	}
	return out
}

// StartingPoint returns all starting points flattened in unit order.
func (m *MultiCurveBundle) StartingPoint() []float64 {
	out := make([]float64, 0, m.nbInstruments)
	for _, b := range m.bundles {
		out = append(out, b.startingPoint...)
	}
	return out
}
