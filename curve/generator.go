package curve

import (
	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/errs"
)

// Maturer is implemented by instruments whose last relevant date (in years)
// can serve as a curve node.
type Maturer interface {
	Maturity() float64
}

// ZeroCurveGenerator builds YieldCurves on fixed node times from zero-rate
// parameters. An empty Times is resolved from the calibration instruments by
// FinalGenerator.
type ZeroCurveGenerator struct {
	Times []float64
}

// Generate implements calib.CurveGenerator.
func (g ZeroCurveGenerator) Generate(name string, params []float64) (calib.Curve, error) {
	if len(g.Times) == 0 {
		return nil, errs.InvalidArgument("zero curve generator for %q has no node times", name)
	}
	return NewYieldCurve(name, g.Times, params)
}

// FinalGenerator places one node at each instrument maturity. Explicit Times
// are kept as given.
func (g ZeroCurveGenerator) FinalGenerator(instruments []calib.Instrument) (calib.CurveGenerator, error) {
	if len(g.Times) > 0 {
		return g, nil
	}
	times := make([]float64, len(instruments))
	for i, inst := range instruments {
		m, ok := inst.(Maturer)
		if !ok {
			return nil, errs.InvalidArgument("instrument %s has no maturity to use as a curve node", inst.Label())
		}
		times[i] = m.Maturity()
	}
	return ZeroCurveGenerator{Times: times}, nil
}
