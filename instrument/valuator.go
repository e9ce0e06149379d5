package instrument

import (
	"gonum.org/v1/gonum/diff/fd"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/errs"
)

// ParRateValuator prices rate instruments as par-rate errors: model par rate
// minus quoted rate. Zero for every instrument means the curves reprice the
// market.
type ParRateValuator struct{}

// Price implements calib.InstrumentValuator. The price type is ignored.
func (ParRateValuator) Price(inst calib.Instrument, curves calib.CurveProvider, _ calib.PriceType) (float64, error) {
	par, quote, err := ParRate(inst, curves)
	if err != nil {
		return 0, err
	}
	return par - quote, nil
}

// ParRate returns the model par rate of inst and its quoted rate.
func ParRate(inst calib.Instrument, curves calib.CurveProvider) (float64, float64, error) {
	switch v := inst.(type) {
	case Deposit:
		return depositParRate(v, curves)
	case *Deposit:
		return depositParRate(*v, curves)
	case FRA:
		return fraParRate(v, curves)
	case *FRA:
		return fraParRate(*v, curves)
	case Swap:
		return swapParRate(v, curves)
	case *Swap:
		return swapParRate(*v, curves)
	default:
		return 0, 0, errs.InvalidArgument("unsupported rate instrument %T", inst)
	}
}

func simpleForward(c curve.Discounter, start, end float64) float64 {
	return (c.DiscountFactor(start)/c.DiscountFactor(end) - 1) / (end - start)
}

func depositParRate(d Deposit, curves calib.CurveProvider) (float64, float64, error) {
	if d.End <= d.Start {
		return 0, 0, errs.InvalidArgument("deposit %s: end must be after start", d.Label())
	}
	c, err := curve.Lookup(curves, d.Curve)
	if err != nil {
		return 0, 0, err
	}
	return simpleForward(c, d.Start, d.End), d.Rate, nil
}

func fraParRate(f FRA, curves calib.CurveProvider) (float64, float64, error) {
	if f.End <= f.Start {
		return 0, 0, errs.InvalidArgument("FRA %s: end must be after start", f.Label())
	}
	c, err := curve.Lookup(curves, f.ForwardCurve)
	if err != nil {
		return 0, 0, err
	}
	return simpleForward(c, f.Start, f.End), f.Rate, nil
}

func swapParRate(s Swap, curves calib.CurveProvider) (float64, float64, error) {
	if err := s.validate(); err != nil {
		return 0, 0, err
	}
	disc, err := curve.Lookup(curves, s.DiscountCurve)
	if err != nil {
		return 0, 0, err
	}
	fwd, err := curve.Lookup(curves, s.ForwardCurve)
	if err != nil {
		return 0, 0, err
	}

	annuity := 0.0
	for _, p := range schedule(s.Tenor, s.FixedFrequency) {
		annuity += (p.End - p.Start) * disc.DiscountFactor(p.End)
	}
	if annuity == 0 {
		return 0, 0, errs.Degenerate("swap %s: zero annuity", s.Label())
	}
	floatPV := 0.0
	for _, p := range schedule(s.Tenor, s.FloatFrequency) {
		floatPV += (p.End - p.Start) * simpleForward(fwd, p.Start, p.End) * disc.DiscountFactor(p.End)
	}
	return floatPV / annuity, s.Rate, nil
}

// DefaultBumpStep is the central-difference step applied to curve parameters.
const DefaultBumpStep = 1e-6

// FiniteDifferenceSensitivity differentiates a valuator with respect to
// curve parameters by central differences. Curves must implement
// calib.ParametricCurve.
type FiniteDifferenceSensitivity struct {
	Valuator  calib.InstrumentValuator
	PriceType calib.PriceType
	// Step is the parameter bump; zero means DefaultBumpStep.
	Step float64
}

// Sensitivity implements calib.ParameterSensitivityCalculator.
func (s FiniteDifferenceSensitivity) Sensitivity(inst calib.Instrument, curveNames []string, curves calib.CurveProvider) ([]float64, error) {
	if s.Valuator == nil {
		return nil, errs.InvalidArgument("finite-difference sensitivity: valuator is required")
	}
	step := s.Step
	if step <= 0 {
		step = DefaultBumpStep
	}

	var out []float64
	for _, name := range curveNames {
		c, err := curves.Curve(name)
		if err != nil {
			return nil, err
		}
		pc, ok := c.(calib.ParametricCurve)
		if !ok {
			return nil, errs.InvalidArgument("curve %q cannot be bumped", name)
		}

		var evalErr error
		price := func(p []float64) float64 {
			if evalErr != nil {
				return 0
			}
			bumped, err := pc.WithParameters(p)
			if err != nil {
				evalErr = err
				return 0
			}
			scenario := curves.Copy()
			scenario.SetAll(bumped)
			v, err := s.Valuator.Price(inst, scenario, s.PriceType)
			if err != nil {
				evalErr = err
				return 0
			}
			return v
		}
		grad := fd.Gradient(nil, price, pc.Parameters(), &fd.Settings{
			Formula: fd.Central,
			Step:    step,
		})
		if evalErr != nil {
			return nil, evalErr
		}
		out = append(out, grad...)
	}
	return out, nil
}
