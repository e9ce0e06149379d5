// Package credit calibrates single-name hazard-rate curves to CDS par
// spreads and prices CDS contracts on them.
//
// Times are year fractions from the valuation date. Hazard rates are
// piecewise constant: rate m applies on (t[m-1], t[m]] with t[-1] = 0, and
// the last rate extends flat beyond the last tenor.
package credit

import (
	"fmt"
	"math"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/errs"
)

// SurvivalCurve is implemented by curves that give survival probabilities.
type SurvivalCurve interface {
	SurvivalProbability(t float64) float64
	// Nodes returns the times where the hazard rate may change.
	Nodes() []float64
}

// HazardRateCurve is an immutable piecewise-constant hazard-rate term
// structure. A curve with no tenors has zero hazard everywhere.
type HazardRateCurve struct {
	name  string
	times []float64
	rates []float64
	// cum[i] is the integrated hazard up to times[i].
	cum []float64
}

// NewHazardRateCurve validates and copies the term structure.
func NewHazardRateCurve(name string, times, rates []float64) (*HazardRateCurve, error) {
	if name == "" {
		return nil, errs.InvalidArgument("hazard curve: name is required")
	}
	if len(times) != len(rates) {
		return nil, errs.InvalidArgument("hazard curve %q: %d times but %d rates", name, len(times), len(rates))
	}
	prev := 0.0
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= prev {
			return nil, errs.InvalidArgument("hazard curve %q: time %d (%v) must be positive and ascending", name, i, t)
		}
		prev = t
	}
	for i, h := range rates {
		if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
			return nil, errs.InvalidArgument("hazard curve %q: rate %d (%v) must be finite and non-negative", name, i, h)
		}
	}

	c := &HazardRateCurve{
		name:  name,
		times: append([]float64(nil), times...),
		rates: append([]float64(nil), rates...),
		cum:   make([]float64, len(times)),
	}
	acc, last := 0.0, 0.0
	for i, t := range c.times {
		acc += c.rates[i] * (t - last)
		c.cum[i] = acc
		last = t
	}
	return c, nil
}

func (c *HazardRateCurve) Name() string { return c.name }

// NumberOfParameters is the number of tenors.
func (c *HazardRateCurve) NumberOfParameters() int { return len(c.rates) }

// Parameters returns the hazard rates.
func (c *HazardRateCurve) Parameters() []float64 { return c.Rates() }

// WithParameters returns a curve on the same tenors with new rates.
func (c *HazardRateCurve) WithParameters(params []float64) (calib.Curve, error) {
	return c.WithRates(params)
}

// WithRates is WithParameters with a concrete result type.
func (c *HazardRateCurve) WithRates(rates []float64) (*HazardRateCurve, error) {
	if len(rates) != len(c.rates) {
		return nil, errs.InvalidArgument("hazard curve %q: %d rates for %d tenors", c.name, len(rates), len(c.rates))
	}
	return NewHazardRateCurve(c.name, c.times, rates)
}

// Extend returns a new curve with one more tenor at t carrying rate. t must
// be after the current last tenor.
func (c *HazardRateCurve) Extend(t, rate float64) (*HazardRateCurve, error) {
	times := make([]float64, len(c.times), len(c.times)+1)
	copy(times, c.times)
	rates := make([]float64, len(c.rates), len(c.rates)+1)
	copy(rates, c.rates)
	return NewHazardRateCurve(c.name, append(times, t), append(rates, rate))
}

// Len returns the number of tenors.
func (c *HazardRateCurve) Len() int { return len(c.times) }

// Times returns the tenor times.
func (c *HazardRateCurve) Times() []float64 { return append([]float64(nil), c.times...) }

// Rates returns the hazard rates.
func (c *HazardRateCurve) Rates() []float64 { return append([]float64(nil), c.rates...) }

// Nodes implements SurvivalCurve.
func (c *HazardRateCurve) Nodes() []float64 { return c.Times() }

// HazardRate returns the rate in force at t.
func (c *HazardRateCurve) HazardRate(t float64) float64 {
	if len(c.rates) == 0 {
		return 0
	}
	for i, ti := range c.times {
		if t <= ti {
			return c.rates[i]
		}
	}
	return c.rates[len(c.rates)-1]
}

// SurvivalProbability returns exp(-∫₀ᵗ h(u) du). It is 1 for t <= 0.
func (c *HazardRateCurve) SurvivalProbability(t float64) float64 {
	if t <= 0 || len(c.times) == 0 {
		return 1
	}
	acc, last := 0.0, 0.0
	for i, ti := range c.times {
		if t <= ti {
			return math.Exp(-(acc + c.rates[i]*(t-last)))
		}
		acc, last = c.cum[i], ti
	}
	return math.Exp(-(acc + c.rates[len(c.rates)-1]*(t-last)))
}

func (c *HazardRateCurve) String() string {
	return fmt.Sprintf("HazardRateCurve(%s, %d tenors)", c.name, len(c.times))
}
