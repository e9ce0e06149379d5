// Package curve holds the yield-curve values produced during calibration, the
// generator that builds them from a parameter slice, and the Provider that
// bundles named curves for pricing.
package curve

import (
	"fmt"
	"math"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/errs"
)

// Discounter is implemented by curves that discount cashflows.
type Discounter interface {
	DiscountFactor(t float64) float64
}

// YieldCurve is an immutable interpolated curve. Its parameters are
// continuously compounded zero rates at the node times.
//
// Discount factors are log-linear between nodes, with an implicit node
// DF(0) = 1. Beyond the last node the last two nodes are extrapolated, which
// keeps the last forward rate flat.
type YieldCurve struct {
	name  string
	times []float64
	zeros []float64
	// logDF[i] = -zeros[i] * times[i], with the origin prepended.
	nodeTimes []float64
	logDF     []float64
}

// NewYieldCurve builds a curve from node times (years, strictly ascending)
// and zero rates (decimal, continuous compounding).
func NewYieldCurve(name string, times, zeros []float64) (*YieldCurve, error) {
	if name == "" {
		return nil, errs.InvalidArgument("yield curve: name is required")
	}
	if err := validateNodes(name, times, zeros); err != nil {
		return nil, err
	}
	c := &YieldCurve{
		name:      name,
		times:     cloneFloats(times),
		zeros:     cloneFloats(zeros),
		nodeTimes: make([]float64, 0, len(times)+1),
		logDF:     make([]float64, 0, len(times)+1),
	}
	c.nodeTimes = append(c.nodeTimes, 0)
	c.logDF = append(c.logDF, 0)
	for i, t := range times {
		c.nodeTimes = append(c.nodeTimes, t)
		c.logDF = append(c.logDF, -zeros[i]*t)
	}
	return c, nil
}

// NewFlatYieldCurve is a single-node curve with a constant zero rate.
func NewFlatYieldCurve(name string, rate float64) (*YieldCurve, error) {
	return NewYieldCurve(name, []float64{1}, []float64{rate})
}

func (c *YieldCurve) Name() string { return c.name }

// NumberOfParameters is the number of nodes.
func (c *YieldCurve) NumberOfParameters() int { return len(c.zeros) }

// Parameters returns the node zero rates.
func (c *YieldCurve) Parameters() []float64 { return cloneFloats(c.zeros) }

// WithParameters returns a curve on the same nodes with new zero rates.
func (c *YieldCurve) WithParameters(params []float64) (calib.Curve, error) {
	if len(params) != len(c.zeros) {
		return nil, errs.InvalidArgument("yield curve %q: %d parameters for %d nodes", c.name, len(params), len(c.zeros))
	}
	return NewYieldCurve(c.name, c.times, params)
}

// Times returns the node times.
func (c *YieldCurve) Times() []float64 { return cloneFloats(c.times) }

// Nodes returns the node times; pricers use them as integration breakpoints.
func (c *YieldCurve) Nodes() []float64 { return c.Times() }

// DiscountFactor returns DF(t). DF(t) = 1 for t <= 0.
func (c *YieldCurve) DiscountFactor(t float64) float64 {
	if t <= 0 {
		return 1
	}
	i, j := bracketOrBoundary(c.nodeTimes, t)
	t1, t2 := c.nodeTimes[i], c.nodeTimes[j]
	l1, l2 := c.logDF[i], c.logDF[j]
	return math.Exp(l1 + (l2-l1)*(t-t1)/(t2-t1))
}

// ZeroRate returns the continuously compounded zero rate to t.
func (c *YieldCurve) ZeroRate(t float64) float64 {
	if t <= 0 {
		return c.zeros[0]
	}
	return -math.Log(c.DiscountFactor(t)) / t
}

// ForwardRate returns the simply compounded forward rate over [t1, t2].
func (c *YieldCurve) ForwardRate(t1, t2 float64) float64 {
	if t2 <= t1 {
		return 0
	}
	return (c.DiscountFactor(t1)/c.DiscountFactor(t2) - 1) / (t2 - t1)
}

func (c *YieldCurve) String() string {
	return fmt.Sprintf("YieldCurve(%s, %d nodes)", c.name, len(c.times))
}
