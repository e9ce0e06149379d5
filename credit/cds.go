package credit

import (
	"fmt"
	"math"
	"sort"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/errs"
)

const (
	// DefaultPaymentFrequency is quarterly premium payment.
	DefaultPaymentFrequency = 4
	bpsPerUnit              = 10000.0
)

// CreditDefaultSwap is a single-name CDS seen from the protection seller.
// Premium periods roll backward from Maturity, so the current period may
// have started before the valuation date; the premium accrued since then is
// what separates the dirty from the clean price.
type CreditDefaultSwap struct {
	Name         string
	Maturity     float64 // years from valuation
	ParSpreadBps float64 // contractual spread
	RecoveryRate float64
	// Notional defaults to 1.
	Notional float64
	// PaymentFrequency is premium payments per year; defaults to 4.
	PaymentFrequency int
	// IncludeAccruedPremium pays the premium accrued up to a default.
	IncludeAccruedPremium bool
	YieldCurve            string
	HazardCurve           string
}

func (c CreditDefaultSwap) Label() string {
	if c.Name != "" {
		return fmt.Sprintf("%s %.4gy", c.Name, c.Maturity)
	}
	return fmt.Sprintf("CDS %.4gy", c.Maturity)
}

// WithMaturity returns a copy maturing at t.
func (c CreditDefaultSwap) WithMaturity(t float64) CreditDefaultSwap {
	c.Maturity = t
	return c
}

// WithSpread returns a copy with contractual spread bps.
func (c CreditDefaultSwap) WithSpread(bps float64) CreditDefaultSwap {
	c.ParSpreadBps = bps
	return c
}

func (c CreditDefaultSwap) notional() float64 {
	if c.Notional == 0 {
		return 1
	}
	return c.Notional
}

func (c CreditDefaultSwap) frequency() int {
	if c.PaymentFrequency <= 0 {
		return DefaultPaymentFrequency
	}
	return c.PaymentFrequency
}

func (c CreditDefaultSwap) validate() error {
	if c.Maturity <= 0 || math.IsNaN(c.Maturity) || math.IsInf(c.Maturity, 0) {
		return errs.InvalidArgument("%s: maturity must be positive", c.Label())
	}
	if c.RecoveryRate < 0 || c.RecoveryRate >= 1 || math.IsNaN(c.RecoveryRate) {
		return errs.InvalidArgument("%s: recovery rate %v outside [0, 1)", c.Label(), c.RecoveryRate)
	}
	if c.YieldCurve == "" || c.HazardCurve == "" {
		return errs.InvalidArgument("%s: yield and hazard curve names are required", c.Label())
	}
	return nil
}

// accrualPeriod is one premium period; Start may be negative for the
// period running at valuation.
type accrualPeriod struct {
	Start, End float64
}

func (c CreditDefaultSwap) premiumSchedule() []accrualPeriod {
	step := 1.0 / float64(c.frequency())
	var out []accrualPeriod
	end := c.Maturity
	for end > 1e-12 {
		start := end - step
		if math.Abs(start) < 1e-12 {
			start = 0
		}
		out = append(out, accrualPeriod{Start: start, End: end})
		end = start
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Legs is the decomposition of a CDS value per unit of notional, except
// where noted.
type Legs struct {
	// RiskyAnnuity is the dirty premium leg per unit spread, accrual on
	// default included.
	RiskyAnnuity float64
	// Accrued is the premium accrued at valuation per unit spread.
	Accrued float64
	// Contingent is the protection leg value.
	Contingent float64
	// PremiumPV and ProtectionPV are in currency, at the contractual spread
	// and for the requested price type.
	PremiumPV    float64
	ProtectionPV float64
}

// AnalyticValuator prices CDS contracts on a yield curve and a
// piecewise-constant hazard curve. Leg integrals are exact between the
// nodes of both curves.
type AnalyticValuator struct{}

// Price implements calib.InstrumentValuator: premium leg minus protection
// leg, for the protection seller.
func (v AnalyticValuator) Price(inst calib.Instrument, curves calib.CurveProvider, pt calib.PriceType) (float64, error) {
	cds, err := asCDS(inst)
	if err != nil {
		return 0, err
	}
	legs, err := v.Legs(cds, curves, pt)
	if err != nil {
		return 0, err
	}
	return legs.PremiumPV - legs.ProtectionPV, nil
}

// ParSpread returns the spread in bps that prices cds to zero.
func (v AnalyticValuator) ParSpread(cds CreditDefaultSwap, curves calib.CurveProvider, pt calib.PriceType) (float64, error) {
	legs, err := v.Legs(cds, curves, pt)
	if err != nil {
		return 0, err
	}
	annuity := legs.RiskyAnnuity
	if pt == calib.PriceClean {
		annuity -= legs.Accrued
	}
	if annuity <= 0 {
		return 0, errs.Degenerate("%s: risky annuity %v is not positive", cds.Label(), annuity)
	}
	return legs.Contingent / annuity * bpsPerUnit, nil
}

// Legs values both legs of cds.
func (AnalyticValuator) Legs(cds CreditDefaultSwap, curves calib.CurveProvider, pt calib.PriceType) (Legs, error) {
	if err := cds.validate(); err != nil {
		return Legs{}, err
	}
	yc, err := curve.Lookup(curves, cds.YieldCurve)
	if err != nil {
		return Legs{}, err
	}
	hc, err := lookupSurvival(curves, cds.HazardCurve)
	if err != nil {
		return Legs{}, err
	}

	grid := integrationGrid(cds.Maturity, hc.Nodes(), yieldNodes(yc))
	var legs Legs
	for _, p := range cds.premiumSchedule() {
		legs.RiskyAnnuity += (p.End - p.Start) * yc.DiscountFactor(p.End) * hc.SurvivalProbability(p.End)
		if cds.IncludeAccruedPremium {
			legs.RiskyAnnuity += accrualOnDefault(p, grid, yc, hc)
		}
		if p.Start < 0 {
			legs.Accrued += -p.Start
		}
	}
	legs.Contingent = contingentLeg(cds.RecoveryRate, grid, yc, hc)

	spread := cds.ParSpreadBps / bpsPerUnit
	premium := legs.RiskyAnnuity
	if pt == calib.PriceClean {
		premium -= legs.Accrued
	}
	legs.PremiumPV = cds.notional() * spread * premium
	legs.ProtectionPV = cds.notional() * legs.Contingent
	return legs, nil
}

func asCDS(inst calib.Instrument) (CreditDefaultSwap, error) {
	switch v := inst.(type) {
	case CreditDefaultSwap:
		return v, nil
	case *CreditDefaultSwap:
		return *v, nil
	default:
		return CreditDefaultSwap{}, errs.InvalidArgument("unsupported credit instrument %T", inst)
	}
}

func lookupSurvival(curves calib.CurveProvider, name string) (SurvivalCurve, error) {
	c, err := curves.Curve(name)
	if err != nil {
		return nil, err
	}
	s, ok := c.(SurvivalCurve)
	if !ok {
		return nil, errs.InvalidArgument("curve %q does not provide survival probabilities", name)
	}
	return s, nil
}

func yieldNodes(d curve.Discounter) []float64 {
	if n, ok := d.(interface{ Nodes() []float64 }); ok {
		return n.Nodes()
	}
	return nil
}

// integrationGrid is 0, every node strictly inside (0, maturity), and
// maturity, ascending without duplicates.
func integrationGrid(maturity float64, nodes ...[]float64) []float64 {
	grid := []float64{0, maturity}
	for _, ns := range nodes {
		for _, t := range ns {
			if t > 0 && t < maturity {
				grid = append(grid, t)
			}
		}
	}
	sort.Float64s(grid)
	out := grid[:1]
	for _, t := range grid[1:] {
		if t-out[len(out)-1] > 1e-12 {
			out = append(out, t)
		}
	}
	return out
}

// forwardRates returns the constant hazard and interest rates implied
// between two grid points.
func forwardRates(s0, s1, df0, df1, dt float64) (float64, float64) {
	return math.Log(s0/s1) / dt, math.Log(df0/df1) / dt
}

// contingentLeg integrates (1-R) h/(h+r) (1-e^{-(h+r)Δ}) S DF over the grid.
func contingentLeg(recovery float64, grid []float64, yc curve.Discounter, hc SurvivalCurve) float64 {
	lgd := 1 - recovery
	s0, df0 := hc.SurvivalProbability(grid[0]), yc.DiscountFactor(grid[0])
	pv := 0.0
	for i := 1; i < len(grid); i++ {
		dt := grid[i] - grid[i-1]
		s1, df1 := hc.SurvivalProbability(grid[i]), yc.DiscountFactor(grid[i])
		h, r := forwardRates(s0, s1, df0, df1, dt)
		pv += lgd * defaultWeight(h, r, dt) * s0 * df0
		s0, df0 = s1, df1
	}
	return pv
}

// defaultWeight is h/(h+r) (1-e^{-(h+r)dt}), with its limit h*dt as h+r
// goes to zero.
func defaultWeight(h, r, dt float64) float64 {
	x := h + r
	if math.Abs(x) < 1e-12 {
		return h * dt
	}
	return h / x * (1 - math.Exp(-x*dt))
}

// accrualOnDefault is the expected premium accrued from the period start
// to a default inside the period, per unit spread, from valuation onwards.
func accrualOnDefault(p accrualPeriod, grid []float64, yc curve.Discounter, hc SurvivalCurve) float64 {
	from := math.Max(p.Start, 0)
	points := []float64{from}
	for _, t := range grid {
		if t > from && t < p.End {
			points = append(points, t)
		}
	}
	points = append(points, p.End)

	s0, df0 := hc.SurvivalProbability(from), yc.DiscountFactor(from)
	pv := 0.0
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		dt := b - a
		if dt <= 0 {
			continue
		}
		s1, df1 := hc.SurvivalProbability(b), yc.DiscountFactor(b)
		h, r := forwardRates(s0, s1, df0, df1, dt)
		if h > 0 {
			// ∫ h (u - start) S(u) DF(u) du over [a, b] with constant h and r.
			x := h + r
			t0, t1 := a-p.Start, b-p.Start
			if math.Abs(x) < 1e-12 {
				pv += h * s0 * df0 * (t1*t1 - t0*t0) / 2
			} else {
				pv += h * s0 * df0 * ((t0+1/x)/x - (t1+1/x)/x*(s1/s0)*(df1/df0))
			}
		}
		s0, df0 = s1, df1
	}
	return pv
}
