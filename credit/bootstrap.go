package credit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/errs"
	"github.com/meenmo/curvecal/solver"
)

// BootstrapConfig holds the bisection settings of the hazard-rate bootstrap.
type BootstrapConfig struct {
	// BracketMultiplier k widens the guess g to [(1-k)g, (1+k)g].
	BracketMultiplier float64
	MaxIterations     int
	// Tolerance is the bisection step below which a rate is accepted.
	Tolerance float64
	// MaxHazardGuess caps the initial guess.
	MaxHazardGuess float64
	PriceType      calib.PriceType
}

// DefaultBootstrapConfig returns the market-standard bootstrap settings.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		BracketMultiplier: 0.5,
		MaxIterations:     solver.DefaultBisectionIterations,
		Tolerance:         solver.DefaultBisectionTolerance,
		MaxHazardGuess:    0.90,
		PriceType:         calib.PriceClean,
	}
}

// Validate reports every invalid setting.
func (c BootstrapConfig) Validate() error {
	var err error
	if !(c.BracketMultiplier > 0) {
		err = multierr.Append(err, errs.InvalidArgument("bracket multiplier %v must be positive", c.BracketMultiplier))
	}
	if c.MaxIterations <= 0 {
		err = multierr.Append(err, errs.InvalidArgument("max iterations %d must be positive", c.MaxIterations))
	}
	if !(c.Tolerance > 0) {
		err = multierr.Append(err, errs.InvalidArgument("tolerance %v must be positive", c.Tolerance))
	}
	if !(c.MaxHazardGuess > 0 && c.MaxHazardGuess <= 1) {
		err = multierr.Append(err, errs.InvalidArgument("max hazard guess %v outside (0, 1]", c.MaxHazardGuess))
	}
	return err
}

// HazardRateBootstrap calibrates a hazard curve tenor by tenor so that the
// CDS maturing at each tenor, paying the market spread, prices to zero.
type HazardRateBootstrap struct {
	valuator calib.InstrumentValuator
	cfg      BootstrapConfig
	logger   *zap.Logger
}

// Option configures a HazardRateBootstrap.
type Option func(*HazardRateBootstrap)

// WithConfig replaces the default settings.
func WithConfig(cfg BootstrapConfig) Option {
	return func(b *HazardRateBootstrap) { b.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *HazardRateBootstrap) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewHazardRateBootstrap returns a bootstrap pricing CDS with valuator.
func NewHazardRateBootstrap(valuator calib.InstrumentValuator, opts ...Option) (*HazardRateBootstrap, error) {
	if valuator == nil {
		return nil, errs.InvalidArgument("hazard bootstrap: valuator is required")
	}
	b := &HazardRateBootstrap{
		valuator: valuator,
		cfg:      DefaultBootstrapConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hazard bootstrap config: %w", err)
	}
	return b, nil
}

// Config returns the settings in use.
func (b *HazardRateBootstrap) Config() BootstrapConfig { return b.cfg }

// Calibrate bootstraps one hazard rate per tenor, in ascending order.
// template supplies the contract terms and curve names; its maturity and
// spread are replaced per tenor. market must hold template.YieldCurve.
func (b *HazardRateBootstrap) Calibrate(ctx context.Context, market calib.CurveProvider, template CreditDefaultSwap, tenors, spreadsBps []float64) (*HazardRateCurve, error) {
	if err := validateTerms(market, template, tenors, spreadsBps); err != nil {
		return nil, err
	}
	hc, err := NewHazardRateCurve(template.HazardCurve, nil, nil)
	if err != nil {
		return nil, err
	}
	for m := range tenors {
		h, err := b.CalibrateTenor(ctx, market, template, hc, tenors[m], spreadsBps[m])
		if err != nil {
			// convergence failures already name the curve and tenor
			var ce *errs.ConvergenceError
			if errors.As(err, &ce) {
				return nil, err
			}
			return nil, fmt.Errorf("calibrate %s tenor %d: %w", template.HazardCurve, m, err)
		}
		if hc, err = hc.Extend(tenors[m], h); err != nil {
			return nil, err
		}
	}
	b.logger.Info("hazard curve calibrated",
		zap.String("op", "credit.bootstrap"),
		zap.String("curve", template.HazardCurve),
		zap.Float64s("tenors", tenors),
		zap.Float64s("rates", hc.Rates()),
	)
	return hc, nil
}

// CalibrateTenor solves the hazard rate of the tenor after prior's last
// tenor. Prior rates are held fixed, so the result depends only on prior
// and this tenor's data.
func (b *HazardRateBootstrap) CalibrateTenor(ctx context.Context, market calib.CurveProvider, template CreditDefaultSwap, prior *HazardRateCurve, tenor, spreadBps float64) (float64, error) {
	if prior == nil {
		return 0, errs.InvalidArgument("hazard bootstrap: prior curve is required")
	}
	if prior.Name() != template.HazardCurve {
		return 0, errs.InvalidArgument("hazard bootstrap: prior curve %q does not match template curve %q", prior.Name(), template.HazardCurve)
	}
	if n := prior.Len(); n > 0 && tenor <= prior.times[n-1] {
		return 0, errs.InvalidArgument("hazard bootstrap: tenor %v is not after prior tenor %v", tenor, prior.times[n-1])
	}
	if err := validateTerms(market, template, []float64{tenor}, []float64{spreadBps}); err != nil {
		return 0, err
	}

	m := prior.Len()
	subject := fmt.Sprintf("curve %s tenor %d (t=%.6g)", template.HazardCurve, m, tenor)
	cds := template.WithMaturity(tenor).WithSpread(spreadBps)

	pv := func(h float64) (float64, error) {
		hc, err := prior.Extend(tenor, h)
		if err != nil {
			return 0, err
		}
		merged := market.Copy()
		merged.SetAll(hc)
		v, err := b.valuator.Price(cds, merged, b.cfg.PriceType)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(v) {
			return 0, errs.Degenerate("%s: present value is NaN at hazard rate %v", subject, h)
		}
		return v, nil
	}

	guess := hazardGuess(spreadBps, template.RecoveryRate, b.cfg.MaxHazardGuess)
	lower, upper := bracket(guess, b.cfg.BracketMultiplier)
	bis := solver.Bisection{MaxIterations: b.cfg.MaxIterations, Tolerance: b.cfg.Tolerance}
	res, err := bis.Solve(ctx, pv, lower, upper)
	if err != nil {
		return 0, errs.WithSubject(err, subject)
	}

	b.logger.Debug("tenor calibrated",
		zap.String("op", "credit.bootstrap"),
		zap.String("curve", template.HazardCurve),
		zap.Int("tenor", m),
		zap.Float64("time", tenor),
		zap.Float64("guess", guess),
		zap.Float64("rate", res.Root),
		zap.Int("iterations", res.Iterations),
		zap.Float64("pv", res.Value),
	)
	return res.Root, nil
}

// CalibrateAndPrice calibrates the hazard curve to the market spreads and
// prices valuation on it. valuation must reference template's curves.
func (b *HazardRateBootstrap) CalibrateAndPrice(ctx context.Context, market calib.CurveProvider, template CreditDefaultSwap, tenors, spreadsBps []float64, valuation CreditDefaultSwap) (float64, *HazardRateCurve, error) {
	hc, err := b.Calibrate(ctx, market, template, tenors, spreadsBps)
	if err != nil {
		return 0, nil, err
	}
	if valuation.HazardCurve != hc.Name() {
		return 0, nil, errs.InvalidArgument("valuation CDS references hazard curve %q, calibrated %q", valuation.HazardCurve, hc.Name())
	}
	merged := market.Copy()
	merged.SetAll(hc)
	v, err := b.valuator.Price(valuation, merged, b.cfg.PriceType)
	if err != nil {
		return 0, nil, fmt.Errorf("price %s: %w", valuation.Label(), err)
	}
	return v, hc, nil
}

// hazardGuess is the credit-triangle rate s/(1-R), capped at maxGuess.
func hazardGuess(spreadBps, recovery, maxGuess float64) float64 {
	g := (spreadBps / bpsPerUnit) / (1 - recovery)
	if g > maxGuess {
		g = maxGuess
	}
	return g
}

func bracket(guess, k float64) (float64, float64) {
	clamp := func(x float64) float64 { return math.Min(math.Max(x, 0), 1) }
	return clamp((1 - k) * guess), clamp((1 + k) * guess)
}

func validateTerms(market calib.CurveProvider, template CreditDefaultSwap, tenors, spreadsBps []float64) error {
	if market == nil {
		return errs.InvalidArgument("hazard bootstrap: market curves are required")
	}
	if template.HazardCurve == "" {
		return errs.InvalidArgument("hazard bootstrap: hazard curve name is required")
	}
	if template.RecoveryRate < 0 || template.RecoveryRate >= 1 || math.IsNaN(template.RecoveryRate) {
		return errs.InvalidArgument("hazard bootstrap: recovery rate %v outside [0, 1)", template.RecoveryRate)
	}
	if len(tenors) == 0 {
		return errs.InvalidArgument("hazard bootstrap: no tenors")
	}
	if len(tenors) != len(spreadsBps) {
		return errs.InvalidArgument("hazard bootstrap: %d tenors but %d spreads", len(tenors), len(spreadsBps))
	}
	prev := 0.0
	for i, t := range tenors {
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= prev {
			return errs.InvalidArgument("hazard bootstrap: tenor %d (%v) must be positive and ascending", i, t)
		}
		prev = t
	}
	for i, s := range spreadsBps {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return errs.InvalidArgument("hazard bootstrap: spread %d (%v bp) must be positive and finite", i, s)
		}
	}
	return nil
}
