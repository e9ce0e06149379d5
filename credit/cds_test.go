package credit_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/credit"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/errs"
	"github.com/meenmo/curvecal/instrument"
)

func flatMarket(t *testing.T, hazard float64) calib.CurveProvider {
	t.Helper()
	yc, err := curve.NewFlatYieldCurve("USD", 0.03)
	require.NoError(t, err)
	hc, err := credit.NewHazardRateCurve("ACME", []float64{10}, []float64{hazard})
	require.NoError(t, err)
	return curve.NewProvider(yc, hc)
}

func TestAnalyticValuator_CleanExcludesAccrued(t *testing.T) {
	t.Parallel()

	curves := flatMarket(t, 0.02)
	cds := acmeTemplate().WithMaturity(1.1).WithSpread(100)
	v := credit.AnalyticValuator{}

	legs, err := v.Legs(cds, curves, calib.PriceDirty)
	require.NoError(t, err)
	require.InDelta(t, 0.15, legs.Accrued, 1e-9)

	dirty, err := v.Price(cds, curves, calib.PriceDirty)
	require.NoError(t, err)
	clean, err := v.Price(cds, curves, calib.PriceClean)
	require.NoError(t, err)
	require.InDelta(t, 0.01*0.15, dirty-clean, 1e-12)

	// Whole-period maturities have nothing accrued.
	legs, err = v.Legs(cds.WithMaturity(2), curves, calib.PriceClean)
	require.NoError(t, err)
	require.Equal(t, 0.0, legs.Accrued)
}

func TestAnalyticValuator_FlatHazardLegs(t *testing.T) {
	t.Parallel()

	const h, r, recovery = 0.02, 0.03, 0.4
	curves := flatMarket(t, h)
	cds := acmeTemplate().WithMaturity(5).WithSpread(100)

	legs, err := credit.AnalyticValuator{}.Legs(cds, curves, calib.PriceClean)
	require.NoError(t, err)

	// Protection leg with constant rates has a closed form.
	want := (1 - recovery) * h / (h + r) * (1 - math.Exp(-(h+r)*5))
	require.InDelta(t, want, legs.Contingent, 1e-12)

	annuity := 0.0
	for i := 1; i <= 20; i++ {
		ti := float64(i) / 4
		annuity += 0.25 * math.Exp(-(h+r)*ti)
	}
	require.InDelta(t, annuity, legs.RiskyAnnuity, 1e-12)
	require.InDelta(t, 0.01*annuity-want, legs.PremiumPV-legs.ProtectionPV, 1e-12)
}

func TestAnalyticValuator_AccrualOnDefault(t *testing.T) {
	t.Parallel()

	curves := flatMarket(t, 0.02)
	cds := acmeTemplate().WithMaturity(5).WithSpread(100)
	v := credit.AnalyticValuator{}

	without, err := v.Legs(cds, curves, calib.PriceClean)
	require.NoError(t, err)
	cds.IncludeAccruedPremium = true
	with, err := v.Legs(cds, curves, calib.PriceClean)
	require.NoError(t, err)

	// Roughly half a period of premium on the discounted default density.
	extra := with.RiskyAnnuity - without.RiskyAnnuity
	density := with.Contingent / (1 - 0.4)
	require.InEpsilon(t, 0.125*density, extra, 5e-3)
	require.Equal(t, without.Contingent, with.Contingent)
}

func TestAnalyticValuator_PriceDecreasesInHazard(t *testing.T) {
	t.Parallel()

	cds := acmeTemplate().WithMaturity(5).WithSpread(100)
	v := credit.AnalyticValuator{}
	prev := math.Inf(1)
	for _, h := range []float64{0, 0.005, 0.01, 0.02, 0.05, 0.2} {
		pv, err := v.Price(cds, flatMarket(t, h), calib.PriceClean)
		require.NoError(t, err)
		require.Less(t, pv, prev, "hazard %v", h)
		prev = pv
	}
}

func TestAnalyticValuator_Errors(t *testing.T) {
	t.Parallel()

	curves := flatMarket(t, 0.02)
	v := credit.AnalyticValuator{}

	_, err := v.Price(instrument.Deposit{End: 1, Curve: "USD"}, curves, calib.PriceClean)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = v.Price(acmeTemplate(), curves, calib.PriceClean)
	require.ErrorIs(t, err, errs.ErrInvalidArgument, "zero maturity")

	missing := acmeTemplate().WithMaturity(1)
	missing.HazardCurve = "NOPE"
	_, err = v.Price(missing, curves, calib.PriceClean)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// A yield curve is not a survival curve.
	swapped := acmeTemplate().WithMaturity(1)
	swapped.HazardCurve = "USD"
	_, err = v.Price(&swapped, curves, calib.PriceClean)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestTenorTimes(t *testing.T) {
	t.Parallel()

	valuation := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	times, err := credit.TenorTimes(valuation, []string{"6M", "1Y"}, nil, "ACT/365F")
	require.NoError(t, err)
	require.InDelta(t, 182.0/365, times[0], 1e-15)
	require.InDelta(t, 366.0/365, times[1], 1e-15)

	cal := calendar.New(calendar.USD, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC))
	times, err = credit.TenorTimes(valuation, []string{"6M"}, cal, "ACT/365F")
	require.NoError(t, err)
	require.InDelta(t, 183.0/365, times[0], 1e-15)

	_, err = credit.TenorTimes(valuation, []string{"6Q"}, nil, "ACT/365F")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = credit.TenorTimes(valuation, []string{"1Y"}, nil, "BUS/252")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = credit.TenorTimes(valuation, []string{"1Y", "6M"}, nil, "ACT/365F")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
