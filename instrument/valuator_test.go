package instrument_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/credit"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/errs"
	"github.com/meenmo/curvecal/instrument"
)

func flat(t *testing.T, name string, rate float64) *curve.YieldCurve {
	t.Helper()
	c, err := curve.NewFlatYieldCurve(name, rate)
	require.NoError(t, err)
	return c
}

func TestParRate_FlatCurve(t *testing.T) {
	t.Parallel()

	const z = 0.03
	curves := curve.NewProvider(flat(t, "USD", z))
	simple := func(tau float64) float64 { return (math.Exp(z*tau) - 1) / tau }

	tests := []struct {
		name string
		inst calib.Instrument
		want float64
	}{
		{name: "deposit", inst: instrument.Deposit{End: 0.5, Curve: "USD"}, want: simple(0.5)},
		{name: "forward deposit", inst: &instrument.Deposit{Start: 1, End: 2, Curve: "USD"}, want: simple(1)},
		{name: "FRA", inst: instrument.FRA{Start: 0.25, End: 0.5, ForwardCurve: "USD"}, want: simple(0.25)},
		// single-curve swap with matching legs: par equals the simple rate per period
		{name: "swap", inst: instrument.Swap{Tenor: 3, FixedFrequency: 2, FloatFrequency: 2, DiscountCurve: "USD", ForwardCurve: "USD"}, want: simple(0.5)},
	}
	for _, tc := range tests {
		par, quote, err := instrument.ParRate(tc.inst, curves)
		require.NoError(t, err, tc.name)
		require.Equal(t, 0.0, quote, tc.name)
		require.InDelta(t, tc.want, par, 1e-12, tc.name)
	}
}

func TestParRateValuator_PriceIsParMinusQuote(t *testing.T) {
	t.Parallel()

	curves := curve.NewProvider(flat(t, "USD", 0.03))
	dep := instrument.Deposit{End: 1, Rate: 0.01, Curve: "USD"}
	v, err := instrument.ParRateValuator{}.Price(dep, curves, calib.PriceDirty)
	require.NoError(t, err)
	require.InDelta(t, math.Exp(0.03)-1-0.01, v, 1e-12)
}

// The swap annuity discounts on OIS while forwards come from LIBOR.
func TestParRate_DualCurveSwap(t *testing.T) {
	t.Parallel()

	curves := curve.NewProvider(flat(t, "OIS", 0.02), flat(t, "LIBOR", 0.03))
	swap := instrument.Swap{Tenor: 2, FixedFrequency: 1, FloatFrequency: 1, DiscountCurve: "OIS", ForwardCurve: "LIBOR"}
	par, _, err := instrument.ParRate(swap, curves)
	require.NoError(t, err)
	require.InDelta(t, math.Exp(0.03)-1, par, 1e-12)
}

func TestParRate_Errors(t *testing.T) {
	t.Parallel()

	curves := curve.NewProvider(flat(t, "USD", 0.03))
	hc, err := credit.NewHazardRateCurve("ACME", []float64{1}, []float64{0.01})
	require.NoError(t, err)
	curves.SetAll(hc)

	tests := []struct {
		name string
		inst calib.Instrument
		want error
	}{
		{name: "unknown type", inst: credit.CreditDefaultSwap{Maturity: 1}, want: errs.ErrInvalidArgument},
		{name: "inverted deposit", inst: instrument.Deposit{Start: 2, End: 1, Curve: "USD"}, want: errs.ErrInvalidArgument},
		{name: "missing curve", inst: instrument.FRA{Start: 0, End: 1, ForwardCurve: "EUR"}, want: errs.ErrNotFound},
		{name: "not a discounter", inst: instrument.Deposit{End: 1, Curve: "ACME"}, want: errs.ErrInvalidArgument},
		{name: "swap without frequency", inst: instrument.Swap{Tenor: 1, DiscountCurve: "USD", ForwardCurve: "USD"}, want: errs.ErrInvalidArgument},
		{name: "swap without curves", inst: instrument.Swap{Tenor: 1, FixedFrequency: 1, FloatFrequency: 1}, want: errs.ErrInvalidArgument},
	}
	for _, tc := range tests {
		_, _, err := instrument.ParRate(tc.inst, curves)
		require.ErrorIs(t, err, tc.want, tc.name)
	}
}

// For a deposit d(par)/dz at its own node is e^{zT}, and zero elsewhere.
func TestFiniteDifferenceSensitivity_Deposit(t *testing.T) {
	t.Parallel()

	c, err := curve.NewYieldCurve("USD", []float64{1, 2}, []float64{0.02, 0.025})
	require.NoError(t, err)
	other := flat(t, "EUR", 0.01)
	curves := curve.NewProvider(c, other)

	sens := instrument.FiniteDifferenceSensitivity{Valuator: instrument.ParRateValuator{}}
	row, err := sens.Sensitivity(instrument.Deposit{End: 1, Curve: "USD"}, []string{"USD", "EUR"}, curves)
	require.NoError(t, err)
	require.Len(t, row, 3)
	require.InDelta(t, math.Exp(0.02), row[0], 1e-7)
	require.InDelta(t, 0, row[1], 1e-9)
	require.InDelta(t, 0, row[2], 1e-9)

	// Bumping never leaks into the caller's provider.
	got, err := curves.Curve("USD")
	require.NoError(t, err)
	require.Same(t, c, got)
}

func TestFiniteDifferenceSensitivity_Errors(t *testing.T) {
	t.Parallel()

	curves := curve.NewProvider(flat(t, "USD", 0.03))
	dep := instrument.Deposit{End: 1, Curve: "USD"}

	_, err := instrument.FiniteDifferenceSensitivity{}.Sensitivity(dep, []string{"USD"}, curves)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	sens := instrument.FiniteDifferenceSensitivity{Valuator: instrument.ParRateValuator{}, Step: 1e-5}
	_, err = sens.Sensitivity(dep, []string{"EUR"}, curves)
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = sens.Sensitivity(instrument.Deposit{End: 1, Curve: "EUR"}, []string{"USD"}, curves)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
