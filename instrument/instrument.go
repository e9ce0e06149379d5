// Package instrument defines reference interest-rate calibration instruments
// and the valuator and sensitivity calculator used to calibrate curves to
// them. Instruments are expressed in year fractions from the curve origin.
package instrument

import (
	"fmt"
	"math"

	"github.com/meenmo/curvecal/errs"
)

// Deposit is a single-period cash deposit quoted as a simple rate.
type Deposit struct {
	Name  string
	Start float64
	End   float64
	Rate  float64
	Curve string
}

func (d Deposit) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("DEP %.4gy", d.End)
}

// Maturity implements curve.Maturer.
func (d Deposit) Maturity() float64 { return d.End }

// FRA is a forward rate agreement quoted as a simple forward rate on the
// forward curve.
type FRA struct {
	Name         string
	Start        float64
	End          float64
	Rate         float64
	ForwardCurve string
}

func (f FRA) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("FRA %.4gx%.4gy", f.Start, f.End)
}

// Maturity implements curve.Maturer.
func (f FRA) Maturity() float64 { return f.End }

// Swap is a spot-starting fixed/float swap quoted as a par rate. The floating
// leg projects off ForwardCurve and both legs discount on DiscountCurve; the
// two may name the same curve.
type Swap struct {
	Name           string
	Tenor          float64
	FixedFrequency int // payments per year
	FloatFrequency int // payments per year
	Rate           float64
	DiscountCurve  string
	ForwardCurve   string
}

func (s Swap) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("SWAP %.4gy", s.Tenor)
}

// Maturity implements curve.Maturer.
func (s Swap) Maturity() float64 { return s.Tenor }

func (s Swap) validate() error {
	if s.Tenor <= 0 {
		return errs.InvalidArgument("swap %s: tenor must be positive", s.Label())
	}
	if s.FixedFrequency <= 0 || s.FloatFrequency <= 0 {
		return errs.InvalidArgument("swap %s: payment frequencies must be positive", s.Label())
	}
	if s.DiscountCurve == "" || s.ForwardCurve == "" {
		return errs.InvalidArgument("swap %s: discount and forward curves are required", s.Label())
	}
	return nil
}

// period is one accrual period of a leg.
type period struct {
	Start float64
	End   float64
}

// schedule rolls backward from maturity in steps of 1/frequency, leaving any
// short stub at the front.
func schedule(maturity float64, frequency int) []period {
	step := 1.0 / float64(frequency)
	n := int(math.Ceil(maturity/step - 1e-9))
	if n < 1 {
		n = 1
	}
	periods := make([]period, n)
	end := maturity
	for i := n - 1; i >= 0; i-- {
		start := end - step
		if i == 0 || start < 0 {
			start = 0
		}
		periods[i] = period{Start: start, End: end}
		end = start
	}
	return periods
}
