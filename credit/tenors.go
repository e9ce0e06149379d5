package credit

import (
	"time"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/errs"
	"github.com/meenmo/curvecal/utils"
)

// TenorDates rolls tenor strings such as "6M" or "5Y" from valuation with
// AddMonth and adjusts them Modified Following on cal. A nil cal skips only
// weekends.
func TenorDates(valuation time.Time, tenors []string, cal *calendar.Calendar) ([]time.Time, error) {
	out := make([]time.Time, len(tenors))
	for i, s := range tenors {
		tenor, err := utils.ParseTenor(s)
		if err != nil {
			return nil, errs.InvalidArgument("tenor %d: %v", i, err)
		}
		out[i] = cal.Adjust(tenor.AddTo(valuation))
	}
	return out, nil
}

// TenorTimes converts tenor strings into year fractions from valuation
// under dayCount. The resulting times must be strictly ascending.
func TenorTimes(valuation time.Time, tenors []string, cal *calendar.Calendar, dayCount string) ([]float64, error) {
	dates, err := TenorDates(valuation, tenors, cal)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(dates))
	prev := 0.0
	for i, d := range dates {
		yf, err := utils.YearFraction(valuation, d, dayCount)
		if err != nil {
			return nil, errs.InvalidArgument("tenor %s: %v", tenors[i], err)
		}
		if yf <= prev {
			return nil, errs.InvalidArgument("tenor %s (%.6g) is not after the previous tenor", tenors[i], yf)
		}
		out[i], prev = yf, yf
	}
	return out, nil
}
