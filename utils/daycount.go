package utils

import (
	"fmt"
	"strings"
	"time"
)

// YearFraction computes the year fraction between two dates.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360.
func YearFraction(start, end time.Time, convention string) (float64, error) {
	days := end.Sub(start).Hours() / 24
	switch strings.ToUpper(strings.TrimSpace(convention)) {
	case "ACT/360":
		return days / 360.0, nil
	case "ACT/365F", "ACT/365":
		return days / 365.0, nil
	case "30E/360", "30/360":
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0, nil
	default:
		return 0, fmt.Errorf("YearFraction: unsupported day count %q", convention)
	}
}
