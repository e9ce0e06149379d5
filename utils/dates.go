package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format used in configuration files.
const DateLayout = "2006-01-02"

// DateParser converts YYYY-MM-DD to time.Time.
func DateParser(strDate string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(strDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("DateParser: %w", err)
	}
	return t, nil
}

// AddMonth behaves like Excel's EDATE, avoiding Go's month normalization surprises.
func AddMonth(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Tenor is a parsed period such as 6M or 5Y.
type Tenor struct {
	N    int
	Unit byte // 'D', 'W', 'M' or 'Y'
}

// ParseTenor parses tenor strings like "1W", "3M", "10Y".
func ParseTenor(s string) (Tenor, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) < 2 {
		return Tenor{}, fmt.Errorf("ParseTenor: invalid tenor %q", s)
	}
	unit := s[len(s)-1]
	switch unit {
	case 'D', 'W', 'M', 'Y':
	default:
		return Tenor{}, fmt.Errorf("ParseTenor: unknown unit in tenor %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Tenor{}, fmt.Errorf("ParseTenor: invalid count in tenor %q", s)
	}
	return Tenor{N: n, Unit: unit}, nil
}

// AddTo returns t moved forward by the tenor. Month and year tenors follow
// AddMonth.
func (p Tenor) AddTo(t time.Time) time.Time {
	switch p.Unit {
	case 'D':
		return t.AddDate(0, 0, p.N)
	case 'W':
		return t.AddDate(0, 0, 7*p.N)
	case 'M':
		return AddMonth(t, p.N)
	default:
		return AddMonth(t, 12*p.N)
	}
}

func (p Tenor) String() string {
	return strconv.Itoa(p.N) + string(p.Unit)
}

// RoundTo rounds a float to the specified decimal places.
func RoundTo(val float64, decimals uint32) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
