// Package calendar adjusts dates to business days. A Calendar knows its
// weekend and an explicit holiday list; holiday data is supplied by the caller.
package calendar

import (
	"sort"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
	// WeekendsOnly treats every weekday as a business day.
	WeekendsOnly CalendarID = "WEEKENDS"
)

const dateKey = "2006-01-02"

// Calendar is an immutable holiday calendar. The nil Calendar is
// WeekendsOnly.
type Calendar struct {
	id       CalendarID
	holidays map[string]struct{}
}

// New returns a calendar with the given holidays. Times are compared by
// calendar date only.
func New(id CalendarID, holidays ...time.Time) *Calendar {
	c := &Calendar{id: id, holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format(dateKey)] = struct{}{}
	}
	return c
}

// ID returns the calendar identifier.
func (c *Calendar) ID() CalendarID {
	if c == nil {
		return WeekendsOnly
	}
	return c.id
}

// Holidays returns the holiday dates in ascending order.
func (c *Calendar) Holidays() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.holidays))
	for k := range c.holidays {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Calendar) isHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	_, ok := c.holidays[t.Format(dateKey)]
	return ok
}

// IsBusinessDay checks weekends and the holiday set.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.isHoliday(t)
}

// Adjust applies Modified Following.
func (c *Calendar) Adjust(t time.Time) time.Time {
	origMonth := t.Month()
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !c.IsBusinessDay(t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func (c *Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}
