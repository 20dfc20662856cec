// Package calendar resolves trading days and attributes session-tagged
// trade dates to the trading day they belong to.
package calendar

import (
	"sort"
	"time"

	apperrors "jpxcli/internal/errors"
	"jpxcli/pkg/contracts/domain"
)

// Lookup resolves the trading day that follows a date.
type Lookup interface {
	NextTradingDay(d time.Time) (time.Time, error)
}

// Calendar is an ordered set of known trading days. Its range of knowledge
// runs from the first to the last day; questions beyond either edge fail
// with UnknownTradingDayError rather than guessing.
type Calendar struct {
	days []time.Time
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// New builds a calendar from explicit trading dates. Duplicates are
// dropped and order does not matter.
func New(dates []time.Time) *Calendar {
	seen := make(map[time.Time]bool, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = Day(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return &Calendar{days: days}
}

// FromWeekdays builds a calendar of every Monday to Friday in [from, to]
// except the given holidays.
func FromWeekdays(from, to time.Time, holidays []time.Time) *Calendar {
	off := make(map[time.Time]bool, len(holidays))
	for _, h := range holidays {
		off[Day(h)] = true
	}
	var days []time.Time
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday || off[d] {
			continue
		}
		days = append(days, d)
	}
	return &Calendar{days: days}
}

// Days returns a copy of the trading days in ascending order.
func (c *Calendar) Days() []time.Time {
	return append([]time.Time(nil), c.days...)
}

// Len returns the number of known trading days.
func (c *Calendar) Len() int { return len(c.days) }

// IsTradingDay reports whether d is a known trading day.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	d = Day(d)
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(d) })
	return i < len(c.days) && c.days[i].Equal(d)
}

func (c *Calendar) covers(d time.Time) bool {
	return len(c.days) > 0 && !d.Before(c.days[0]) && !d.After(c.days[len(c.days)-1])
}

// NextTradingDay returns the first trading day strictly after d.
func (c *Calendar) NextTradingDay(d time.Time) (time.Time, error) {
	d = Day(d)
	if !c.covers(d) {
		return time.Time{}, &apperrors.UnknownTradingDayError{Date: d}
	}
	i := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(d) })
	if i == len(c.days) {
		return time.Time{}, &apperrors.UnknownTradingDayError{Date: d}
	}
	return c.days[i], nil
}

// PrevTradingDay returns the last trading day strictly before d.
func (c *Calendar) PrevTradingDay(d time.Time) (time.Time, error) {
	d = Day(d)
	if !c.covers(d) {
		return time.Time{}, &apperrors.UnknownTradingDayError{Date: d}
	}
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(d) })
	if i == 0 {
		return time.Time{}, &apperrors.UnknownTradingDayError{Date: d}
	}
	return c.days[i-1], nil
}

// TradingDaysBetween returns the trading days in (from, to].
func (c *Calendar) TradingDaysBetween(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	var out []time.Time
	for _, d := range c.days {
		if d.After(from) && !d.After(to) {
			out = append(out, d)
		}
	}
	return out
}

// Before returns up to n trading days strictly before d, oldest first.
func (c *Calendar) Before(d time.Time, n int) []time.Time {
	d = Day(d)
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(d) })
	start := i - n
	if start < 0 {
		start = 0
	}
	return append([]time.Time(nil), c.days[start:i]...)
}

// Shift attributes a published trade date to its trading day. Day-session
// dates are returned unchanged; night-session dates move to the next
// trading day according to lookup. Shifting is a pure function of its
// arguments.
func Shift(date time.Time, session domain.SessionTag, lookup Lookup) (time.Time, error) {
	date = Day(date)
	if session != domain.SessionNight {
		return date, nil
	}
	if lookup == nil {
		return time.Time{}, &apperrors.UnknownTradingDayError{Date: date}
	}
	return lookup.NextTradingDay(date)
}
