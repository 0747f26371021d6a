// internal/domain/calendar/calendar.go
package calendar

import (
	"context"
	"time"
)

const dateLayout = "2006-01-02"

// Holiday is a non-business calendar date, e.g. a national holiday or a bank closure.
type Holiday struct {
	Date time.Time
	Name string
}

// Repository defines operations for the holiday calendar.
type Repository interface {
	ListHolidays(ctx context.Context, from, to time.Time) ([]Holiday, error)
	AddHoliday(ctx context.Context, h Holiday) error
	RemoveHoliday(ctx context.Context, date time.Time) error
}

// Calendar answers business-day questions against a fixed holiday set.
// A Calendar is read-only after construction and safe for concurrent use.
type Calendar struct {
	holidays map[string]struct{}
}

// New builds a calendar from the given holiday dates. Saturdays and Sundays are always
// non-business days and need not be listed.
func New(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[DateOf(h).Format(dateLayout)] = struct{}{}
	}
	return c
}

// FromHolidays is New over Holiday records.
func FromHolidays(holidays []Holiday) *Calendar {
	dates := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	return New(dates)
}

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	firstOfNextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNextMonth.AddDate(0, 0, -1).Day()
}

// IsHoliday reports whether d is in the holiday set.
func (c *Calendar) IsHoliday(d time.Time) bool {
	_, ok := c.holidays[DateOf(d).Format(dateLayout)]
	return ok
}

// IsBusinessDay is false for weekends and holidays.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(d)
}

// AddBusinessDays moves forward one calendar day at a time until n business days have
// been counted. The result is never adjusted afterwards; n <= 0 returns start.
func (c *Calendar) AddBusinessDays(start time.Time, n int) time.Time {
	d := DateOf(start)
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, 1)
		if c.IsBusinessDay(d) {
			counted++
		}
	}
	return d
}

// AdjustToLastPrecedingBusinessDay steps backward until d is a business day.
// Used for cycle boundaries: a closing day on a holiday closes early.
func (c *Calendar) AdjustToLastPrecedingBusinessDay(d time.Time) time.Time {
	d = DateOf(d)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AdjustToNextBusinessDay steps forward until d is a business day.
// Used for withdrawals: banks defer a debit, they never advance it.
func (c *Calendar) AdjustToNextBusinessDay(d time.Time) time.Time {
	d = DateOf(d)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
