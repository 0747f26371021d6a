// Package billing turns a card's cycle parameters and an application date into the
// dates that matter for cash planning: when the charge posts, which cycle it closes
// into and when the bank debits the company account.
package billing

import (
	"time"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
)

// Cycle is the billing outcome of one charge on one card.
type Cycle struct {
	SettlementDate time.Time
	ClosingDate    time.Time // cycle boundary the charge belongs to, moved back off holidays
	WithdrawalDate time.Time
}

// Float returns the number of calendar days between application and withdrawal.
func (c Cycle) Float(applicationDate time.Time) int {
	return int(c.WithdrawalDate.Sub(calendar.DateOf(applicationDate)).Hours() / 24)
}

// Calculator computes billing cycles against a business calendar.
type Calculator struct {
	cal *calendar.Calendar
}

func NewCalculator(cal *calendar.Calendar) *Calculator {
	return &Calculator{cal: cal}
}

// Calendar returns the calendar the calculator works against.
func (c *Calculator) Calendar() *calendar.Calendar {
	return c.cal
}

// Compute assumes p has passed card validation.
func (c *Calculator) Compute(p *card.Profile, applicationDate time.Time) Cycle {
	settlement := c.cal.AddBusinessDays(applicationDate, p.SettlementLagBusinessDays)

	closingDay := p.ClosingDay
	if p.ClosesAtMonthEnd() {
		closingDay = calendar.LastDayOfMonth(settlement.Year(), settlement.Month())
	}

	// The rollover compares the settlement date, not the application date.
	refYear, refMonth := settlement.Year(), settlement.Month()
	if settlement.Day() > closingDay {
		refYear, refMonth = addMonths(refYear, refMonth, 1)
	}

	closing := c.cal.AdjustToLastPrecedingBusinessDay(clampedDate(refYear, refMonth, c.closingDayIn(p, refYear, refMonth)))

	wYear, wMonth := addMonths(refYear, refMonth, p.PaymentMonthOffset)
	withdrawal := c.cal.AdjustToNextBusinessDay(clampedDate(wYear, wMonth, p.PaymentDay))

	return Cycle{
		SettlementDate: settlement,
		ClosingDate:    closing,
		WithdrawalDate: withdrawal,
	}
}

func (c *Calculator) closingDayIn(p *card.Profile, year int, month time.Month) int {
	if p.ClosesAtMonthEnd() {
		return calendar.LastDayOfMonth(year, month)
	}
	return p.ClosingDay
}

// addMonths adds n months to (year, month), wrapping December into January.
func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := int(month) - 1 + n
	year += idx / 12
	idx %= 12
	if idx < 0 {
		idx += 12
		year--
	}
	return year, time.Month(idx + 1)
}

// clampedDate builds year-month-day, pulling day down to the last valid day of the month.
func clampedDate(year int, month time.Month, day int) time.Time {
	if last := calendar.LastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
