package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute(t *testing.T) {
	mid := &card.Profile{ID: "mid", ClosingDay: 15, PaymentDay: 10, PaymentMonthOffset: 1}
	midLag := &card.Profile{ID: "mid-lag", ClosingDay: 15, PaymentDay: 10, PaymentMonthOffset: 1, SettlementLagBusinessDays: 1}
	monthEnd := &card.Profile{ID: "eom", ClosingDay: card.ClosingDayEndOfMonth, PaymentDay: 27, PaymentMonthOffset: 1}
	monthEndLag := &card.Profile{ID: "eom-lag", ClosingDay: card.ClosingDayEndOfMonth, PaymentDay: 27, PaymentMonthOffset: 1, SettlementLagBusinessDays: 1}
	day31 := &card.Profile{ID: "d31", ClosingDay: 15, PaymentDay: 31, PaymentMonthOffset: 1}
	sameMonth := &card.Profile{ID: "same", ClosingDay: 15, PaymentDay: 25, PaymentMonthOffset: 0}

	tests := []struct {
		name           string
		card           *card.Profile
		applied        time.Time
		wantSettlement time.Time
		wantClosing    time.Time
		wantWithdrawal time.Time
	}{
		{
			name:           "settlement after closing day rolls into next cycle",
			card:           mid,
			applied:        date(2025, time.May, 20),
			wantSettlement: date(2025, time.May, 20),
			wantClosing:    date(2025, time.June, 13), // June 15 is a Sunday
			wantWithdrawal: date(2025, time.July, 10),
		},
		{
			name:           "settlement before closing day stays in cycle",
			card:           mid,
			applied:        date(2025, time.May, 14),
			wantSettlement: date(2025, time.May, 14),
			wantClosing:    date(2025, time.May, 15),
			wantWithdrawal: date(2025, time.June, 10),
		},
		{
			name:           "settlement lag pushes past closing day",
			card:           midLag,
			applied:        date(2025, time.May, 15),
			wantSettlement: date(2025, time.May, 16),
			wantClosing:    date(2025, time.June, 13),
			wantWithdrawal: date(2025, time.July, 10),
		},
		{
			name:           "end of month sentinel closes on the 31st",
			card:           monthEnd,
			applied:        date(2025, time.January, 31),
			wantSettlement: date(2025, time.January, 31),
			wantClosing:    date(2025, time.January, 31),
			wantWithdrawal: date(2025, time.February, 27),
		},
		{
			name:           "end of month sentinel, lag crosses into march, withdrawal deferred off sunday",
			card:           monthEndLag,
			applied:        date(2025, time.February, 28),
			wantSettlement: date(2025, time.March, 3),
			wantClosing:    date(2025, time.March, 31),
			wantWithdrawal: date(2025, time.April, 28),
		},
		{
			name:           "payment day 31 clamps to 30 in april",
			card:           day31,
			applied:        date(2025, time.March, 10),
			wantSettlement: date(2025, time.March, 10),
			wantClosing:    date(2025, time.March, 14), // March 15 is a Saturday
			wantWithdrawal: date(2025, time.April, 30),
		},
		{
			name:           "december rollover wraps the year",
			card:           mid,
			applied:        date(2025, time.December, 20),
			wantSettlement: date(2025, time.December, 20),
			wantClosing:    date(2026, time.January, 15),
			wantWithdrawal: date(2026, time.February, 10),
		},
		{
			name:           "offset zero withdraws in the closing month",
			card:           sameMonth,
			applied:        date(2025, time.May, 2),
			wantSettlement: date(2025, time.May, 2),
			wantClosing:    date(2025, time.May, 15),
			wantWithdrawal: date(2025, time.May, 26), // May 25 is a Sunday
		},
	}

	calc := NewCalculator(calendar.New(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Compute(tt.card, tt.applied)
			assert.Equal(t, tt.wantSettlement, got.SettlementDate, "settlement")
			assert.Equal(t, tt.wantClosing, got.ClosingDate, "closing")
			assert.Equal(t, tt.wantWithdrawal, got.WithdrawalDate, "withdrawal")
		})
	}
}

func TestCompute_RolloverWithdrawsTwoMonthsLater(t *testing.T) {
	p := &card.Profile{ID: "c", ClosingDay: 15, PaymentDay: 10, PaymentMonthOffset: 1}
	calc := NewCalculator(calendar.New(nil))

	for m := time.January; m <= time.December; m++ {
		got := calc.Compute(p, date(2025, m, 20))
		// The 20th may fall on a weekend; lag is zero, so settlement stays on the 20th.
		assert.Equal(t, 20, got.SettlementDate.Day())
		wantYear, wantMonth := addMonths(2025, m, 2)
		assert.Equal(t, wantMonth, got.WithdrawalDate.Month(), "applied in %s", m)
		assert.Equal(t, wantYear, got.WithdrawalDate.Year(), "applied in %s", m)
	}
}

func TestCompute_WithdrawalDeferredPastHoliday(t *testing.T) {
	p := &card.Profile{ID: "c", ClosingDay: 15, PaymentDay: 10, PaymentMonthOffset: 1}
	calc := NewCalculator(calendar.New([]time.Time{date(2025, time.July, 10)}))

	got := calc.Compute(p, date(2025, time.May, 20))
	assert.Equal(t, date(2025, time.July, 11), got.WithdrawalDate)
}

func TestCompute_SettlementSkipsHolidays(t *testing.T) {
	p := &card.Profile{ID: "c", ClosingDay: 15, PaymentDay: 10, PaymentMonthOffset: 1, SettlementLagBusinessDays: 2}
	calc := NewCalculator(calendar.New([]time.Time{date(2025, time.May, 14)}))

	// Tue 13 + 2 business days, Wed 14 is a holiday: Thu 15, Fri 16.
	got := calc.Compute(p, date(2025, time.May, 13))
	assert.Equal(t, date(2025, time.May, 16), got.SettlementDate)
	assert.Equal(t, date(2025, time.July, 10), got.WithdrawalDate)
}

func TestCycle_Float(t *testing.T) {
	c := Cycle{WithdrawalDate: date(2025, time.July, 10)}
	assert.Equal(t, 51, c.Float(date(2025, time.May, 20)))
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		n     int
		wantY int
		wantM time.Month
	}{
		{2025, time.January, 0, 2025, time.January},
		{2025, time.December, 1, 2026, time.January},
		{2025, time.November, 14, 2027, time.January},
		{2025, time.March, 2, 2025, time.May},
	}
	for _, tt := range tests {
		y, m := addMonths(tt.year, tt.month, tt.n)
		assert.Equal(t, tt.wantY, y)
		assert.Equal(t, tt.wantM, m)
	}
}
