package tomlfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCards(t *testing.T) {
	path := writeFile(t, "cards.toml", `
[[cards]]
id = "visa"
name = "Corporate Visa"
closing_day = 15
payment_day = 10
settlement_lag_business_days = 2
supports_split_invoice_payment = true
available_balance = 1200000

[[cards]]
id = "amex"
name = "Amex"
end_of_month = true
payment_day = 27
payment_month_offset = 0
available_balance = 300000

[[holidays]]
date = "2025-05-06"
name = "Substitute holiday"
`)

	got, err := LoadCards(path)
	require.NoError(t, err)
	require.Len(t, got.Cards, 2)

	assert.Equal(t, &card.Profile{
		ID: "visa", Name: "Corporate Visa", ClosingDay: 15, PaymentDay: 10, PaymentMonthOffset: 1,
		SettlementLagBusinessDays: 2, SupportsSplitInvoicePayment: true, AvailableBalance: 1_200_000,
	}, got.Cards[0])
	assert.Equal(t, card.ClosingDayEndOfMonth, got.Cards[1].ClosingDay)
	assert.Equal(t, 1, got.Cards[0].PaymentMonthOffset, "omitted offset defaults to next month")
	assert.Equal(t, 0, got.Cards[1].PaymentMonthOffset)

	require.Len(t, got.Holidays, 1)
	assert.Equal(t, "Substitute holiday", got.Holidays[0].Name)
	assert.Equal(t, []time.Time{time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)}, got.HolidayDates())
}

func TestLoadCards_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[[cards]]\nid = \"x\"\nclosing_dya = 15\n", "unknown keys: cards.closing_dya"},
		{"bad holiday", "[[holidays]]\ndate = \"May 6\"\n", `holiday "May 6"`},
		{"not toml", "[[cards]\n", "parse"},
		{"closing day and end of month", "[[cards]]\nid = \"x\"\nclosing_day = 15\nend_of_month = true\npayment_day = 10\n", `card "x": set either closing_day or end_of_month`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCards(writeFile(t, "cards.toml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadCards(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadPayments(t *testing.T) {
	path := writeFile(t, "payments.toml", `
as_of = "2025-05-14"

[[payments]]
id = "inv-42"
display_name = "Cloud hosting"
amount = 380000
splittable = true
preferred_card = "visa"
priority = 10
application_date = "2025-05-14"
category = "Invoice"

[[payments]]
id = "pur-7"
amount = 1200
application_date = "2025-05-13"
`)

	got, err := LoadPayments(path)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC), got.AsOf)
	require.Len(t, got.Payments, 2)
	inv := got.Payments[0]
	assert.Equal(t, "inv-42", inv.ID)
	assert.Equal(t, int64(380_000), inv.Amount)
	assert.True(t, inv.IsSplittable)
	assert.Equal(t, "visa", inv.PreferredCardID)
	assert.Equal(t, 10, inv.Priority)
	assert.Equal(t, payment.CategoryInvoice, inv.Category)
	assert.Equal(t, payment.CategoryPurchase, got.Payments[1].Category)
}

func TestLoadPayments_BadDate(t *testing.T) {
	_, err := LoadPayments(writeFile(t, "payments.toml", "[[payments]]\nid = \"p\"\namount = 1\napplication_date = \"tomorrow\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `payment "p"`)
}
