// Package tomlfile reads card master data and payment batches from TOML files,
// the offline input of "planner plan".
package tomlfile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"

	"github.com/BurntSushi/toml"
)

// CardsFile is the layout of cards.toml:
//
//	[[cards]]
//	id = "visa"
//	name = "Corporate Visa"
//	closing_day = 15           # or end_of_month = true, never both
//	payment_day = 10
//	payment_month_offset = 1   # optional, defaults to 1 (next month)
//	settlement_lag_business_days = 2
//	supports_split_invoice_payment = true
//	available_balance = 1200000
//
//	[[holidays]]
//	date = "2025-05-06"
//	name = "Substitute holiday"
type CardsFile struct {
	Cards    []CardEntry    `toml:"cards"`
	Holidays []HolidayEntry `toml:"holidays"`
}

type CardEntry struct {
	ID                          string `toml:"id"`
	Name                        string `toml:"name"`
	ClosingDay                  int    `toml:"closing_day"`
	EndOfMonth                  bool   `toml:"end_of_month"`
	PaymentDay                  int    `toml:"payment_day"`
	PaymentMonthOffset          *int   `toml:"payment_month_offset"` // defaults to 1
	SettlementLagBusinessDays   int    `toml:"settlement_lag_business_days"`
	SupportsSplitInvoicePayment bool   `toml:"supports_split_invoice_payment"`
	AvailableBalance            int64  `toml:"available_balance"`
}

type HolidayEntry struct {
	Date string `toml:"date"`
	Name string `toml:"name"`
}

// PaymentsFile is the layout of payments.toml:
//
//	as_of = "2025-05-14"   # optional, defaults to today
//
//	[[payments]]
//	id = "inv-0042"
//	display_name = "Cloud hosting"
//	amount = 380000
//	splittable = true
//	preferred_card = "visa"
//	priority = 10
//	application_date = "2025-05-14"
//	category = "invoice"
type PaymentsFile struct {
	AsOf     string         `toml:"as_of"`
	Payments []PaymentEntry `toml:"payments"`
}

type PaymentEntry struct {
	ID              string `toml:"id"`
	DisplayName     string `toml:"display_name"`
	Amount          int64  `toml:"amount"`
	Splittable      bool   `toml:"splittable"`
	PreferredCard   string `toml:"preferred_card"`
	Priority        int    `toml:"priority"`
	ApplicationDate string `toml:"application_date"`
	Category        string `toml:"category"`
}

// Cards is the decoded content of a cards file.
type Cards struct {
	Cards    []*card.Profile
	Holidays []calendar.Holiday
}

// HolidayDates returns just the dates, the form a planning run takes.
func (c *Cards) HolidayDates() []time.Time {
	out := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		out = append(out, h.Date)
	}
	return out
}

// Payments is the decoded content of a payments file. AsOf is zero when the file omits it.
type Payments struct {
	AsOf     time.Time
	Payments []*payment.Request
}

// LoadCards decodes a cards file. Card values are not validated here; a planning run
// rejects malformed cards with a ConfigurationError.
func LoadCards(path string) (*Cards, error) {
	var raw CardsFile
	if err := decodeStrict(path, &raw); err != nil {
		return nil, err
	}

	out := &Cards{
		Cards:    make([]*card.Profile, 0, len(raw.Cards)),
		Holidays: make([]calendar.Holiday, 0, len(raw.Holidays)),
	}
	for _, c := range raw.Cards {
		if c.EndOfMonth && c.ClosingDay != 0 {
			return nil, fmt.Errorf("%s: card %q: set either closing_day or end_of_month, not both", path, c.ID)
		}
		offset := 1
		if c.PaymentMonthOffset != nil {
			offset = *c.PaymentMonthOffset
		}
		closing := c.ClosingDay
		if c.EndOfMonth {
			closing = card.ClosingDayEndOfMonth
		}
		out.Cards = append(out.Cards, &card.Profile{
			ID:                          c.ID,
			Name:                        c.Name,
			ClosingDay:                  closing,
			PaymentDay:                  c.PaymentDay,
			PaymentMonthOffset:          offset,
			SettlementLagBusinessDays:   c.SettlementLagBusinessDays,
			SupportsSplitInvoicePayment: c.SupportsSplitInvoicePayment,
			AvailableBalance:            c.AvailableBalance,
		})
	}
	for _, h := range raw.Holidays {
		d, err := calendar.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: holiday %q: expected YYYY-MM-DD", path, h.Date)
		}
		out.Holidays = append(out.Holidays, calendar.Holiday{Date: d, Name: h.Name})
	}
	return out, nil
}

// LoadPayments decodes a payments file.
func LoadPayments(path string) (*Payments, error) {
	var raw PaymentsFile
	if err := decodeStrict(path, &raw); err != nil {
		return nil, err
	}

	out := &Payments{Payments: make([]*payment.Request, 0, len(raw.Payments))}
	if raw.AsOf != "" {
		d, err := calendar.ParseDate(raw.AsOf)
		if err != nil {
			return nil, fmt.Errorf("%s: as_of %q: expected YYYY-MM-DD", path, raw.AsOf)
		}
		out.AsOf = d
	}
	for _, p := range raw.Payments {
		applied, err := calendar.ParseDate(p.ApplicationDate)
		if err != nil {
			return nil, fmt.Errorf("%s: payment %q: application_date %q: expected YYYY-MM-DD", path, p.ID, p.ApplicationDate)
		}
		category := payment.Category(strings.ToLower(strings.TrimSpace(p.Category)))
		if category == "" {
			category = payment.CategoryPurchase
		}
		out.Payments = append(out.Payments, &payment.Request{
			ID:              p.ID,
			DisplayName:     p.DisplayName,
			Amount:          p.Amount,
			IsSplittable:    p.Splittable,
			PreferredCardID: p.PreferredCard,
			Priority:        p.Priority,
			ApplicationDate: applied,
			Category:        category,
		})
	}
	return out, nil
}

// decodeStrict rejects keys the layout does not know, so a typo never silently
// drops a card parameter.
func decodeStrict(path string, v interface{}) error {
	md, err := toml.DecodeFile(path, v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("parse %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}
