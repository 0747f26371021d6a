// internal/domain/card/card.go
package card

// ClosingDayEndOfMonth is the ClosingDay sentinel meaning "last calendar day of the month".
const ClosingDayEndOfMonth = 99

// Profile holds a credit card's billing parameters and its current available credit.
// Profiles are loaded once per planning run; only the run's own copy is ever mutated.
type Profile struct {
	ID                          string
	Name                        string
	ClosingDay                  int   // 1-31 or ClosingDayEndOfMonth
	PaymentDay                  int   // 1-31, clamped to the month length
	PaymentMonthOffset          int   // 0 = same month as the closing, 1 = following month, ...
	SettlementLagBusinessDays   int   // business days between application and posting
	SupportsSplitInvoicePayment bool  // usable for invoice-style payments
	AvailableBalance            int64 // smallest currency unit
}

// ClosesAtMonthEnd reports whether the card uses the end-of-month sentinel.
func (p *Profile) ClosesAtMonthEnd() bool {
	return p.ClosingDay == ClosingDayEndOfMonth
}

// Clone returns an independent copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	return &c
}

// CloneAll deep-copies a card collection so a run can mutate balances without
// touching the caller's data.
func CloneAll(cards []*Profile) []*Profile {
	out := make([]*Profile, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Clone())
	}
	return out
}

// Index returns the cards keyed by ID.
func Index(cards []*Profile) map[string]*Profile {
	m := make(map[string]*Profile, len(cards))
	for _, c := range cards {
		m[c.ID] = c
	}
	return m
}
