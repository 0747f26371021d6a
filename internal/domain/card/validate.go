package card

import (
	"errors"
	"fmt"
	"strings"
)

// Upper bounds for the cycle parameters. Real cards settle within days and pay within
// months; larger values are typos.
const (
	MaxSettlementLagBusinessDays = 31
	MaxPaymentMonthOffset        = 12
)

// ErrInvalidCard is wrapped by every ConfigurationError.
var ErrInvalidCard = errors.New("invalid card configuration")

// ConfigurationError lists every problem found in the card master data.
// It is fatal: a run must not allocate anything against malformed cards.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCard, strings.Join(e.Problems, "; "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidCard
}

// Validate checks a single card.
func (p *Profile) Validate() error {
	problems := p.problems()
	if len(problems) == 0 {
		return nil
	}
	return &ConfigurationError{Problems: problems}
}

func (p *Profile) problems() []string {
	var out []string
	label := p.ID
	if strings.TrimSpace(p.ID) == "" {
		out = append(out, "card with empty id")
		label = p.Name
	}
	if p.ClosingDay != ClosingDayEndOfMonth && (p.ClosingDay < 1 || p.ClosingDay > 31) {
		out = append(out, fmt.Sprintf("card %q: closing_day %d outside 1-31 and not %d (end of month)", label, p.ClosingDay, ClosingDayEndOfMonth))
	}
	if p.PaymentDay < 1 || p.PaymentDay > 31 {
		out = append(out, fmt.Sprintf("card %q: payment_day %d outside 1-31", label, p.PaymentDay))
	}
	if p.PaymentMonthOffset < 0 || p.PaymentMonthOffset > MaxPaymentMonthOffset {
		out = append(out, fmt.Sprintf("card %q: payment_month_offset %d outside 0-%d", label, p.PaymentMonthOffset, MaxPaymentMonthOffset))
	}
	if p.SettlementLagBusinessDays < 0 || p.SettlementLagBusinessDays > MaxSettlementLagBusinessDays {
		out = append(out, fmt.Sprintf("card %q: settlement_lag_business_days %d outside 0-%d", label, p.SettlementLagBusinessDays, MaxSettlementLagBusinessDays))
	}
	if p.AvailableBalance < 0 {
		out = append(out, fmt.Sprintf("card %q: available_balance %d is negative", label, p.AvailableBalance))
	}
	return out
}

// ValidateAll checks every card plus id uniqueness and returns one ConfigurationError
// covering the whole collection.
func ValidateAll(cards []*Profile) error {
	var problems []string
	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		if c == nil {
			problems = append(problems, "nil card entry")
			continue
		}
		problems = append(problems, c.problems()...)
		if c.ID != "" {
			if seen[c.ID] {
				problems = append(problems, fmt.Sprintf("card %q: duplicate id", c.ID))
			}
			seen[c.ID] = true
		}
	}
	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}
