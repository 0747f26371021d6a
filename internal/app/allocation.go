// internal/app/allocation.go
package app

import (
	"fmt"
	"sort"
	"time"

	"card_float_planner/internal/domain/billing"
	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"

	"github.com/sirupsen/logrus"
)

// AllocationResult is the outcome of one AllocationEngine run.
type AllocationResult struct {
	Payments       []*payment.Request // same requests, with Allocations attached
	Allocations    []payment.Allocation
	CapacityErrors []*payment.CapacityError
	Warnings       []string
}

// AllocationEngine decides which card pays which amount.
// It is single-use per run: Allocate mutates the balances of the cards it is given.
type AllocationEngine struct {
	calc   *billing.Calculator
	logger *logrus.Entry
}

func NewAllocationEngine(calc *billing.Calculator, logger *logrus.Entry) *AllocationEngine {
	return &AllocationEngine{calc: calc, logger: logger}
}

type candidate struct {
	card  *card.Profile
	cycle billing.Cycle
}

// Allocate runs the preferred, non-splittable and splittable passes in that order.
// Each pass only touches payments that earlier passes left incomplete.
func (e *AllocationEngine) Allocate(payments []*payment.Request, cards []*card.Profile) *AllocationResult {
	res := &AllocationResult{Payments: payments}
	byID := card.Index(cards)

	ordered := make([]*payment.Request, len(payments))
	copy(ordered, payments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	e.preferredPass(res, ordered, byID)
	e.nonSplittablePass(res, ordered, cards)
	e.splittablePass(res, ordered, cards)

	e.logger.WithFields(logrus.Fields{
		"payments":        len(payments),
		"allocations":     len(res.Allocations),
		"capacity_errors": len(res.CapacityErrors),
		"warnings":        len(res.Warnings),
	}).Info("Allocation finished")
	return res
}

func (e *AllocationEngine) preferredPass(res *AllocationResult, ordered []*payment.Request, byID map[string]*card.Profile) {
	for _, p := range ordered {
		if p.PreferredCardID == "" || p.FullyAllocated() {
			continue
		}
		c, ok := byID[p.PreferredCardID]
		if !ok {
			e.warn(res, p, fmt.Sprintf("payment %s: preferred card %q is unknown, falling back", p.ID, p.PreferredCardID))
			continue
		}
		amount := p.Remaining()
		if c.AvailableBalance < amount {
			e.warn(res, p, fmt.Sprintf("payment %s: preferred card %s has %d available, needs %d, falling back",
				p.ID, c.ID, c.AvailableBalance, amount))
			continue
		}
		cycle := e.calc.Compute(c, p.ApplicationDate)
		e.commit(res, p, c, amount, cycle, payment.PassPreferred, "preferred card")
	}
}

func (e *AllocationEngine) nonSplittablePass(res *AllocationResult, ordered []*payment.Request, cards []*card.Profile) {
	var categories []payment.Category
	groups := make(map[payment.Category][]*payment.Request)
	for _, p := range ordered {
		if p.IsSplittable || p.FullyAllocated() {
			continue
		}
		if _, ok := groups[p.Category]; !ok {
			categories = append(categories, p.Category)
		}
		groups[p.Category] = append(groups[p.Category], p)
	}

	for _, cat := range categories {
		pool := eligibleCards(cards, cat)
		for _, p := range groups[cat] {
			amount := p.Remaining()
			ranked := e.rank(pool, p.ApplicationDate)
			placed := false
			for i, cand := range ranked {
				if cand.card.AvailableBalance < amount {
					continue
				}
				reason := fmt.Sprintf("withdrawal %s, rank %d of %d eligible", calendar.FormatDate(cand.cycle.WithdrawalDate), i+1, len(ranked))
				e.commit(res, p, cand.card, amount, cand.cycle, payment.PassNonSplittable, reason)
				placed = true
				break
			}
			if !placed {
				detail := "no eligible card has enough balance for the whole amount"
				if len(pool) == 0 {
					detail = fmt.Sprintf("no card is eligible for category %q", cat)
				}
				e.capacityFailure(res, p, amount, detail)
			}
		}
	}
}

func (e *AllocationEngine) splittablePass(res *AllocationResult, ordered []*payment.Request, cards []*card.Profile) {
	for _, p := range ordered {
		if !p.IsSplittable || p.FullyAllocated() {
			continue
		}
		pool := eligibleCards(cards, p.Category)
		ranked := e.rank(pool, p.ApplicationDate)
		for i, cand := range ranked {
			remaining := p.Remaining()
			if remaining == 0 {
				break
			}
			if cand.card.AvailableBalance <= 0 {
				continue
			}
			amount := min(remaining, cand.card.AvailableBalance)
			reason := fmt.Sprintf("split, withdrawal %s, rank %d of %d eligible", calendar.FormatDate(cand.cycle.WithdrawalDate), i+1, len(ranked))
			e.commit(res, p, cand.card, amount, cand.cycle, payment.PassSplittable, reason)
		}
		if rest := p.Remaining(); rest > 0 {
			detail := "all eligible cards exhausted"
			if len(pool) == 0 {
				detail = fmt.Sprintf("no card is eligible for category %q", p.Category)
			}
			e.capacityFailure(res, p, rest, detail)
		}
	}
}

// rank orders cards by latest withdrawal first; ties go to the larger remaining balance.
func (e *AllocationEngine) rank(pool []*card.Profile, applicationDate time.Time) []candidate {
	out := make([]candidate, 0, len(pool))
	for _, c := range pool {
		out = append(out, candidate{card: c, cycle: e.calc.Compute(c, applicationDate)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].cycle.WithdrawalDate, out[j].cycle.WithdrawalDate
		if !wi.Equal(wj) {
			return wi.After(wj)
		}
		if out[i].card.AvailableBalance != out[j].card.AvailableBalance {
			return out[i].card.AvailableBalance > out[j].card.AvailableBalance
		}
		return out[i].card.ID < out[j].card.ID
	})
	return out
}

func eligibleCards(cards []*card.Profile, cat payment.Category) []*card.Profile {
	if !cat.RequiresInvoiceSupport() {
		return cards
	}
	var out []*card.Profile
	for _, c := range cards {
		if c.SupportsSplitInvoicePayment {
			out = append(out, c)
		}
	}
	return out
}

func (e *AllocationEngine) commit(res *AllocationResult, p *payment.Request, c *card.Profile, amount int64, cycle billing.Cycle, pass payment.Pass, reason string) {
	if amount <= 0 || amount > c.AvailableBalance || amount > p.Remaining() {
		// Callers check balance first; reaching here is a programming error.
		panic(fmt.Sprintf("allocation of %d for payment %s on card %s violates balance or amount bounds", amount, p.ID, c.ID))
	}
	c.AvailableBalance -= amount
	a := payment.Allocation{
		PaymentID:      p.ID,
		CardID:         c.ID,
		Amount:         amount,
		SettlementDate: cycle.SettlementDate,
		ClosingDate:    cycle.ClosingDate,
		WithdrawalDate: cycle.WithdrawalDate,
		Pass:           pass,
		Reason:         reason,
	}
	p.Allocations = append(p.Allocations, a)
	res.Allocations = append(res.Allocations, a)

	e.logger.WithFields(logrus.Fields{
		"payment_id":      p.ID,
		"card_id":         c.ID,
		"amount":          amount,
		"pass":            pass,
		"withdrawal_date": calendar.FormatDate(cycle.WithdrawalDate),
		"balance_left":    c.AvailableBalance,
	}).Debug("Allocation committed")
}

func (e *AllocationEngine) warn(res *AllocationResult, p *payment.Request, msg string) {
	res.Warnings = append(res.Warnings, msg)
	e.logger.WithField("payment_id", p.ID).Warn(msg)
}

func (e *AllocationEngine) capacityFailure(res *AllocationResult, p *payment.Request, unplaced int64, detail string) {
	ce := &payment.CapacityError{
		PaymentID: p.ID,
		Requested: p.Amount,
		Unplaced:  unplaced,
		Detail:    detail,
	}
	p.CapacityError = ce
	res.CapacityErrors = append(res.CapacityErrors, ce)
	e.logger.WithError(ce).Warn("Payment could not be fully placed")
}
