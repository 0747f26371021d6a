// internal/app/timeline.go
package app

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"

	"github.com/sirupsen/logrus"
)

// EventKind distinguishes balance-consuming from balance-restoring events.
type EventKind string

const (
	EventSettlement EventKind = "SETTLEMENT" // charge posts, balance decreases
	EventWithdrawal EventKind = "WITHDRAWAL" // cycle is paid, balance is restored
)

// Event is one dated balance movement derived from an allocation.
type Event struct {
	Date      time.Time `json:"date"`
	Kind      EventKind `json:"kind"`
	CardID    string    `json:"card_id"`
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
}

// LedgerEntry is an event together with the card's balance right after it.
type LedgerEntry struct {
	Event
	BalanceAfter int64 `json:"balance_after"`
}

// ErrOverdraw is wrapped by every Violation.
var ErrOverdraw = errors.New("card balance went negative")

// Violation records a settlement that drove a card below zero.
type Violation struct {
	CardID    string    `json:"card_id"`
	Date      time.Time `json:"date"`
	PaymentID string    `json:"payment_id"`
	Shortfall int64     `json:"shortfall"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("card %s short by %d on %s (payment %s)", v.CardID, v.Shortfall, calendar.FormatDate(v.Date), v.PaymentID)
}

func (v Violation) Unwrap() error {
	return ErrOverdraw
}

// Verdict is the result of replaying a plan over time.
type Verdict struct {
	OK         bool                     `json:"ok"`
	Violations []Violation              `json:"violations"`
	Ledgers    map[string][]LedgerEntry `json:"ledgers"`
}

// Err joins all violations, or returns nil when the plan is safe.
func (v *Verdict) Err() error {
	if v.OK {
		return nil
	}
	errs := make([]error, 0, len(v.Violations))
	for _, viol := range v.Violations {
		errs = append(errs, viol)
	}
	return errors.Join(errs...)
}

// TimelineSimulator re-verifies a plan independently of the allocation engine's own
// bookkeeping by replaying every settlement and withdrawal in date order.
type TimelineSimulator struct {
	logger *logrus.Entry
}

func NewTimelineSimulator(logger *logrus.Entry) *TimelineSimulator {
	return &TimelineSimulator{logger: logger}
}

// BuildEvents derives one settlement and one withdrawal per allocation, in replay order.
func BuildEvents(allocs []payment.Allocation) []Event {
	events := make([]Event, 0, 2*len(allocs))
	for _, a := range allocs {
		events = append(events,
			Event{Date: calendar.DateOf(a.SettlementDate), Kind: EventSettlement, CardID: a.CardID, PaymentID: a.PaymentID, Amount: a.Amount},
			Event{Date: calendar.DateOf(a.WithdrawalDate), Kind: EventWithdrawal, CardID: a.CardID, PaymentID: a.PaymentID, Amount: a.Amount},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		// Same day: a charge posts before any repayment frees capacity.
		if a.Kind != b.Kind {
			return a.Kind == EventSettlement
		}
		if a.CardID != b.CardID {
			return a.CardID < b.CardID
		}
		return a.PaymentID < b.PaymentID
	})
	return events
}

// Simulate replays allocations against the cards' initial balances. It never stops at
// the first violation. initialCards must hold balances as they were before allocation.
func (s *TimelineSimulator) Simulate(allocs []payment.Allocation, initialCards []*card.Profile) *Verdict {
	running := make(map[string]int64, len(initialCards))
	ledgers := make(map[string][]LedgerEntry, len(initialCards))
	for _, c := range initialCards {
		running[c.ID] = c.AvailableBalance
		ledgers[c.ID] = []LedgerEntry{}
	}

	verdict := &Verdict{OK: true, Ledgers: ledgers}
	for _, ev := range BuildEvents(allocs) {
		switch ev.Kind {
		case EventSettlement:
			running[ev.CardID] -= ev.Amount
			if bal := running[ev.CardID]; bal < 0 {
				v := Violation{CardID: ev.CardID, Date: ev.Date, PaymentID: ev.PaymentID, Shortfall: -bal}
				verdict.Violations = append(verdict.Violations, v)
				verdict.OK = false
				s.logger.WithError(v).Warn("Timeline violation")
			}
		case EventWithdrawal:
			running[ev.CardID] += ev.Amount
		}
		ledgers[ev.CardID] = append(ledgers[ev.CardID], LedgerEntry{Event: ev, BalanceAfter: running[ev.CardID]})
	}

	s.logger.WithFields(logrus.Fields{
		"events":     2 * len(allocs),
		"ok":         verdict.OK,
		"violations": len(verdict.Violations),
	}).Info("Timeline simulation finished")
	return verdict
}
