// internal/app/planning_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card_float_planner/internal/domain/billing"
	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"
	"card_float_planner/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunInput is everything one planning run needs. The run never mutates it.
type RunInput struct {
	Cards    []*card.Profile
	Payments []*payment.Request
	Holidays []time.Time
	AsOf     time.Time
}

// Plan is the output of a run: allocations, failures and the timeline verdict.
type Plan struct {
	RunID          string                   `json:"run_id"`
	AsOf           time.Time                `json:"as_of"`
	GeneratedAt    time.Time                `json:"generated_at"`
	InitialCards   []*card.Profile          `json:"initial_cards"`
	FinalBalances  map[string]int64         `json:"final_balances"`
	Payments       []*payment.Request       `json:"payments"`
	Allocations    []payment.Allocation     `json:"allocations"`
	CapacityErrors []*payment.CapacityError `json:"capacity_errors"`
	Warnings       []string                 `json:"warnings"`
	Verdict        *Verdict                 `json:"verdict"`
}

// Safe is true when the timeline replay found no overdraw. Capacity failures do not make a
// plan unsafe, they only leave payments unplaced.
func (p *Plan) Safe() bool {
	return p.Verdict != nil && p.Verdict.OK
}

// Unplaced sums the amounts no card could take.
func (p *Plan) Unplaced() int64 {
	var total int64
	for _, ce := range p.CapacityErrors {
		total += ce.Unplaced
	}
	return total
}

// NeedsAttention is true when a human must read warnings before approving.
func (p *Plan) NeedsAttention() bool {
	return !p.Safe() || len(p.CapacityErrors) > 0 || len(p.Warnings) > 0
}

// PlanningService runs optimization batches.
type PlanningService interface {
	Run(ctx context.Context, in RunInput) (*Plan, error)
	RunFromStore(ctx context.Context, asOf time.Time) (*Plan, error)
	RunWithStoredCards(ctx context.Context, payments []*payment.Request, asOf time.Time) (*Plan, error)
	IsBusinessDay(ctx context.Context, day time.Time) (bool, error)
}

// PlanningServiceImpl implements PlanningService.
type PlanningServiceImpl struct {
	cardRepo    card.Repository
	holidayRepo calendar.Repository
	paymentRepo payment.Repository
	logger      *logrus.Entry
	now         func() time.Time
}

func NewPlanningServiceImpl(
	cr card.Repository,
	hr calendar.Repository,
	pr payment.Repository,
	logger *logrus.Entry,
) *PlanningServiceImpl {
	return &PlanningServiceImpl{
		cardRepo:    cr,
		holidayRepo: hr,
		paymentRepo: pr,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes one batch. A card ConfigurationError or a malformed payment batch aborts
// before anything is allocated; capacity failures and timeline violations are returned
// inside the plan.
func (s *PlanningServiceImpl) Run(ctx context.Context, in RunInput) (plan *Plan, err error) {
	started := s.now()
	runID := uuid.NewString()
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "as_of": calendar.FormatDate(in.AsOf)})

	defer func() {
		metrics.PlanDuration.Observe(time.Since(started).Seconds())
		switch {
		case err != nil && (errors.Is(err, card.ErrInvalidCard) || errors.Is(err, payment.ErrInvalidPayment)):
			metrics.PlanRuns.WithLabelValues("config_error").Inc()
		case err != nil:
			metrics.PlanRuns.WithLabelValues("failed").Inc()
		case plan.Safe():
			metrics.PlanRuns.WithLabelValues("safe").Inc()
		default:
			metrics.PlanRuns.WithLabelValues("unsafe").Inc()
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := card.ValidateAll(in.Cards); err != nil {
		log.WithError(err).Error("Card master data rejected")
		return nil, err
	}
	if err := payment.ValidateBatch(in.Payments); err != nil {
		log.WithError(err).Error("Payment batch rejected")
		return nil, err
	}

	// The run owns private copies; the caller's cards and payments stay untouched.
	initial := card.CloneAll(in.Cards)
	working := card.CloneAll(in.Cards)
	payments := clonePayments(in.Payments)

	calc := billing.NewCalculator(calendar.New(in.Holidays))
	engine := NewAllocationEngine(calc, log.WithField("component", "allocation"))
	res := engine.Allocate(payments, working)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sim := NewTimelineSimulator(log.WithField("component", "timeline"))
	verdict := sim.Simulate(res.Allocations, initial)

	final := make(map[string]int64, len(working))
	for _, c := range working {
		final[c.ID] = c.AvailableBalance
	}

	plan = &Plan{
		RunID:          runID,
		AsOf:           calendar.DateOf(in.AsOf),
		GeneratedAt:    started,
		InitialCards:   initial,
		FinalBalances:  final,
		Payments:       payments,
		Allocations:    res.Allocations,
		CapacityErrors: res.CapacityErrors,
		Warnings:       res.Warnings,
		Verdict:        verdict,
	}
	recordPlanMetrics(plan)

	log.WithFields(logrus.Fields{
		"payments":        len(payments),
		"allocations":     len(plan.Allocations),
		"capacity_errors": len(plan.CapacityErrors),
		"unplaced":        plan.Unplaced(),
		"safe":            plan.Safe(),
	}).Info("Planning run completed")
	return plan, nil
}

// RunFromStore loads card master data, holidays and pending payments, then runs.
func (s *PlanningServiceImpl) RunFromStore(ctx context.Context, asOf time.Time) (*Plan, error) {
	asOf = calendar.DateOf(asOf)
	pending, err := s.paymentRepo.ListPending(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payments: %w", err)
	}
	return s.RunWithStoredCards(ctx, pending, asOf)
}

// RunWithStoredCards plans the given payments against stored cards and holidays.
func (s *PlanningServiceImpl) RunWithStoredCards(ctx context.Context, payments []*payment.Request, asOf time.Time) (*Plan, error) {
	asOf = calendar.DateOf(asOf)

	cards, err := s.cardRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	holidays, err := s.loadHolidays(ctx, cards, payments, asOf)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"cards":    len(cards),
		"holidays": len(holidays),
		"payments": len(payments),
	}).Info("Loaded planning inputs from store")

	return s.Run(ctx, RunInput{Cards: cards, Payments: payments, Holidays: holidays, AsOf: asOf})
}

// IsBusinessDay checks day against the stored holiday calendar.
func (s *PlanningServiceImpl) IsBusinessDay(ctx context.Context, day time.Time) (bool, error) {
	day = calendar.DateOf(day)
	hs, err := s.holidayRepo.ListHolidays(ctx, day, day)
	if err != nil {
		return false, fmt.Errorf("failed to load holidays: %w", err)
	}
	return calendar.FromHolidays(hs).IsBusinessDay(day), nil
}

func (s *PlanningServiceImpl) loadHolidays(ctx context.Context, cards []*card.Profile, payments []*payment.Request, asOf time.Time) ([]time.Time, error) {
	from, to := holidayRange(cards, payments, asOf)
	hs, err := s.holidayRepo.ListHolidays(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	dates := make([]time.Time, 0, len(hs))
	for _, h := range hs {
		dates = append(dates, h.Date)
	}
	return dates, nil
}

// holidayRange covers every date a run can look at: from the earliest application up to
// the latest possible withdrawal. A settlement lag of n business days spans at most
// 2n+14 calendar days even across long holiday runs; the rollover adds one month, the
// offset adds its months, and one more month absorbs payment-day clamping and the
// forward adjustment.
func holidayRange(cards []*card.Profile, payments []*payment.Request, asOf time.Time) (time.Time, time.Time) {
	earliest, latest := calendar.DateOf(asOf), calendar.DateOf(asOf)
	for _, p := range payments {
		d := calendar.DateOf(p.ApplicationDate)
		if d.Before(earliest) {
			earliest = d
		}
		if d.After(latest) {
			latest = d
		}
	}
	var maxLag, maxOffset int
	for _, c := range cards {
		maxLag = max(maxLag, c.SettlementLagBusinessDays)
		maxOffset = max(maxOffset, c.PaymentMonthOffset)
	}
	// Out-of-range cards are rejected by the run itself; keep the lookup bounded.
	maxLag = min(maxLag, card.MaxSettlementLagBusinessDays)
	maxOffset = min(maxOffset, card.MaxPaymentMonthOffset)
	to := latest.AddDate(0, 0, 2*maxLag+14).AddDate(0, maxOffset+2, 0)
	return earliest, to
}

func clonePayments(in []*payment.Request) []*payment.Request {
	out := make([]*payment.Request, 0, len(in))
	for _, p := range in {
		cp := *p
		cp.Allocations = nil
		cp.CapacityError = nil
		out = append(out, &cp)
	}
	return out
}

func recordPlanMetrics(plan *Plan) {
	for _, a := range plan.Allocations {
		metrics.Allocations.WithLabelValues(string(a.Pass)).Inc()
		metrics.AllocatedAmount.WithLabelValues(a.CardID).Add(float64(a.Amount))
	}
	metrics.CapacityFailures.Add(float64(len(plan.CapacityErrors)))
	for _, v := range plan.Verdict.Violations {
		metrics.TimelineViolations.WithLabelValues(v.CardID).Inc()
	}
	for id, bal := range plan.FinalBalances {
		metrics.CardBalanceAfterPlan.WithLabelValues(id).Set(float64(bal))
	}
}
