package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"card_float_planner/internal/app"
	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/payment"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanning struct {
	holidays map[string]bool
	pending  int
	err      error
	asOf     []time.Time
}

func (f *fakePlanning) Run(ctx context.Context, in app.RunInput) (*app.Plan, error) {
	return nil, errors.New("not used")
}

func (f *fakePlanning) RunFromStore(ctx context.Context, asOf time.Time) (*app.Plan, error) {
	f.asOf = append(f.asOf, asOf)
	if f.err != nil {
		return nil, f.err
	}
	plan := &app.Plan{RunID: "run-1", AsOf: asOf, Verdict: &app.Verdict{OK: true}}
	for i := 0; i < f.pending; i++ {
		plan.Payments = append(plan.Payments, &payment.Request{ID: "p", Amount: 1})
	}
	return plan, nil
}

func (f *fakePlanning) RunWithStoredCards(ctx context.Context, payments []*payment.Request, asOf time.Time) (*app.Plan, error) {
	return nil, errors.New("not used")
}

func (f *fakePlanning) IsBusinessDay(ctx context.Context, day time.Time) (bool, error) {
	return calendar.New(nil).IsBusinessDay(day) && !f.holidays[calendar.FormatDate(day)], nil
}

type fakeNotifier struct {
	delivered []*app.Plan
}

func (f *fakeNotifier) DeliverPlan(ctx context.Context, plan *app.Plan) error {
	f.delivered = append(f.delivered, plan)
	return nil
}

func (f *fakeNotifier) ProcessApproval(ctx context.Context, approverID int64, runID string) error {
	return nil
}

func (f *fakeNotifier) ProcessRejection(ctx context.Context, approverID int64, runID string) error {
	return nil
}

func newTestScheduler(t *testing.T, p *fakePlanning, n *fakeNotifier, now time.Time) *PlanScheduler {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	s := NewPlanScheduler(p, n, logrus.NewEntry(l), "0 9 * * *", tokyo)
	s.now = func() time.Time { return now }
	return s
}

func TestRunDailyPlan(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		holidays      map[string]bool
		pending       int
		wantDelivered int
		wantRuns      int
	}{
		{
			name:          "business day with pending payments",
			now:           time.Date(2025, 5, 14, 0, 30, 0, 0, time.UTC), // 09:30 Wed in Tokyo
			pending:       2,
			wantDelivered: 1,
			wantRuns:      1,
		},
		{
			name:     "business day with nothing pending",
			now:      time.Date(2025, 5, 14, 0, 30, 0, 0, time.UTC),
			wantRuns: 1,
		},
		{
			name:    "saturday is skipped",
			now:     time.Date(2025, 5, 17, 0, 30, 0, 0, time.UTC),
			pending: 2,
		},
		{
			name:     "holiday is skipped",
			now:      time.Date(2025, 5, 6, 0, 30, 0, 0, time.UTC),
			holidays: map[string]bool{"2025-05-06": true},
			pending:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePlanning{holidays: tt.holidays, pending: tt.pending}
			n := &fakeNotifier{}

			require.NoError(t, newTestScheduler(t, p, n, tt.now).RunDailyPlan(context.Background()))

			assert.Len(t, p.asOf, tt.wantRuns)
			assert.Len(t, n.delivered, tt.wantDelivered)
		})
	}
}

func TestRunDailyPlan_UsesLocalDate(t *testing.T) {
	p := &fakePlanning{pending: 1}
	n := &fakeNotifier{}
	// 23:30 UTC Tuesday is already Wednesday morning in Tokyo.
	s := newTestScheduler(t, p, n, time.Date(2025, 5, 13, 23, 30, 0, 0, time.UTC))

	require.NoError(t, s.RunDailyPlan(context.Background()))
	require.Len(t, p.asOf, 1)
	assert.Equal(t, time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC), p.asOf[0])
}

func TestRunDailyPlan_PlanningError(t *testing.T) {
	p := &fakePlanning{err: errors.New("db down")}
	n := &fakeNotifier{}
	s := newTestScheduler(t, p, n, time.Date(2025, 5, 14, 0, 30, 0, 0, time.UTC))

	err := s.RunDailyPlan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, n.delivered)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := newTestScheduler(t, &fakePlanning{}, &fakeNotifier{}, time.Now())
	s.cronSpecDailyPlan = "not a cron spec"
	assert.Error(t, s.Start())
}
