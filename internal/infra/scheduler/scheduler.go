package scheduler

import (
	"context"
	"fmt"
	"time"

	"card_float_planner/internal/app"
	"card_float_planner/internal/domain/calendar"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const dailyPlanTimeout = 2 * time.Minute

// PlanScheduler builds the day's plan from the store and delivers it to the admin chat.
type PlanScheduler struct {
	cronEngine          *cron.Cron
	planningService     app.PlanningService
	notificationService app.NotificationService
	logger              *logrus.Entry
	cronSpecDailyPlan   string
	location            *time.Location
	now                 func() time.Time
}

func NewPlanScheduler(
	planningService app.PlanningService,
	notificationService app.NotificationService,
	logger *logrus.Entry,
	cronSpecDailyPlan string, // e.g. "0 9 * * *"
	location *time.Location,
) *PlanScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &PlanScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		planningService:     planningService,
		notificationService: notificationService,
		logger:              logger,
		cronSpecDailyPlan:   cronSpecDailyPlan,
		location:            location,
		now:                 time.Now,
	}
}

// Start registers the daily job and starts the cron engine.
func (s *PlanScheduler) Start() error {
	s.logger.Info("Starting plan scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDailyPlan, func() {
		s.logger.Info("Cron job triggered for daily plan.")
		ctx, cancel := context.WithTimeout(context.Background(), dailyPlanTimeout)
		defer cancel()
		if err := s.RunDailyPlan(ctx); err != nil {
			s.logger.WithError(err).Error("Daily plan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add daily plan cron job %q: %w", s.cronSpecDailyPlan, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpecDailyPlan).Info("Plan scheduler started.")
	return nil
}

// RunDailyPlan plans today's pending payments. Weekends and holidays are skipped,
// as is a day with nothing pending.
func (s *PlanScheduler) RunDailyPlan(ctx context.Context) error {
	today := calendar.DateOf(s.now().In(s.location))
	log := s.logger.WithField("date", calendar.FormatDate(today))

	ok, err := s.planningService.IsBusinessDay(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to check business day: %w", err)
	}
	if !ok {
		log.Info("Not a business day. Skipping daily plan.")
		return nil
	}

	plan, err := s.planningService.RunFromStore(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to build daily plan: %w", err)
	}
	if len(plan.Payments) == 0 {
		log.Info("No pending payments. Nothing to deliver.")
		return nil
	}

	if err := s.notificationService.DeliverPlan(ctx, plan); err != nil {
		return fmt.Errorf("failed to deliver daily plan: %w", err)
	}
	log.WithFields(logrus.Fields{"run_id": plan.RunID, "safe": plan.Safe()}).Info("Daily plan delivered")
	return nil
}

func (s *PlanScheduler) Stop() {
	s.logger.Info("Stopping plan scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Plan scheduler gracefully stopped.")
}
