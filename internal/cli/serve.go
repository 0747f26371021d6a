package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"card_float_planner/internal/app"
	idb "card_float_planner/internal/infra/database"
	"card_float_planner/internal/infra/httpapi"
	"card_float_planner/internal/infra/logger"
	"card_float_planner/internal/infra/scheduler"
	"card_float_planner/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, daily scheduler and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rt)
		},
	}
}

func runServe(ctx context.Context, rt *runtime) error {
	cfg := rt.cfg
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
		"timezone":    cfg.Timezone,
	}).Info("Configuration loaded")

	db, err := rt.openDB(ctx)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established")

	cardRepo := idb.NewPostgresCardRepository(db)
	holidayRepo := idb.NewPostgresHolidayRepository(db)
	paymentRepo := idb.NewPostgresPaymentRepository(db)

	telegramLogger := logger.Component("telegram")
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := telegramLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	})
	if err != nil {
		return fmt.Errorf("could not create Telegram bot: %w", err)
	}

	planningService := app.NewPlanningServiceImpl(cardRepo, holidayRepo, paymentRepo, logger.Component("planner"))
	notificationService := app.NewNotificationServiceImpl(
		telegram.NewTelebotAdapter(bot),
		logger.Component("notification"),
		cfg.AdminTelegramID,
		cfg.ManagerTelegramID,
	)
	adminService := app.NewAdminService(cardRepo, holidayRepo, cfg.AdminTelegramID)

	telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, cfg.ManagerTelegramID, telegramLogger)
	telegram.RegisterAdminHandlers(ctx, bot, telegram.NewAdminCommands(
		adminService, planningService, notificationService, cfg.AdminTelegramID, cfg.Location(), telegramLogger,
	))
	telegram.RegisterApprovalHandlers(ctx, bot, notificationService)
	mainLogger.Info("Telegram handlers registered")

	planScheduler := scheduler.NewPlanScheduler(
		planningService,
		notificationService,
		logger.Component("scheduler"),
		cfg.CronSpecDailyPlan,
		cfg.Location(),
	)
	if err := planScheduler.Start(); err != nil {
		return err
	}

	api := httpapi.NewServer(planningService, logger.Component("http"), cfg.Location()).
		WithHealthCheck(idb.Ping(db))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	go bot.Start()
	mainLogger.Info("Bot, scheduler and HTTP server started")

	var runErr error
	select {
	case <-ctx.Done():
		mainLogger.Info("Shutting down...")
	case err := <-httpErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
		mainLogger.WithError(err).Error("HTTP server failed, shutting down")
	}

	bot.Stop()
	planScheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	mainLogger.Info("Application shut down gracefully")
	return runErr
}
