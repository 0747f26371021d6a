package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"card_float_planner/internal/app"
	"card_float_planner/internal/domain/calendar"
	idb "card_float_planner/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgNotAuthorized = "Error: you are not allowed to run this command."

// AdminCommands implements the admin chat commands. Each method returns the reply text.
type AdminCommands struct {
	adminService        *app.AdminService
	planningService     app.PlanningService
	notificationService app.NotificationService
	adminTelegramID     int64
	location            *time.Location
	now                 func() time.Time
	logger              *logrus.Entry
}

func NewAdminCommands(
	adminService *app.AdminService,
	planningService app.PlanningService,
	notificationService app.NotificationService,
	adminTelegramID int64,
	location *time.Location,
	logger *logrus.Entry,
) *AdminCommands {
	return &AdminCommands{
		adminService:        adminService,
		planningService:     planningService,
		notificationService: notificationService,
		adminTelegramID:     adminTelegramID,
		location:            location,
		now:                 time.Now,
		logger:              logger,
	}
}

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, cmds *AdminCommands) {
	b.Handle("/plan", func(c telebot.Context) error {
		reply := cmds.Plan(ctx, c.Sender().ID)
		if reply == "" {
			return nil // the plan itself was delivered
		}
		return c.Send(reply)
	})
	b.Handle("/cards", func(c telebot.Context) error {
		return c.Send(cmds.Cards(ctx, c.Sender().ID))
	})
	b.Handle("/set_balance", func(c telebot.Context) error {
		return c.Send(cmds.SetBalance(ctx, c.Sender().ID, c.Args()))
	})
	b.Handle("/add_holiday", func(c telebot.Context) error {
		return c.Send(cmds.AddHoliday(ctx, c.Sender().ID, c.Args()))
	})
	b.Handle("/remove_holiday", func(c telebot.Context) error {
		return c.Send(cmds.RemoveHoliday(ctx, c.Sender().ID, c.Args()))
	})
}

func (a *AdminCommands) handlerLogger(handler string, senderID int64) *logrus.Entry {
	return a.logger.WithFields(logrus.Fields{"handler": handler, "sender_id": senderID})
}

// Plan builds today's plan from the store and delivers it to the admin chat.
// It returns an empty reply when the report was delivered.
func (a *AdminCommands) Plan(ctx context.Context, senderID int64) string {
	log := a.handlerLogger("/plan", senderID)
	log.Info("Command received")
	if senderID != a.adminTelegramID {
		log.Warn("Unauthorized access attempt")
		return msgNotAuthorized
	}

	today := calendar.DateOf(a.now().In(a.location))
	plan, err := a.planningService.RunFromStore(ctx, today)
	if err != nil {
		log.WithError(err).Error("Planning run failed")
		return fmt.Sprintf("Planning failed: %s", err.Error())
	}
	if len(plan.Payments) == 0 {
		return fmt.Sprintf("No pending payments as of %s.", calendar.FormatDate(today))
	}
	if err := a.notificationService.DeliverPlan(ctx, plan); err != nil {
		log.WithError(err).Error("Failed to deliver plan")
		return fmt.Sprintf("Plan %s was built but could not be delivered: %s", plan.RunID, err.Error())
	}
	return ""
}

// Cards lists stored cards and balances.
func (a *AdminCommands) Cards(ctx context.Context, senderID int64) string {
	log := a.handlerLogger("/cards", senderID)
	cards, err := a.adminService.ListCards(ctx, senderID)
	if err != nil {
		if app.IsNotAuthorized(err) {
			log.Warn("Unauthorized access attempt")
			return msgNotAuthorized
		}
		log.WithError(err).Error("Failed to list cards")
		return fmt.Sprintf("Could not list cards: %s", err.Error())
	}
	if len(cards) == 0 {
		return "No cards are configured."
	}

	var b strings.Builder
	b.WriteString("Cards:\n")
	for _, c := range cards {
		closing := strconv.Itoa(c.ClosingDay)
		if c.ClosesAtMonthEnd() {
			closing = "EOM"
		}
		fmt.Fprintf(&b, "%s (%s): %s available, closes %s, pays day %d +%dm",
			c.ID, c.Name, app.FormatYen(c.AvailableBalance), closing, c.PaymentDay, c.PaymentMonthOffset)
		if c.SupportsSplitInvoicePayment {
			b.WriteString(", invoices")
		}
		b.WriteString("\n")
	}
	log.WithField("cards_count", len(cards)).Info("Listed cards")
	return b.String()
}

// SetBalance handles "/set_balance <card_id> <amount>". The amount may contain commas.
func (a *AdminCommands) SetBalance(ctx context.Context, senderID int64, args []string) string {
	log := a.handlerLogger("/set_balance", senderID)
	if senderID != a.adminTelegramID {
		log.Warn("Unauthorized access attempt")
		return msgNotAuthorized
	}
	if len(args) != 2 {
		return "Usage: /set_balance <card_id> <amount>"
	}
	amount, err := strconv.ParseInt(strings.ReplaceAll(args[1], ",", ""), 10, 64)
	if err != nil {
		return fmt.Sprintf("Error: %q is not a whole amount.", args[1])
	}

	updated, err := a.adminService.SetBalance(ctx, senderID, args[0], amount)
	if err != nil {
		log = log.WithError(err).WithField("card_id", args[0])
		switch {
		case errors.Is(err, app.ErrNegativeBalance):
			return "Error: balance cannot be negative."
		case errors.Is(err, idb.ErrCardNotFound):
			log.Warn("Card not found")
			return fmt.Sprintf("Card %s not found.", args[0])
		default:
			log.Error("Failed to set balance")
			return fmt.Sprintf("Could not update the balance: %s", err.Error())
		}
	}
	log.WithFields(logrus.Fields{"card_id": updated.ID, "balance": updated.AvailableBalance}).Info("Balance updated")
	return fmt.Sprintf("%s (%s) available balance set to %s.", updated.ID, updated.Name, app.FormatYen(updated.AvailableBalance))
}

// AddHoliday handles "/add_holiday YYYY-MM-DD [name...]".
func (a *AdminCommands) AddHoliday(ctx context.Context, senderID int64, args []string) string {
	log := a.handlerLogger("/add_holiday", senderID)
	if senderID != a.adminTelegramID {
		log.Warn("Unauthorized access attempt")
		return msgNotAuthorized
	}
	if len(args) < 1 {
		return "Usage: /add_holiday YYYY-MM-DD [name]"
	}
	d, err := calendar.ParseDate(args[0])
	if err != nil {
		return fmt.Sprintf("Error: %q is not a YYYY-MM-DD date.", args[0])
	}
	name := strings.Join(args[1:], " ")

	if err := a.adminService.AddHoliday(ctx, senderID, d, name); err != nil {
		log.WithError(err).Error("Failed to add holiday")
		return fmt.Sprintf("Could not add the holiday: %s", err.Error())
	}
	log.WithField("date", args[0]).Info("Holiday added")
	return fmt.Sprintf("%s is now a holiday.", calendar.FormatDate(d))
}

// RemoveHoliday handles "/remove_holiday YYYY-MM-DD".
func (a *AdminCommands) RemoveHoliday(ctx context.Context, senderID int64, args []string) string {
	log := a.handlerLogger("/remove_holiday", senderID)
	if senderID != a.adminTelegramID {
		log.Warn("Unauthorized access attempt")
		return msgNotAuthorized
	}
	if len(args) != 1 {
		return "Usage: /remove_holiday YYYY-MM-DD"
	}
	d, err := calendar.ParseDate(args[0])
	if err != nil {
		return fmt.Sprintf("Error: %q is not a YYYY-MM-DD date.", args[0])
	}

	if err := a.adminService.RemoveHoliday(ctx, senderID, d); err != nil {
		if errors.Is(err, idb.ErrHolidayNotFound) {
			return fmt.Sprintf("%s is not a holiday.", args[0])
		}
		log.WithError(err).Error("Failed to remove holiday")
		return fmt.Sprintf("Could not remove the holiday: %s", err.Error())
	}
	log.WithField("date", args[0]).Info("Holiday removed")
	return fmt.Sprintf("%s is an ordinary day again.", calendar.FormatDate(d))
}
