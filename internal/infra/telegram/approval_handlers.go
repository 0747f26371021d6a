// internal/infra/telegram/approval_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"card_float_planner/internal/app"
	domainTelegram "card_float_planner/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// ApprovalReply processes an Approve or Reject click and returns the callback toast text.
// The error is set only for failures the user cannot fix.
func ApprovalReply(ctx context.Context, svc app.NotificationService, senderID int64, runID string, approve bool) (string, error) {
	var err error
	if approve {
		err = svc.ProcessApproval(ctx, senderID, runID)
	} else {
		err = svc.ProcessRejection(ctx, senderID, runID)
	}

	switch {
	case err == nil && approve:
		return "Approved.", nil
	case err == nil:
		return "Rejected.", nil
	case app.IsNotAuthorized(err):
		return "Only the admin can answer this.", nil
	case errors.Is(err, app.ErrPlanNotPending):
		return "This plan is no longer pending.", nil
	case errors.Is(err, app.ErrPlanUnsafe):
		return "Unsafe plans cannot be approved.", nil
	case errors.Is(err, domainTelegram.ErrRecipientUnreachable):
		return "Not sent: the manager chat is unreachable. Ask them to /start the bot, then approve again.", nil
	default:
		return "Something went wrong.", err
	}
}

// RegisterApprovalHandlers wires the Approve/Reject buttons attached to delivered plans.
func RegisterApprovalHandlers(ctx context.Context, b *telebot.Bot, notificationService app.NotificationService) {
	handle := func(approve bool) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			runID := c.Callback().Data
			text, err := ApprovalReply(ctx, notificationService, c.Sender().ID, runID, approve)
			if err != nil {
				c.Bot().OnError(fmt.Errorf("approval callback for run %s: %w", runID, err), c)
			}
			return c.Respond(&telebot.CallbackResponse{Text: text})
		}
	}

	b.Handle(&telebot.Btn{Unique: app.CallbackApproveUnique}, handle(true))
	b.Handle(&telebot.Btn{Unique: app.CallbackRejectUnique}, handle(false))
}
