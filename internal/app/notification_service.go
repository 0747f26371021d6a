// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainTelegram "card_float_planner/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Callback uniques for the approval buttons attached to a delivered plan.
// The button payload is the run id.
const (
	CallbackApproveUnique = "plan_ok"
	CallbackRejectUnique  = "plan_ng"
)

var ErrPlanNotPending = errors.New("plan is not awaiting approval (superseded or already handled)")
var ErrPlanUnsafe = errors.New("plan failed the timeline check and cannot be approved")

// NotificationService delivers plans to the treasurer and relays approvals to the manager.
// Approval only confirms a plan to a human; nothing is executed or persisted.
type NotificationService interface {
	DeliverPlan(ctx context.Context, plan *Plan) error
	ProcessApproval(ctx context.Context, approverID int64, runID string) error
	ProcessRejection(ctx context.Context, approverID int64, runID string) error
}

// NotificationServiceImpl implements NotificationService.
type NotificationServiceImpl struct {
	telegramClient    domainTelegram.Client
	logger            *logrus.Entry
	adminTelegramID   int64
	managerTelegramID int64

	mu      sync.Mutex
	pending *Plan // latest delivered plan; a new delivery supersedes it
}

func NewNotificationServiceImpl(
	tc domainTelegram.Client,
	logger *logrus.Entry,
	adminID int64,
	managerID int64,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		telegramClient:    tc,
		logger:            logger,
		adminTelegramID:   adminID,
		managerTelegramID: managerID,
	}
}

// DeliverPlan sends the rendered plan to the admin chat. Safe plans get approve/reject
// buttons on the last message; unsafe plans get none.
func (s *NotificationServiceImpl) DeliverPlan(ctx context.Context, plan *Plan) error {
	log := s.logger.WithField("run_id", plan.RunID)
	chunks := domainTelegram.SplitMessage(RenderPlan(plan), domainTelegram.MaxMessageLength)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		opts := &telebot.SendOptions{}
		if i == len(chunks)-1 && plan.Safe() {
			markup := &telebot.ReplyMarkup{ResizeKeyboard: true}
			btnOK := markup.Data("Approve", CallbackApproveUnique, plan.RunID)
			btnNG := markup.Data("Reject", CallbackRejectUnique, plan.RunID)
			markup.Inline(markup.Row(btnOK, btnNG))
			opts.ReplyMarkup = markup
		}
		if err := s.telegramClient.SendMessage(s.adminTelegramID, chunk, opts); err != nil {
			log.WithError(err).WithField("chunk", i).Error("Failed to send plan report")
			return fmt.Errorf("failed to send plan report part %d: %w", i+1, err)
		}
	}

	if !plan.Safe() {
		if err := s.telegramClient.SendMessage(s.adminTelegramID,
			"This plan cannot be approved. Correct the card balances and run /plan again.", &telebot.SendOptions{}); err != nil {
			log.WithError(err).Warn("Failed to send unsafe-plan notice")
		}
	}

	s.mu.Lock()
	s.pending = plan
	s.mu.Unlock()

	log.WithFields(logrus.Fields{"messages": len(chunks), "safe": plan.Safe()}).Info("Plan delivered")
	return nil
}

// ProcessApproval forwards the approved plan summary to the manager.
func (s *NotificationServiceImpl) ProcessApproval(ctx context.Context, approverID int64, runID string) error {
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "approver_id": approverID})
	if approverID != s.adminTelegramID {
		log.Warn("Unauthorized approval attempt")
		return ErrAdminNotAuthorized
	}

	plan, err := s.takePending(runID)
	if err != nil {
		log.WithError(err).Warn("Approval for a plan that is not pending")
		return err
	}
	if !plan.Safe() {
		return ErrPlanUnsafe
	}

	text := "Approved card allocation plan:\n\n" + RenderSummary(plan)
	if err := s.telegramClient.SendMessage(s.managerTelegramID, text, &telebot.SendOptions{}); err != nil {
		// Nothing reached the manager, so the admin may answer again.
		s.restorePending(plan)
		log.WithError(err).Error("Failed to forward approved plan to manager")
		return fmt.Errorf("failed to notify manager: %w", err)
	}
	if err := s.telegramClient.SendMessage(s.adminTelegramID, "Plan approved and forwarded to the manager.", &telebot.SendOptions{}); err != nil {
		log.WithError(err).Warn("Failed to confirm approval to admin")
	}
	log.Info("Plan approved")
	return nil
}

// ProcessRejection discards the pending plan.
func (s *NotificationServiceImpl) ProcessRejection(ctx context.Context, approverID int64, runID string) error {
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "approver_id": approverID})
	if approverID != s.adminTelegramID {
		log.Warn("Unauthorized rejection attempt")
		return ErrAdminNotAuthorized
	}
	if _, err := s.takePending(runID); err != nil {
		return err
	}
	if err := s.telegramClient.SendMessage(s.adminTelegramID, "Plan rejected. Nothing was forwarded.", &telebot.SendOptions{}); err != nil {
		log.WithError(err).Warn("Failed to confirm rejection to admin")
	}
	log.Info("Plan rejected")
	return nil
}

func (s *NotificationServiceImpl) takePending(runID string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil || s.pending.RunID != runID {
		return nil, ErrPlanNotPending
	}
	p := s.pending
	s.pending = nil
	return p, nil
}

// restorePending puts plan back unless a newer plan was delivered meanwhile.
func (s *NotificationServiceImpl) restorePending(plan *Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = plan
	}
}
