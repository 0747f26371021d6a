package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrNegativeBalance = fmt.Errorf("available balance cannot be negative")

// AdminService maintains card balances and the holiday calendar between runs.
type AdminService struct {
	cardRepo        card.Repository
	holidayRepo     calendar.Repository
	adminTelegramID int64
}

func NewAdminService(cr card.Repository, hr calendar.Repository, adminID int64) *AdminService {
	return &AdminService{
		cardRepo:        cr,
		holidayRepo:     hr,
		adminTelegramID: adminID,
	}
}

// ListCards returns all cards with their stored balances.
func (s *AdminService) ListCards(ctx context.Context, performingAdminID int64) ([]*card.Profile, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	cards, err := s.cardRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// SetBalance records a card's current available credit, as read from the issuer.
func (s *AdminService) SetBalance(ctx context.Context, performingAdminID int64, cardID string, balance int64) (*card.Profile, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	if balance < 0 {
		return nil, ErrNegativeBalance
	}

	target, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card %q: %w", cardID, err)
	}
	if err := s.cardRepo.UpdateAvailableBalance(ctx, cardID, balance); err != nil {
		return nil, fmt.Errorf("failed to update balance of card %q: %w", cardID, err)
	}
	target.AvailableBalance = balance
	return target, nil
}

// AddHoliday marks a date as a non-business day.
func (s *AdminService) AddHoliday(ctx context.Context, performingAdminID int64, date time.Time, name string) error {
	if performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	h := calendar.Holiday{Date: calendar.DateOf(date), Name: name}
	if err := s.holidayRepo.AddHoliday(ctx, h); err != nil {
		return fmt.Errorf("failed to add holiday %s: %w", calendar.FormatDate(h.Date), err)
	}
	return nil
}

// RemoveHoliday turns a date back into an ordinary day.
func (s *AdminService) RemoveHoliday(ctx context.Context, performingAdminID int64, date time.Time) error {
	if performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	if err := s.holidayRepo.RemoveHoliday(ctx, calendar.DateOf(date)); err != nil {
		return fmt.Errorf("failed to remove holiday %s: %w", calendar.FormatDate(date), err)
	}
	return nil
}

// IsNotAuthorized reports whether err is an authorization failure.
func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrAdminNotAuthorized)
}
