package httpapi

import (
	"fmt"
	"time"

	"card_float_planner/internal/app"
	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"
)

// PlanRequest is the body of POST /api/plan. Without cards the stored card master
// data and holiday calendar are used.
type PlanRequest struct {
	AsOf     string           `json:"as_of"` // YYYY-MM-DD, defaults to today
	Payments []PaymentPayload `json:"payments"`
	Cards    []CardPayload    `json:"cards,omitempty"`
	Holidays []string         `json:"holidays,omitempty"`
}

type PaymentPayload struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	Amount          int64  `json:"amount"`
	IsSplittable    bool   `json:"is_splittable"`
	PreferredCardID string `json:"preferred_card_id,omitempty"`
	Priority        int    `json:"priority"`
	ApplicationDate string `json:"application_date"`
	Category        string `json:"category"`
}

type CardPayload struct {
	ID                          string `json:"id"`
	Name                        string `json:"name"`
	ClosingDay                  int    `json:"closing_day"`
	PaymentDay                  int    `json:"payment_day"`
	PaymentMonthOffset          int    `json:"payment_month_offset"`
	SettlementLagBusinessDays   int    `json:"settlement_lag_business_days"`
	SupportsSplitInvoicePayment bool   `json:"supports_split_invoice_payment"`
	AvailableBalance            int64  `json:"available_balance"`
}

func (p PaymentPayload) toDomain() (*payment.Request, error) {
	applied, err := calendar.ParseDate(p.ApplicationDate)
	if err != nil {
		return nil, fmt.Errorf("payment %q: invalid application_date %q", p.ID, p.ApplicationDate)
	}
	category := payment.Category(p.Category)
	if category == "" {
		category = payment.CategoryPurchase
	}
	return &payment.Request{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		Amount:          p.Amount,
		IsSplittable:    p.IsSplittable,
		PreferredCardID: p.PreferredCardID,
		Priority:        p.Priority,
		ApplicationDate: applied,
		Category:        category,
	}, nil
}

func (c CardPayload) toDomain() *card.Profile {
	return &card.Profile{
		ID:                          c.ID,
		Name:                        c.Name,
		ClosingDay:                  c.ClosingDay,
		PaymentDay:                  c.PaymentDay,
		PaymentMonthOffset:          c.PaymentMonthOffset,
		SettlementLagBusinessDays:   c.SettlementLagBusinessDays,
		SupportsSplitInvoicePayment: c.SupportsSplitInvoicePayment,
		AvailableBalance:            c.AvailableBalance,
	}
}

// PlanResponse is the JSON rendering of a plan.
type PlanResponse struct {
	RunID          string              `json:"run_id"`
	AsOf           string              `json:"as_of"`
	Safe           bool                `json:"safe"`
	NeedsAttention bool                `json:"needs_attention"`
	Unplaced       int64               `json:"unplaced"`
	Allocations    []AllocationPayload `json:"allocations"`
	CapacityErrors []CapacityPayload   `json:"capacity_errors"`
	Violations     []ViolationPayload  `json:"violations"`
	Warnings       []string            `json:"warnings"`
	FinalBalances  map[string]int64    `json:"final_balances"`
	Events         []app.Event         `json:"events"`
	Report         string              `json:"report"`
}

type AllocationPayload struct {
	PaymentID      string `json:"payment_id"`
	CardID         string `json:"card_id"`
	Amount         int64  `json:"amount"`
	SettlementDate string `json:"settlement_date"`
	ClosingDate    string `json:"closing_date"`
	WithdrawalDate string `json:"withdrawal_date"`
	Pass           string `json:"pass"`
	Reason         string `json:"reason"`
}

type CapacityPayload struct {
	PaymentID string `json:"payment_id"`
	Requested int64  `json:"requested"`
	Unplaced  int64  `json:"unplaced"`
	Detail    string `json:"detail"`
}

type ViolationPayload struct {
	CardID    string `json:"card_id"`
	Date      string `json:"date"`
	PaymentID string `json:"payment_id"`
	Shortfall int64  `json:"shortfall"`
}

// NewPlanResponse converts a plan to its JSON form.
func NewPlanResponse(plan *app.Plan) PlanResponse {
	resp := PlanResponse{
		RunID:          plan.RunID,
		AsOf:           calendar.FormatDate(plan.AsOf),
		Safe:           plan.Safe(),
		NeedsAttention: plan.NeedsAttention(),
		Unplaced:       plan.Unplaced(),
		Allocations:    make([]AllocationPayload, 0, len(plan.Allocations)),
		CapacityErrors: make([]CapacityPayload, 0, len(plan.CapacityErrors)),
		Violations:     make([]ViolationPayload, 0),
		Warnings:       append([]string{}, plan.Warnings...),
		FinalBalances:  plan.FinalBalances,
		Events:         app.BuildEvents(plan.Allocations),
		Report:         app.RenderPlan(plan),
	}
	for _, a := range plan.Allocations {
		resp.Allocations = append(resp.Allocations, AllocationPayload{
			PaymentID:      a.PaymentID,
			CardID:         a.CardID,
			Amount:         a.Amount,
			SettlementDate: calendar.FormatDate(a.SettlementDate),
			ClosingDate:    calendar.FormatDate(a.ClosingDate),
			WithdrawalDate: calendar.FormatDate(a.WithdrawalDate),
			Pass:           string(a.Pass),
			Reason:         a.Reason,
		})
	}
	for _, ce := range plan.CapacityErrors {
		resp.CapacityErrors = append(resp.CapacityErrors, CapacityPayload{
			PaymentID: ce.PaymentID, Requested: ce.Requested, Unplaced: ce.Unplaced, Detail: ce.Detail,
		})
	}
	if plan.Verdict != nil {
		for _, v := range plan.Verdict.Violations {
			resp.Violations = append(resp.Violations, ViolationPayload{
				CardID: v.CardID, Date: calendar.FormatDate(v.Date), PaymentID: v.PaymentID, Shortfall: v.Shortfall,
			})
		}
	}
	return resp
}

func parseAsOf(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return calendar.DateOf(now), nil
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as_of %q", raw)
	}
	return d, nil
}
