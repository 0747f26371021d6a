// internal/app/report.go
package app

import (
	"fmt"
	"sort"
	"strings"

	"card_float_planner/internal/domain/calendar"

	"github.com/dustin/go-humanize"
)

// RenderPlan formats a plan as plain text. Problems come first so nobody approves a
// plan without seeing them.
func RenderPlan(plan *Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Card allocation plan %s (as of %s)\n", shortRunID(plan.RunID), calendar.FormatDate(plan.AsOf))
	if plan.Safe() {
		b.WriteString("Timeline check: OK\n")
	} else {
		b.WriteString("!!! Timeline check FAILED: plan is NOT safe to execute !!!\n")
	}

	if !plan.Safe() {
		b.WriteString("\nViolations:\n")
		for _, v := range plan.Verdict.Violations {
			fmt.Fprintf(&b, "  - card %s on %s short by %s (payment %s)\n",
				v.CardID, calendar.FormatDate(v.Date), FormatYen(v.Shortfall), v.PaymentID)
		}
	}
	if len(plan.CapacityErrors) > 0 {
		fmt.Fprintf(&b, "\nUnplaced payments (total %s):\n", FormatYen(plan.Unplaced()))
		for _, ce := range plan.CapacityErrors {
			fmt.Fprintf(&b, "  - %s: %s of %s unplaced, %s\n", ce.PaymentID, FormatYen(ce.Unplaced), FormatYen(ce.Requested), ce.Detail)
		}
	}
	if len(plan.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range plan.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	b.WriteString("\nAllocations:\n")
	for _, p := range plan.Payments {
		name := p.DisplayName
		if name == "" {
			name = p.ID
		}
		fmt.Fprintf(&b, "  %s (%s, applied %s)\n", name, FormatYen(p.Amount), calendar.FormatDate(p.ApplicationDate))
		if len(p.Allocations) == 0 {
			b.WriteString("    (none)\n")
		}
		for _, a := range p.Allocations {
			fmt.Fprintf(&b, "    %-12s %12s  posts %s, withdrawn %s  [%s]\n",
				a.CardID, FormatYen(a.Amount), calendar.FormatDate(a.SettlementDate), calendar.FormatDate(a.WithdrawalDate), a.Reason)
		}
		if ce := p.CapacityError; ce != nil {
			fmt.Fprintf(&b, "    UNPLACED %s: %s\n", FormatYen(ce.Unplaced), ce.Detail)
		}
	}

	b.WriteString("\nCard ledgers:\n")
	for _, c := range plan.InitialCards {
		fmt.Fprintf(&b, "  %s (%s): start %s, after plan %s\n", c.ID, c.Name, FormatYen(c.AvailableBalance), FormatYen(plan.FinalBalances[c.ID]))
		for _, e := range plan.Verdict.Ledgers[c.ID] {
			sign := "-"
			if e.Kind == EventWithdrawal {
				sign = "+"
			}
			fmt.Fprintf(&b, "    %s %-10s %s%s -> %s\n", calendar.FormatDate(e.Date), strings.ToLower(string(e.Kind)), sign, FormatYen(e.Amount), FormatYen(e.BalanceAfter))
		}
	}
	return b.String()
}

// RenderSummary is the short form used when forwarding an approved plan.
func RenderSummary(plan *Plan) string {
	perCard := make(map[string]int64)
	for _, a := range plan.Allocations {
		perCard[a.CardID] += a.Amount
	}
	ids := make([]string, 0, len(perCard))
	for id := range perCard {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "Plan %s (as of %s): %d allocations\n", shortRunID(plan.RunID), calendar.FormatDate(plan.AsOf), len(plan.Allocations))
	for _, id := range ids {
		fmt.Fprintf(&b, "  %s: %s\n", id, FormatYen(perCard[id]))
	}
	if u := plan.Unplaced(); u > 0 {
		fmt.Fprintf(&b, "Unplaced: %s\n", FormatYen(u))
	}
	return b.String()
}

// FormatYen renders an amount in yen with thousands separators.
func FormatYen(amount int64) string {
	return "¥" + humanize.Comma(amount)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
