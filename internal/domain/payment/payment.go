// internal/domain/payment/payment.go
package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category decides which card pool may service a payment.
type Category string

const (
	CategoryInvoice  Category = "invoice"  // large invoice-style payments, restricted card pool
	CategoryPurchase Category = "purchase" // ordinary purchases, any card
)

// RequiresInvoiceSupport reports whether only cards supporting invoice payments are eligible.
func (c Category) RequiresInvoiceSupport() bool {
	return strings.EqualFold(string(c), string(CategoryInvoice))
}

// Request is one pending payment to be placed on cards.
type Request struct {
	ID              string
	DisplayName     string
	Amount          int64 // smallest currency unit, > 0
	IsSplittable    bool
	PreferredCardID string // optional pin
	Priority        int    // higher is serviced first
	ApplicationDate time.Time
	Category        Category
	Allocations     []Allocation
	CapacityError   *CapacityError // set when some of Amount could not be placed
}

// Allocated returns the sum of the request's allocations.
func (r *Request) Allocated() int64 {
	var total int64
	for _, a := range r.Allocations {
		total += a.Amount
	}
	return total
}

// Remaining returns the amount still to be placed.
func (r *Request) Remaining() int64 {
	return r.Amount - r.Allocated()
}

// FullyAllocated reports whether the request is completely placed.
func (r *Request) FullyAllocated() bool {
	return r.Remaining() == 0
}

// Pass identifies which allocation pass committed an allocation.
type Pass string

const (
	PassPreferred     Pass = "PREFERRED"
	PassNonSplittable Pass = "NON_SPLITTABLE"
	PassSplittable    Pass = "SPLITTABLE"
)

// Allocation places part or all of a payment on one card.
type Allocation struct {
	PaymentID      string
	CardID         string
	Amount         int64
	SettlementDate time.Time
	ClosingDate    time.Time
	WithdrawalDate time.Time
	Pass           Pass
	Reason         string
}

// ErrCapacity is wrapped by every CapacityError.
var ErrCapacity = errors.New("insufficient card capacity")

// CapacityError reports a payment, or the remainder of a splittable payment, that no
// eligible card could take. It is attached to the payment and never aborts a run.
type CapacityError struct {
	PaymentID string
	Requested int64
	Unplaced  int64
	Detail    string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("payment %s: %d of %d unplaced: %s", e.PaymentID, e.Unplaced, e.Requested, e.Detail)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacity
}

// ErrInvalidPayment is returned for malformed payment batches.
var ErrInvalidPayment = errors.New("invalid payment request")

// ValidateBatch rejects non-positive amounts, empty or duplicate ids and missing dates.
func ValidateBatch(reqs []*Request) error {
	seen := make(map[string]bool, len(reqs))
	var problems []string
	for _, r := range reqs {
		if r == nil {
			problems = append(problems, "nil payment entry")
			continue
		}
		if strings.TrimSpace(r.ID) == "" {
			problems = append(problems, fmt.Sprintf("payment %q: empty id", r.DisplayName))
		} else if seen[r.ID] {
			problems = append(problems, fmt.Sprintf("payment %q: duplicate id", r.ID))
		}
		seen[r.ID] = true
		if r.Amount <= 0 {
			problems = append(problems, fmt.Sprintf("payment %q: amount %d must be positive", r.ID, r.Amount))
		}
		if r.ApplicationDate.IsZero() {
			problems = append(problems, fmt.Sprintf("payment %q: missing application date", r.ID))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPayment, strings.Join(problems, "; "))
	}
	return nil
}
