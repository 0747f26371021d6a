package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Remaining(t *testing.T) {
	r := &Request{ID: "p1", Amount: 1000}
	assert.Equal(t, int64(1000), r.Remaining())
	assert.False(t, r.FullyAllocated())

	r.Allocations = append(r.Allocations, Allocation{CardID: "a", Amount: 600}, Allocation{CardID: "b", Amount: 400})
	assert.Equal(t, int64(1000), r.Allocated())
	assert.True(t, r.FullyAllocated())
}

func TestCategory_RequiresInvoiceSupport(t *testing.T) {
	assert.True(t, CategoryInvoice.RequiresInvoiceSupport())
	assert.True(t, Category("INVOICE").RequiresInvoiceSupport())
	assert.False(t, CategoryPurchase.RequiresInvoiceSupport())
	assert.False(t, Category("").RequiresInvoiceSupport())
}

func TestCapacityError(t *testing.T) {
	err := error(&CapacityError{PaymentID: "p1", Requested: 1000, Unplaced: 400, Detail: "all eligible cards exhausted"})
	assert.True(t, errors.Is(err, ErrCapacity))
	assert.Equal(t, "payment p1: 400 of 1000 unplaced: all eligible cards exhausted", err.Error())
}

func TestValidateBatch(t *testing.T) {
	day := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ValidateBatch([]*Request{
		{ID: "p1", Amount: 10, ApplicationDate: day},
		{ID: "p2", Amount: 20, ApplicationDate: day},
	}))

	err := ValidateBatch([]*Request{
		{ID: "p1", Amount: 10, ApplicationDate: day},
		{ID: "p1", Amount: 0, ApplicationDate: day},
		{ID: "p3", Amount: 5},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPayment))
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), "must be positive")
	assert.Contains(t, err.Error(), "missing application date")
}
