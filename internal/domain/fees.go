package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStatus is the payment state of a monthly service fee.
type FeeStatus string

const (
	FeePending FeeStatus = "pending"
	FeePaid    FeeStatus = "paid"
)

// MonthlyFee is the accounting office's recurring service charge
// (honorário) billed to a client for a given reference month.
type MonthlyFee struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	ClientName     string          `json:"client_name,omitempty"`
	ReferenceMonth string          `json:"reference_month"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        string          `json:"due_date"`
	Status         FeeStatus       `json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Overdue reports whether the fee is unpaid and past its due date.
func (f *MonthlyFee) Overdue(today time.Time) bool {
	if f.Status != FeePending {
		return false
	}
	due, err := time.Parse("2006-01-02", f.DueDate)
	if err != nil {
		return false
	}
	return due.Before(today.Truncate(24 * time.Hour))
}

// DueToday reports whether the fee is unpaid and due today.
func (f *MonthlyFee) DueToday(today time.Time) bool {
	if f.Status != FeePending {
		return false
	}
	return f.DueDate == today.Format("2006-01-02")
}

// FeeRequest is the payload to register a monthly fee.
type FeeRequest struct {
	ClientID       string          `json:"client_id" validate:"required"`
	ReferenceMonth string          `json:"reference_month" validate:"required,datetime=2006-01"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	DueDate        string          `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// FeeFilter narrows a fee listing.
type FeeFilter struct {
	ClientID       string `json:"client_id,omitempty"`
	Status         string `json:"status,omitempty"` // pending, paid, overdue
	ReferenceMonth string `json:"reference_month,omitempty"`
}
