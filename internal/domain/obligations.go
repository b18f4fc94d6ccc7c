package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Tax / fiscal obligations
// ============================================================

// ObligationStatus is the lifecycle state of a fiscal obligation.
type ObligationStatus string

const (
	ObligationPending   ObligationStatus = "pending"
	ObligationCompleted ObligationStatus = "completed"
)

// Obligation is a tax filing or payment due by a client on a specific
// date (DAS, DARF, GFIP, ...). Overdue is derived, not stored: a pending
// obligation past its due date is overdue.
type Obligation struct {
	ID             string           `json:"id"`
	ClientID       string           `json:"client_id"`
	ClientName     string           `json:"client_name,omitempty"`
	Type           string           `json:"type"` // DAS, DARF, GFIP, FGTS, ...
	Description    string           `json:"description"`
	ReferenceMonth string           `json:"reference_month"`
	DueDate        string           `json:"due_date"` // "2024-06-20"
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Status         ObligationStatus `json:"status"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Overdue reports whether the obligation is pending and past due
// relative to today.
func (o *Obligation) Overdue(today time.Time) bool {
	if o.Status != ObligationPending {
		return false
	}
	due, err := time.Parse("2006-01-02", o.DueDate)
	if err != nil {
		return false
	}
	return due.Before(today.Truncate(24 * time.Hour))
}

// DueToday reports whether the obligation is pending and due today.
func (o *Obligation) DueToday(today time.Time) bool {
	return o.Status == ObligationPending && o.DueDate == today.Format("2006-01-02")
}

// ObligationRequest is the payload to create or update an obligation.
type ObligationRequest struct {
	ClientID       string           `json:"client_id" validate:"required"`
	Type           string           `json:"type" validate:"required"`
	Description    string           `json:"description" validate:"required"`
	ReferenceMonth string           `json:"reference_month" validate:"required,datetime=2006-01"`
	DueDate        string           `json:"due_date" validate:"required,datetime=2006-01-02"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

// ObligationFilter narrows an obligation listing.
type ObligationFilter struct {
	ClientID       string `json:"client_id,omitempty"`
	Status         string `json:"status,omitempty"` // pending, completed, overdue
	ReferenceMonth string `json:"reference_month,omitempty"`
	DueFrom        string `json:"due_from,omitempty"` // "2024-06-01"
	DueTo          string `json:"due_to,omitempty"`
}
