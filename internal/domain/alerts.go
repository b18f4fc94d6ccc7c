package domain

import "github.com/shopspring/decimal"

// ============================================================
// Automation alerts
// ============================================================

// AlertType identifies what an alert is about.
type AlertType string

const (
	// AlertDueSoon flags a pending obligation whose due date is inside
	// the lead window.
	AlertDueSoon AlertType = "due_soon"
	// AlertStaleDocument flags a document sitting unprocessed for too
	// long.
	AlertStaleDocument AlertType = "stale_document"
	// AlertOverdueFee flags a monthly fee past its due date.
	AlertOverdueFee AlertType = "overdue_fee"
)

// AlertPriority ranks how urgently an alert needs attention.
type AlertPriority string

const (
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// Alert is a derived attention item. Alerts are recomputed from the
// stores on demand and never persisted. Days counts remaining days for
// due_soon, waiting days for stale_document and days late for
// overdue_fee.
type Alert struct {
	Type           AlertType        `json:"type"`
	Priority       AlertPriority    `json:"priority"`
	ClientID       string           `json:"client_id"`
	ClientName     string           `json:"client_name,omitempty"`
	ResourceID     string           `json:"resource_id"`
	Description    string           `json:"description"`
	ReferenceMonth string           `json:"reference_month,omitempty"`
	DueDate        string           `json:"due_date,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Days           int              `json:"days"`
}

// AlertSummary counts alerts by source and by priority.
type AlertSummary struct {
	Total          int                   `json:"total"`
	DueSoon        int                   `json:"due_soon"`
	StaleDocuments int                   `json:"stale_documents"`
	OverdueFees    int                   `json:"overdue_fees"`
	ByPriority     map[AlertPriority]int `json:"by_priority"`
}

// AlertReport is the payload of GET /v1/alerts.
type AlertReport struct {
	Summary AlertSummary `json:"summary"`
	Alerts  []Alert      `json:"alerts"`
}
