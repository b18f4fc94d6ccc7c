package domain

// DashboardSummary aggregates the counters the office dashboard shows
// on its landing screen.
type DashboardSummary struct {
	Clients     ClientCounters     `json:"clients"`
	Obligations ObligationCounters `json:"obligations"`
	Documents   DocumentCounters   `json:"documents"`
	Fees        FeeCounters        `json:"fees"`
}

type ClientCounters struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type ObligationCounters struct {
	Pending  int `json:"pending"`
	Overdue  int `json:"overdue"`
	DueToday int `json:"due_today"`
}

type DocumentCounters struct {
	Total             int `json:"total"`
	PendingProcessing int `json:"pending_processing"`
}

type FeeCounters struct {
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
}

// TodayTasks lists the items that need attention today: obligations due
// or overdue, fees due today and documents waiting for review.
type TodayTasks struct {
	ObligationsDueToday []Obligation `json:"obligations_due_today"`
	ObligationsOverdue  []Obligation `json:"obligations_overdue"`
	FeesDueToday        []MonthlyFee `json:"fees_due_today"`
	DocumentsToReview   []Document   `json:"documents_to_review"`
}
