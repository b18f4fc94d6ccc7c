// Package domain defines the core business entities for the accounting
// office backend. These models are independent of external services and
// represent the canonical data structures used throughout the system.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Documents
// ============================================================

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

const (
	// StatusPending means the document was stored but extraction has not
	// run yet (or is being retried after an error).
	StatusPending DocumentStatus = "pending"
	// StatusPendingReview means extraction succeeded and the result awaits
	// the accountant's approval.
	StatusPendingReview DocumentStatus = "pending_review"
	// StatusProcessed is the terminal state, set by approval.
	StatusProcessed DocumentStatus = "processed"
	// StatusError means extraction failed; the document can be retried.
	StatusError DocumentStatus = "error"
)

// DocumentCategories is the fixed category set a document may belong to.
// The upload form supplies one; the classifier may override it with a
// suggestion.
var DocumentCategories = []string{
	"payroll",
	"invoice",
	"bank_statement",
	"payment_receipt",
	"tax_return",
	"trial_balance",
	"income_statement",
	"other",
}

// ValidCategory reports whether c is one of the fixed category set.
func ValidCategory(c string) bool {
	for _, cat := range DocumentCategories {
		if cat == c {
			return true
		}
	}
	return false
}

// AllowedFileExtensions is the upload allow-list, checked before any
// network call.
var AllowedFileExtensions = []string{"pdf", "xml", "xlsx", "xls", "jpg", "jpeg", "png", "txt"}

// Document is a client document tracked by the office: payroll sheets,
// invoices, bank statements and so on, for a given reference month.
type Document struct {
	ID             string           `json:"id"`
	ClientID       string           `json:"client_id"`
	ClientName     string           `json:"client_name,omitempty"`
	FileName       string           `json:"file_name"`
	FileType       string           `json:"file_type"`
	Category       string           `json:"category"`
	FileSizeBytes  int64            `json:"file_size_bytes"`
	ReferenceMonth string           `json:"reference_month"` // "2024-06"
	Summary        string           `json:"summary,omitempty"`
	KeyPoints      string           `json:"key_points,omitempty"`
	ExtractedValue *decimal.Decimal `json:"extracted_value,omitempty"`
	ExtractedDate  string           `json:"extracted_date,omitempty"` // "2024-06-15"
	Status         DocumentStatus   `json:"status"`
	UploadedAt     time.Time        `json:"uploaded_at"`
	ProcessedAt    *time.Time       `json:"processed_at,omitempty"`
}

// UploadRequest is the payload to submit a new document.
type UploadRequest struct {
	ClientID       string `json:"client_id" validate:"required"`
	Category       string `json:"category" validate:"required"`
	ReferenceMonth string `json:"reference_month" validate:"required,datetime=2006-01"`
	FileName       string `json:"file_name" validate:"required"`
	Data           []byte `json:"-" validate:"required"`
}

// UploadResponse is returned by POST /v1/documents/upload.
type UploadResponse struct {
	Message           string           `json:"message"`
	DocumentID        string           `json:"document_id"`
	FileName          string           `json:"file_name"`
	FileSizeBytes     int64            `json:"file_size_bytes"`
	SuggestedCategory string           `json:"suggested_category,omitempty"`
	Summary           string           `json:"summary,omitempty"`
	KeyPoints         string           `json:"key_points,omitempty"`
	ExtractedValue    *decimal.Decimal `json:"extracted_value,omitempty"`
	ExtractedDate     string           `json:"extracted_date,omitempty"`
	Status            DocumentStatus   `json:"status"`
	ProcessedAt       *time.Time       `json:"processed_at,omitempty"`
}

// DocumentFilter narrows a document listing. Zero values (or the
// "all"/"todas"/"todos" sentinels the frontend sends) mean no restriction.
type DocumentFilter struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
}

// MatchesStatus reports whether a document with status s passes the
// filter. The "pending" filter covers both pending and pending_review:
// the office treats them as one awaiting-action bucket.
func (f *DocumentFilter) MatchesStatus(s DocumentStatus) bool {
	switch f.Status {
	case "", "all", "todos", "todas":
		return true
	case string(StatusPending):
		return s == StatusPending || s == StatusPendingReview
	default:
		return string(s) == f.Status
	}
}

// MatchesSearch reports whether the document matches the free-text
// search. The needle is compared case-insensitively against client
// name, file name and category, plus the extracted summary.
func (f *DocumentFilter) MatchesSearch(d *Document) bool {
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, hay := range []string{d.ClientName, d.FileName, d.Category, d.Summary} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// DocumentStats aggregates the collection by status. Pending counts both
// "pending" and "pending_review": the dashboard surfaces them as one
// awaiting-action bucket.
type DocumentStats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Pending   int `json:"pending"`
	Error     int `json:"error"`
}

// DocumentListResponse is the wire envelope for document listings. The
// front end reads the "documents" key by name.
type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
	HasMore   bool       `json:"has_more"`
}

// ExtractionResult holds the fields the extraction engine derived from a
// document's content. Any of them may be empty.
type ExtractionResult struct {
	Summary           string           `json:"summary,omitempty"`
	KeyPoints         string           `json:"key_points,omitempty"`
	Value             *decimal.Decimal `json:"extracted_value,omitempty"`
	Date              string           `json:"extracted_date,omitempty"`
	SuggestedCategory string           `json:"suggested_category,omitempty"`
}
