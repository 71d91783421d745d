package domain

import "time"

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// SourceType identifies the subsystem that originated a journal entry.
type SourceType string

const (
	SourceManual      SourceType = "MANUAL"
	SourceBillPayment SourceType = "BILL_PAYMENT"
	SourceInvoice     SourceType = "INVOICE"
	SourceAdjustment  SourceType = "ADJUSTMENT"
	SourceClosing     SourceType = "CLOSING"
)

// IsValid reports whether the source type is a known value.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceManual, SourceBillPayment, SourceInvoice, SourceAdjustment, SourceClosing:
		return true
	}
	return false
}

// JournalEntry represents a single, balanced financial event composed of
// multiple journal lines. Once posted an entry is immutable except for the
// void transition.
type JournalEntry struct {
	EntryID         string      `json:"entryID"`
	TenantID        string      `json:"tenantID"`
	EntryDate       time.Time   `json:"entryDate"`
	ReferenceNumber *string     `json:"referenceNumber,omitempty"` // Unique per tenant when present
	Memo            string      `json:"memo"`
	Status          EntryStatus `json:"status"`
	SourceType      SourceType  `json:"sourceType"`
	SourceID        *string     `json:"sourceID,omitempty"`       // Back-reference to the originating document
	IdempotencyKey  *string     `json:"idempotencyKey,omitempty"` // Set for source-driven postings
	PostedBy        *string     `json:"postedBy,omitempty"`
	PostedAt        *time.Time  `json:"postedAt,omitempty"`
	VoidedBy        *string     `json:"voidedBy,omitempty"`
	VoidedAt        *time.Time  `json:"voidedAt,omitempty"`
	VoidReason      *string     `json:"voidReason,omitempty"`
	// ReversingEntryID links a voided entry to the entry that reverses it.
	// OriginalEntryID is the inverse link carried by the reversing entry.
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`
	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	AuditFields
	Lines []JournalLine `json:"lines,omitempty"` // Often loaded separately
}

// IsEditable reports whether the entry's lines and header may still change.
func (e *JournalEntry) IsEditable() bool {
	return e.Status == Draft
}
