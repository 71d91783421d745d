package models

import "time"

// JournalEntry is the database representation of a journal_entries row.
type JournalEntry struct {
	EntryID          string     `db:"entry_id"`
	TenantID         string     `db:"tenant_id"`
	EntryDate        time.Time  `db:"entry_date"`
	ReferenceNumber  *string    `db:"reference_number"`
	Memo             string     `db:"memo"`
	Status           string     `db:"status"`
	SourceType       string     `db:"source_type"`
	SourceID         *string    `db:"source_id"`
	IdempotencyKey   *string    `db:"idempotency_key"`
	PostedBy         *string    `db:"posted_by"`
	PostedAt         *time.Time `db:"posted_at"`
	VoidedBy         *string    `db:"voided_by"`
	VoidedAt         *time.Time `db:"voided_at"`
	VoidReason       *string    `db:"void_reason"`
	ReversingEntryID *string    `db:"reversing_entry_id"`
	OriginalEntryID  *string    `db:"original_entry_id"`
	AuditFields
}

// JournalLine is the database representation of a journal_lines row.
// Exactly one of debit_cents/credit_cents is positive, enforced by a table
// check constraint alongside the application validator.
type JournalLine struct {
	LineID      string  `db:"line_id"`
	EntryID     string  `db:"entry_id"`
	AccountID   string  `db:"account_id"`
	DebitCents  int64   `db:"debit_cents"`
	CreditCents int64   `db:"credit_cents"`
	Memo        string  `db:"memo"`
	JobID       *string `db:"job_id"`
	AuditFields
}
