package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/utils/money"
)

// LineRequest defines a single debit or credit within an entry payload.
// Exactly one of debit/credit must be a positive decimal amount.
type LineRequest struct {
	AccountID string           `json:"accountID" binding:"required"`
	Debit     *decimal.Decimal `json:"debit,omitempty"`
	Credit    *decimal.Decimal `json:"credit,omitempty"`
	Memo      string           `json:"memo"`
	JobID     *string          `json:"jobID,omitempty"`
}

// ToDomainLine converts a line request to a domain line with integer minor
// units, rejecting ambiguous or sub-cent amounts at the boundary.
func (r LineRequest) ToDomainLine() (domain.JournalLine, error) {
	line := domain.JournalLine{
		AccountID: r.AccountID,
		Memo:      r.Memo,
		JobID:     r.JobID,
	}
	switch {
	case r.Debit != nil && r.Credit != nil:
		return line, fmt.Errorf("%w: line for account %s carries both a debit and a credit", apperrors.ErrValidation, r.AccountID)
	case r.Debit != nil:
		cents, err := money.ToCents(*r.Debit)
		if err != nil {
			return line, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		line.DebitCents = cents
	case r.Credit != nil:
		cents, err := money.ToCents(*r.Credit)
		if err != nil {
			return line, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		line.CreditCents = cents
	default:
		return line, fmt.Errorf("%w: line for account %s carries neither a debit nor a credit", apperrors.ErrValidation, r.AccountID)
	}
	return line, nil
}

// ToDomainLines converts a slice of line requests.
func ToDomainLines(reqs []LineRequest) ([]domain.JournalLine, error) {
	lines := make([]domain.JournalLine, len(reqs))
	for i, r := range reqs {
		line, err := r.ToDomainLine()
		if err != nil {
			return nil, err
		}
		lines[i] = line
	}
	return lines, nil
}

// EntryHeader carries the caller-supplied header fields of an entry.
type EntryHeader struct {
	EntryDate       time.Time `json:"entryDate" binding:"required"`
	ReferenceNumber *string   `json:"referenceNumber,omitempty"`
	Memo            string    `json:"memo"`
}

// CreateDraftRequest defines the payload for creating a draft entry.
// Drafts may legitimately be unbalanced mid-edit, so no balance gate applies.
type CreateDraftRequest struct {
	EntryHeader
	SourceType domain.SourceType `json:"sourceType" binding:"omitempty,sourcetype"`
	Lines      []LineRequest     `json:"lines" binding:"required,min=1,dive"`
}

// UpdateDraftRequest replaces a draft's header fields and full line set.
type UpdateDraftRequest struct {
	EntryHeader
	Lines []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PostFromSourceRequest defines the payload for an idempotent source-driven
// posting (bill payments, invoices, adjustments, closings).
type PostFromSourceRequest struct {
	EntryHeader
	SourceType     domain.SourceType `json:"sourceType" binding:"required,sourcetype"`
	SourceID       string            `json:"sourceID" binding:"required"`
	IdempotencyKey string            `json:"idempotencyKey" binding:"required"`
	Lines          []LineRequest     `json:"lines" binding:"required,min=1,dive"`
}

// VoidEntryRequest defines the payload for voiding a posted entry.
type VoidEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// LineResponse defines the data returned for a journal line.
type LineResponse struct {
	LineID    string          `json:"lineID"`
	EntryID   string          `json:"entryID"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo"`
	JobID     *string         `json:"jobID,omitempty"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID          string             `json:"entryID"`
	EntryDate        time.Time          `json:"entryDate"`
	ReferenceNumber  *string            `json:"referenceNumber,omitempty"`
	Memo             string             `json:"memo"`
	Status           domain.EntryStatus `json:"status"`
	SourceType       domain.SourceType  `json:"sourceType"`
	SourceID         *string            `json:"sourceID,omitempty"`
	PostedBy         *string            `json:"postedBy,omitempty"`
	PostedAt         *time.Time         `json:"postedAt,omitempty"`
	VoidedBy         *string            `json:"voidedBy,omitempty"`
	VoidedAt         *time.Time         `json:"voidedAt,omitempty"`
	VoidReason       *string            `json:"voidReason,omitempty"`
	ReversingEntryID *string            `json:"reversingEntryID,omitempty"`
	OriginalEntryID  *string            `json:"originalEntryID,omitempty"`
	// Balanced guides the UI while an entry is in draft; posted entries are
	// always balanced.
	Balanced bool            `json:"balanced"`
	Delta    decimal.Decimal `json:"delta"`
	CreatedAt time.Time      `json:"createdAt"`
	CreatedBy string         `json:"createdBy"`
	Lines     []LineResponse `json:"lines,omitempty"`
}

// ListEntriesParams holds query parameters for listing entries in a period.
type ListEntriesParams struct {
	From      time.Time
	To        time.Time
	Limit     int
	NextToken *string
}

// ListEntriesResponse is a page of entries plus the cursor for the next page.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ListLinesParams holds query parameters for listing an account's lines.
type ListLinesParams struct {
	Limit     int
	NextToken *string
}

// ListLinesResponse is a page of lines plus the cursor for the next page.
type ListLinesResponse struct {
	Lines     []LineResponse `json:"lines"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ToLineResponse converts a domain.JournalLine to LineResponse DTO.
func ToLineResponse(l *domain.JournalLine) LineResponse {
	return LineResponse{
		LineID:    l.LineID,
		EntryID:   l.EntryID,
		AccountID: l.AccountID,
		Debit:     money.FromCents(l.DebitCents),
		Credit:    money.FromCents(l.CreditCents),
		Memo:      l.Memo,
		JobID:     l.JobID,
	}
}

// ToLineResponses converts a slice of domain.JournalLine to []LineResponse.
func ToLineResponses(lines []domain.JournalLine) []LineResponse {
	responses := make([]LineResponse, len(lines))
	for i := range lines {
		responses[i] = ToLineResponse(&lines[i])
	}
	return responses
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO. The
// delta is computed from whatever lines are attached; callers wanting the
// balanced flag populated must load lines first.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	var delta int64
	for _, l := range e.Lines {
		delta += l.DebitCents - l.CreditCents
	}
	resp := EntryResponse{
		EntryID:          e.EntryID,
		EntryDate:        e.EntryDate,
		ReferenceNumber:  e.ReferenceNumber,
		Memo:             e.Memo,
		Status:           e.Status,
		SourceType:       e.SourceType,
		SourceID:         e.SourceID,
		PostedBy:         e.PostedBy,
		PostedAt:         e.PostedAt,
		VoidedBy:         e.VoidedBy,
		VoidedAt:         e.VoidedAt,
		VoidReason:       e.VoidReason,
		ReversingEntryID: e.ReversingEntryID,
		OriginalEntryID:  e.OriginalEntryID,
		Balanced:         e.Status != domain.Draft || (delta == 0 && len(e.Lines) > 0),
		Delta:            money.FromCents(delta),
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
	if e.Lines != nil {
		resp.Lines = ToLineResponses(e.Lines)
	}
	return resp
}
