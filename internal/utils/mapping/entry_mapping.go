package mapping

import (
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/models"
)

// ToModelEntry converts a domain.JournalEntry for DB storage.
func ToModelEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:          d.EntryID,
		TenantID:         d.TenantID,
		EntryDate:        d.EntryDate,
		ReferenceNumber:  d.ReferenceNumber,
		Memo:             d.Memo,
		Status:           string(d.Status),
		SourceType:       string(d.SourceType),
		SourceID:         d.SourceID,
		IdempotencyKey:   d.IdempotencyKey,
		PostedBy:         d.PostedBy,
		PostedAt:         d.PostedAt,
		VoidedBy:         d.VoidedBy,
		VoidedAt:         d.VoidedAt,
		VoidReason:       d.VoidReason,
		ReversingEntryID: d.ReversingEntryID,
		OriginalEntryID:  d.OriginalEntryID,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntry converts a models.JournalEntry from the DB.
func ToDomainEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:          m.EntryID,
		TenantID:         m.TenantID,
		EntryDate:        m.EntryDate,
		ReferenceNumber:  m.ReferenceNumber,
		Memo:             m.Memo,
		Status:           domain.EntryStatus(m.Status),
		SourceType:       domain.SourceType(m.SourceType),
		SourceID:         m.SourceID,
		IdempotencyKey:   m.IdempotencyKey,
		PostedBy:         m.PostedBy,
		PostedAt:         m.PostedAt,
		VoidedBy:         m.VoidedBy,
		VoidedAt:         m.VoidedAt,
		VoidReason:       m.VoidReason,
		ReversingEntryID: m.ReversingEntryID,
		OriginalEntryID:  m.OriginalEntryID,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLine converts a domain.JournalLine for DB storage.
func ToModelLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:      d.LineID,
		EntryID:     d.EntryID,
		AccountID:   d.AccountID,
		DebitCents:  d.DebitCents,
		CreditCents: d.CreditCents,
		Memo:        d.Memo,
		JobID:       d.JobID,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLine converts a models.JournalLine from the DB.
func ToDomainLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		AccountID:   m.AccountID,
		DebitCents:  m.DebitCents,
		CreditCents: m.CreditCents,
		Memo:        m.Memo,
		JobID:       m.JobID,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLineSlice converts a slice of models.JournalLine.
func ToDomainLineSlice(ms []models.JournalLine) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		lines[i] = ToDomainLine(m)
	}
	return lines
}
