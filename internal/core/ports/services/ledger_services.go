package services

import (
	"context"

	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/dto"
)

// LedgerSvcFacade is the orchestrating surface of the posting engine. All
// entry and balance mutation in the system goes through this facade; nothing
// writes ledger tables directly.
type LedgerSvcFacade interface {
	CreateDraft(ctx context.Context, tenantID string, req dto.CreateDraftRequest, actorUserID string) (*domain.JournalEntry, error)
	UpdateDraft(ctx context.Context, tenantID, entryID string, req dto.UpdateDraftRequest, actorUserID string) (*domain.JournalEntry, error)
	DeleteDraft(ctx context.Context, tenantID, entryID string, actorUserID string) error

	// Post validates the draft, checks the accounting period, and atomically
	// transitions it to POSTED with its balance effects applied.
	Post(ctx context.Context, tenantID, entryID string, actorUserID string) (*domain.JournalEntry, error)
	// PostFromSource creates and posts an entry in one step for external
	// callers (AP bills, AR invoices). At-most-one posted entry exists per
	// (tenant, sourceType, sourceID, idempotencyKey); replays return the
	// already-posted entry.
	PostFromSource(ctx context.Context, tenantID string, req dto.PostFromSourceRequest, actorUserID string) (*domain.JournalEntry, error)
	// Void cancels a posted entry per the reversal policy of its source type.
	// The reason is mandatory and stored for audit.
	Void(ctx context.Context, tenantID, entryID string, actorUserID string, reason string) (*domain.JournalEntry, error)

	GetEntry(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)
	ListEntriesForPeriod(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
	ListLinesForAccount(ctx context.Context, tenantID, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error)
}
