package ports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crewledger/ledger_backend/internal/core/domain"
)

// AccountRepository defines the persistence operations for Accounts.
// Balance mutation is deliberately absent from this surface: account balances
// change only inside the posting transaction via ApplyBalanceEffectsInTx.
type AccountRepository interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)
	FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)
	ListActiveAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)
	SetAccountActive(ctx context.Context, tenantID, accountID string, active bool, updatedBy string, updatedAt time.Time) error

	// FindAccountsByIDsForUpdate locks the account rows for the duration of
	// the enclosing transaction and returns their current state.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)
	// ApplyBalanceEffectsInTx adds each signed effect (minor units) to its
	// account's materialized balance. Must run inside the same transaction
	// that records the entry status change.
	ApplyBalanceEffectsInTx(ctx context.Context, tx pgx.Tx, effects map[string]int64, updatedBy string, updatedAt time.Time) error
}

// SourceKey identifies an externally originated posting for idempotency.
type SourceKey struct {
	TenantID       string
	SourceType     domain.SourceType
	SourceID       string
	IdempotencyKey string
}

// EntryRepository defines the persistence operations for JournalEntries and
// their lines. Saving an entry implies saving its lines atomically.
type EntryRepository interface {
	SaveDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error
	// UpdateDraft replaces the header fields and the full line set of a draft.
	// Fails with ErrInvalidTransition if the entry is no longer a draft.
	UpdateDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error
	// DeleteDraft hard-deletes a draft entry and its lines. Fails with
	// ErrInvalidTransition if the entry is no longer a draft.
	DeleteDraft(ctx context.Context, tenantID, entryID string) error

	FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)
	FindEntryBySourceKey(ctx context.Context, key SourceKey) (*domain.JournalEntry, error)

	// PostEntry atomically flips a draft to POSTED (guarded on current status)
	// and applies the balance effects to the touched accounts. Exactly one of
	// N concurrent calls succeeds; losers get ErrInvalidTransition.
	PostEntry(ctx context.Context, entry domain.JournalEntry, effects map[string]int64) error
	// SaveAndPostEntry inserts a new entry with its lines directly in POSTED
	// status and applies balance effects, all in one transaction. Used by
	// idempotent source postings; a unique violation on the source key maps
	// to ErrDuplicate.
	SaveAndPostEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, effects map[string]int64) error

	// VoidEntryInPlace flips a posted entry to VOID (guarded on current
	// status) and backs its effects out of the account balances.
	VoidEntryInPlace(ctx context.Context, entry domain.JournalEntry, reversedEffects map[string]int64) error
	// VoidWithReversingEntry posts the reversing entry, applies its effects,
	// and flips the original to VOID with the link fields set, atomically.
	VoidWithReversingEntry(ctx context.Context, original domain.JournalEntry, reversing domain.JournalEntry, reversingLines []domain.JournalLine, effects map[string]int64) error

	ListEntriesForPeriod(ctx context.Context, tenantID string, from, to time.Time, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
	ListLinesByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error)
}

// PeriodChecker is the period-close collaborator consulted before any post or
// void. Reopening periods is owned elsewhere; the ledger core only reads.
type PeriodChecker interface {
	IsPeriodClosed(ctx context.Context, tenantID string, date time.Time) (bool, error)
}
