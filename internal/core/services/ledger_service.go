package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/core/ports"
	portssvc "github.com/crewledger/ledger_backend/internal/core/ports/services"
	"github.com/crewledger/ledger_backend/internal/dto"
	"github.com/crewledger/ledger_backend/internal/middleware"
	"github.com/crewledger/ledger_backend/internal/utils/accounting"
)

// maxConflictRetries bounds internal retries on transient contention before
// ErrConflict surfaces to the caller.
const maxConflictRetries = 3

// ledgerService orchestrates entry lifecycle, balance validation, and the
// atomic application of balance effects.
type ledgerService struct {
	entryRepo  ports.EntryRepository
	accountSvc portssvc.AccountSvcFacade
	periods    ports.PeriodChecker
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(entryRepo ports.EntryRepository, accountSvc portssvc.AccountSvcFacade, periods ports.PeriodChecker) portssvc.LedgerSvcFacade {
	return &ledgerService{
		entryRepo:  entryRepo,
		accountSvc: accountSvc,
		periods:    periods,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateDraft persists a new draft entry. Drafts may be unbalanced mid-edit,
// so no balance gate applies here; the returned entry carries its lines so
// callers can surface the balanced flag.
func (s *ledgerService) CreateDraft(ctx context.Context, tenantID string, req dto.CreateDraftRequest, actorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = domain.SourceManual
	}
	if !sourceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown source type %q", apperrors.ErrValidation, sourceType)
	}

	lines, err := dto.ToDomainLines(req.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: actorUserID,
	}

	for i := range lines {
		lines[i].LineID = uuid.NewString()
		lines[i].EntryID = entryID
		lines[i].AuditFields = audit
	}

	entry := domain.JournalEntry{
		EntryID:         entryID,
		TenantID:        tenantID,
		EntryDate:       req.EntryDate,
		ReferenceNumber: req.ReferenceNumber,
		Memo:            req.Memo,
		Status:          domain.Draft,
		SourceType:      sourceType,
		AuditFields:     audit,
	}

	if err := s.entryRepo.SaveDraft(ctx, entry, lines); err != nil {
		logger.Error("Failed to save draft entry", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save draft entry: %w", err)
	}

	logger.Info("Draft entry created", slog.String("entry_id", entryID))
	entry.Lines = lines
	return &entry, nil
}

// UpdateDraft replaces a draft's header and full line set. Posted and void
// entries are immutable.
func (s *ledgerService) UpdateDraft(ctx context.Context, tenantID, entryID string, req dto.UpdateDraftRequest, actorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsEditable() {
		return nil, fmt.Errorf("%w: entry %s is %s", apperrors.ErrInvalidTransition, entryID, entry.Status)
	}

	lines, err := dto.ToDomainLines(req.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range lines {
		lines[i].LineID = uuid.NewString()
		lines[i].EntryID = entryID
		lines[i].AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		}
	}

	entry.EntryDate = req.EntryDate
	entry.ReferenceNumber = req.ReferenceNumber
	entry.Memo = req.Memo
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorUserID

	if err := s.entryRepo.UpdateDraft(ctx, *entry, lines); err != nil {
		logger.Error("Failed to update draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	logger.Info("Draft entry updated", slog.String("entry_id", entryID))
	entry.Lines = lines
	return entry, nil
}

// DeleteDraft hard-deletes a draft entry and its lines.
func (s *ledgerService) DeleteDraft(ctx context.Context, tenantID, entryID string, actorUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return err
	}
	if !entry.IsEditable() {
		return fmt.Errorf("%w: entry %s is %s", apperrors.ErrInvalidTransition, entryID, entry.Status)
	}

	if err := s.entryRepo.DeleteDraft(ctx, tenantID, entryID); err != nil {
		logger.Error("Failed to delete draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return err
	}

	logger.Info("Draft entry deleted", slog.String("entry_id", entryID))
	return nil
}

// validateForPosting runs the pure balance validator against the entry's
// lines and the current account registry state, and returns the accounts so
// the caller can compute balance effects.
func (s *ledgerService) validateForPosting(ctx context.Context, tenantID string, lines []domain.JournalLine) (map[string]domain.Account, error) {
	accountIDs := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; !ok {
			seen[line.AccountID] = struct{}{}
			accountIDs = append(accountIDs, line.AccountID)
		}
	}

	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	if err := accounting.ValidateEntryLines(tenantID, lines, accounts); err != nil {
		if errors.Is(err, apperrors.ErrForeignTenant) {
			middleware.GetLoggerFromCtx(ctx).Error("Cross-tenant account reference in entry lines",
				slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		}
		return nil, err
	}
	return accounts, nil
}

// checkPeriodOpen consults the period-close collaborator for the entry date.
func (s *ledgerService) checkPeriodOpen(ctx context.Context, tenantID string, date time.Time) error {
	closed, err := s.periods.IsPeriodClosed(ctx, tenantID, date)
	if err != nil {
		return fmt.Errorf("failed to check accounting period: %w", err)
	}
	if closed {
		return fmt.Errorf("%w: %s", apperrors.ErrPeriodClosed, date.Format("2006-01-02"))
	}
	return nil
}

func accountTypes(accounts map[string]domain.Account) map[string]domain.AccountType {
	types := make(map[string]domain.AccountType, len(accounts))
	for id, acc := range accounts {
		types[id] = acc.AccountType
	}
	return types
}

// withConflictRetry runs fn up to maxConflictRetries times, retrying only on
// transient contention. Any other error, including a lost double-post race,
// surfaces immediately.
func withConflictRetry(ctx context.Context, logger *slog.Logger, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		logger.Warn("Transient contention during posting, retrying", slog.Int("attempt", attempt))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// Post transitions a draft to POSTED: balance validation, period check, then
// the status-guarded atomic flip with account-balance effects. Exactly one of
// N concurrent calls on the same draft wins; losers see ErrInvalidTransition
// with no balance effect.
func (s *ledgerService) Post(ctx context.Context, tenantID, entryID string, actorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.Status.CanTransitionTo(domain.Posted) {
		return nil, fmt.Errorf("%w: entry %s is %s, expected DRAFT", apperrors.ErrInvalidTransition, entryID, entry.Status)
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.validateForPosting(ctx, tenantID, lines)
	if err != nil {
		return nil, err
	}

	if err := s.checkPeriodOpen(ctx, tenantID, entry.EntryDate); err != nil {
		return nil, err
	}

	effects, err := accounting.BalanceEffects(lines, accountTypes(accounts))
	if err != nil {
		logger.Error("Failed to compute balance effects", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInternal, err.Error())
	}

	now := time.Now().UTC()
	entry.Status = domain.Posted
	entry.PostedBy = &actorUserID
	entry.PostedAt = &now
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorUserID

	err = withConflictRetry(ctx, logger, func() error {
		return s.entryRepo.PostEntry(ctx, *entry, effects)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			logger.Warn("Lost posting race", slog.String("entry_id", entryID))
		} else {
			logger.Error("Failed to post entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		}
		return nil, err
	}

	logger.Info("Entry posted", slog.String("entry_id", entryID))
	entry.Lines = lines
	return entry, nil
}

// PostFromSource creates and posts an entry for an external caller in one
// atomic step. Safe under at-least-once delivery: the source key's unique
// constraint makes the lookup-and-insert atomic, and a replay returns the
// already-posted entry instead of creating a duplicate.
func (s *ledgerService) PostFromSource(ctx context.Context, tenantID string, req dto.PostFromSourceRequest, actorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.SourceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown source type %q", apperrors.ErrValidation, req.SourceType)
	}

	key := ports.SourceKey{
		TenantID:       tenantID,
		SourceType:     req.SourceType,
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
	}

	// Fast path: the posting already happened on a previous delivery.
	if existing, err := s.entryRepo.FindEntryBySourceKey(ctx, key); err == nil {
		logger.Info("Idempotent replay, returning existing entry", slog.String("entry_id", existing.EntryID), slog.String("source_id", req.SourceID))
		return s.attachLines(ctx, existing)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	lines, err := dto.ToDomainLines(req.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: actorUserID,
	}
	for i := range lines {
		lines[i].LineID = uuid.NewString()
		lines[i].EntryID = entryID
		lines[i].AuditFields = audit
	}

	accounts, err := s.validateForPosting(ctx, tenantID, lines)
	if err != nil {
		return nil, err
	}

	if err := s.checkPeriodOpen(ctx, tenantID, req.EntryDate); err != nil {
		return nil, err
	}

	effects, err := accounting.BalanceEffects(lines, accountTypes(accounts))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInternal, err.Error())
	}

	entry := domain.JournalEntry{
		EntryID:         entryID,
		TenantID:        tenantID,
		EntryDate:       req.EntryDate,
		ReferenceNumber: req.ReferenceNumber,
		Memo:            req.Memo,
		Status:          domain.Posted,
		SourceType:      req.SourceType,
		SourceID:        &req.SourceID,
		IdempotencyKey:  &req.IdempotencyKey,
		PostedBy:        &actorUserID,
		PostedAt:        &now,
		AuditFields:     audit,
	}

	err = withConflictRetry(ctx, logger, func() error {
		return s.entryRepo.SaveAndPostEntry(ctx, entry, lines, effects)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Concurrent delivery won the insert; return its entry.
			existing, findErr := s.entryRepo.FindEntryBySourceKey(ctx, key)
			if findErr != nil {
				return nil, findErr
			}
			logger.Info("Idempotent replay resolved after insert race", slog.String("entry_id", existing.EntryID))
			return s.attachLines(ctx, existing)
		}
		logger.Error("Failed to post source entry", slog.String("error", err.Error()), slog.String("source_id", req.SourceID))
		return nil, err
	}

	logger.Info("Source entry posted", slog.String("entry_id", entryID), slog.String("source_type", string(req.SourceType)), slog.String("source_id", req.SourceID))
	entry.Lines = lines
	return &entry, nil
}

// Void cancels a posted entry per its source type's reversal policy. Manual
// and adjustment entries reverse in place; system-generated entries get a
// paired reversing entry so the originating document's audit trail survives.
func (s *ledgerService) Void(ctx context.Context, tenantID, entryID string, actorUserID string, reason string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if reason == "" {
		return nil, fmt.Errorf("%w: void reason is required", apperrors.ErrValidation)
	}

	entry, err := s.entryRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.Status.CanTransitionTo(domain.Void) {
		return nil, fmt.Errorf("%w: entry %s is %s, expected POSTED", apperrors.ErrInvalidTransition, entryID, entry.Status)
	}

	if err := s.checkPeriodOpen(ctx, tenantID, entry.EntryDate); err != nil {
		return nil, err
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	accountIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	now := time.Now().UTC()
	entry.Status = domain.Void
	entry.VoidedBy = &actorUserID
	entry.VoidedAt = &now
	entry.VoidReason = &reason
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorUserID

	switch domain.ReversalPolicyFor(entry.SourceType) {
	case domain.ReverseInPlace:
		reversedLines := make([]domain.JournalLine, len(lines))
		for i, line := range lines {
			reversedLines[i] = line.Negated()
		}
		reversedEffects, err := accounting.BalanceEffects(reversedLines, accountTypes(accounts))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrInternal, err.Error())
		}

		err = withConflictRetry(ctx, logger, func() error {
			return s.entryRepo.VoidEntryInPlace(ctx, *entry, reversedEffects)
		})
		if err != nil {
			logger.Error("Failed to void entry in place", slog.String("error", err.Error()), slog.String("entry_id", entryID))
			return nil, err
		}

		logger.Info("Entry voided in place", slog.String("entry_id", entryID))
		entry.Lines = lines
		return entry, nil

	default: // domain.ReversingEntry
		reversingID := uuid.NewString()
		audit := domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		}

		reversingLines := make([]domain.JournalLine, len(lines))
		for i, line := range lines {
			reversed := line.Negated()
			reversed.LineID = uuid.NewString()
			reversed.EntryID = reversingID
			reversed.AuditFields = audit
			reversingLines[i] = reversed
		}

		effects, err := accounting.BalanceEffects(reversingLines, accountTypes(accounts))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrInternal, err.Error())
		}

		reversing := domain.JournalEntry{
			EntryID:         reversingID,
			TenantID:        tenantID,
			EntryDate:       entry.EntryDate,
			Memo:            fmt.Sprintf("Reversal of entry: %s", entry.Memo),
			Status:          domain.Posted,
			SourceType:      entry.SourceType,
			SourceID:        entry.SourceID,
			PostedBy:        &actorUserID,
			PostedAt:        &now,
			OriginalEntryID: &entry.EntryID,
			AuditFields:     audit,
		}
		entry.ReversingEntryID = &reversingID

		err = withConflictRetry(ctx, logger, func() error {
			return s.entryRepo.VoidWithReversingEntry(ctx, *entry, reversing, reversingLines, effects)
		})
		if err != nil {
			logger.Error("Failed to void entry with reversing entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
			return nil, err
		}

		logger.Info("Entry voided with reversing entry", slog.String("entry_id", entryID), slog.String("reversing_entry_id", reversingID))
		entry.Lines = lines
		return entry, nil
	}
}

// GetEntry retrieves an entry with its lines, scoped to the tenant.
func (s *ledgerService) GetEntry(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	return s.attachLines(ctx, entry)
}

// ListEntriesForPeriod retrieves a paginated list of entries dated within the
// given range.
func (s *ledgerService) ListEntriesForPeriod(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entries, nextToken, err := s.entryRepo.ListEntriesForPeriod(ctx, tenantID, params.From, params.To, params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list entries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToEntryResponse(&entries[i])
	}

	return &dto.ListEntriesResponse{Entries: responses, NextToken: nextToken}, nil
}

// ListLinesForAccount retrieves a paginated list of posted lines touching the
// given account, used by reporting collaborators.
func (s *ledgerService) ListLinesForAccount(ctx context.Context, tenantID, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Ensure the account exists in this tenant before exposing its lines.
	if _, err := s.accountSvc.GetAccount(ctx, tenantID, accountID); err != nil {
		return nil, err
	}

	lines, nextToken, err := s.entryRepo.ListLinesByAccountID(ctx, tenantID, accountID, params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list lines for account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to retrieve lines: %w", err)
	}

	return &dto.ListLinesResponse{Lines: dto.ToLineResponses(lines), NextToken: nextToken}, nil
}

func (s *ledgerService) attachLines(ctx context.Context, entry *domain.JournalEntry) (*domain.JournalEntry, error) {
	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entry.EntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entry.EntryID, err)
	}
	entry.Lines = lines
	return entry, nil
}
