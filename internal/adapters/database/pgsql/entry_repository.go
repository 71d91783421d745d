package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/core/ports"
	"github.com/crewledger/ledger_backend/internal/models"
	"github.com/crewledger/ledger_backend/internal/utils/mapping"
	"github.com/crewledger/ledger_backend/internal/utils/pagination"
)

const (
	entryColumns = `entry_id, tenant_id, entry_date, reference_number, memo, status, source_type, source_id, idempotency_key, posted_by, posted_at, voided_by, voided_at, void_reason, reversing_entry_id, original_entry_id, created_at, created_by, last_updated_at, last_updated_by`
	lineColumns  = `line_id, entry_id, account_id, debit_cents, credit_cents, memo, job_id, created_at, created_by, last_updated_at, last_updated_by`

	// Constraint backing the idempotency contract; a violation means the same
	// source posting already exists.
	sourceKeyConstraint = "uq_journal_entries_source_key"
)

type PgxEntryRepository struct {
	BaseRepository
	accountRepo *PgxAccountRepository
}

// NewEntryRepository creates a new repository for journal entry and line data.
func NewEntryRepository(pool *pgxpool.Pool, accountRepo *PgxAccountRepository) *PgxEntryRepository {
	return &PgxEntryRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ ports.EntryRepository = (*PgxEntryRepository)(nil)

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.TenantID,
		&m.EntryDate,
		&m.ReferenceNumber,
		&m.Memo,
		&m.Status,
		&m.SourceType,
		&m.SourceID,
		&m.IdempotencyKey,
		&m.PostedBy,
		&m.PostedAt,
		&m.VoidedBy,
		&m.VoidedAt,
		&m.VoidReason,
		&m.ReversingEntryID,
		&m.OriginalEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanLine(row pgx.Row) (models.JournalLine, error) {
	var m models.JournalLine
	err := row.Scan(
		&m.LineID,
		&m.EntryID,
		&m.AccountID,
		&m.DebitCents,
		&m.CreditCents,
		&m.Memo,
		&m.JobID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func insertEntryTx(ctx context.Context, tx pgx.Tx, m models.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err := tx.Exec(ctx, query,
		m.EntryID,
		m.TenantID,
		m.EntryDate,
		m.ReferenceNumber,
		m.Memo,
		m.Status,
		m.SourceType,
		m.SourceID,
		m.IdempotencyKey,
		m.PostedBy,
		m.PostedAt,
		m.VoidedBy,
		m.VoidedAt,
		m.VoidReason,
		m.ReversingEntryID,
		m.OriginalEntryID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return err
}

func insertLinesTx(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		m := mapping.ToModelLine(line)
		batch.Queue(query,
			m.LineID,
			m.EntryID,
			m.AccountID,
			m.DebitCents,
			m.CreditCents,
			m.Memo,
			m.JobID,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	return br.Close()
}

// applyEffectsTx locks the touched accounts in a stable order and applies the
// signed balance effects, all on the caller's transaction.
func (r *PgxEntryRepository) applyEffectsTx(ctx context.Context, tx pgx.Tx, effects map[string]int64, updatedBy string, entry models.JournalEntry) error {
	accountIDs := make([]string, 0, len(effects))
	for accID := range effects {
		accountIDs = append(accountIDs, accID)
	}
	sort.Strings(accountIDs)

	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return err
	}
	return r.accountRepo.ApplyBalanceEffectsInTx(ctx, tx, effects, updatedBy, entry.LastUpdatedAt)
}

// SaveDraft inserts a draft entry with its lines atomically.
func (r *PgxEntryRepository) SaveDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEntry(entry)
	if err := insertEntryTx(ctx, tx, m); err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: entry %s", apperrors.ErrDuplicate, m.EntryID)
		}
		return apperrors.NewAppError(500, "failed to insert entry "+m.EntryID, err)
	}
	if err := insertLinesTx(ctx, tx, lines); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for entry "+m.EntryID, err)
	}
	return r.Commit(ctx, tx)
}

// UpdateDraft replaces a draft's header fields and full line set. The update
// is guarded on status so a concurrently posted entry cannot be edited.
func (r *PgxEntryRepository) UpdateDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEntry(entry)
	query := `
		UPDATE journal_entries
		SET entry_date = $3, reference_number = $4, memo = $5, last_updated_at = $6, last_updated_by = $7
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.TenantID,
		m.EntryID,
		m.EntryDate,
		m.ReferenceNumber,
		m.Memo,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapTxError(err, "failed to update draft entry "+m.EntryID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is no longer a draft", apperrors.ErrInvalidTransition, m.EntryID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, m.EntryID); err != nil {
		return apperrors.NewAppError(500, "failed to delete lines for entry "+m.EntryID, err)
	}
	if err := insertLinesTx(ctx, tx, lines); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for entry "+m.EntryID, err)
	}
	return r.Commit(ctx, tx)
}

// DeleteDraft hard-deletes a draft entry, guarded on DRAFT status. Lines go
// with it via the cascading foreign key.
func (r *PgxEntryRepository) DeleteDraft(ctx context.Context, tenantID, entryID string) error {
	query := `
		DELETE FROM journal_entries
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, entryID)
	if err != nil {
		return mapTxError(err, "failed to delete draft entry "+entryID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is no longer a draft", apperrors.ErrInvalidTransition, entryID)
	}
	return nil
}

// FindEntryByID retrieves an entry scoped to the tenant.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND entry_id = $2;
	`
	m, err := scanEntry(r.Pool.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find entry "+entryID, err)
	}
	entry := mapping.ToDomainEntry(m)
	return &entry, nil
}

// FindLinesByEntryID retrieves all lines of an entry in stable line order.
func (r *PgxEntryRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	defer rows.Close()

	lines := []models.JournalLine{}
	for rows.Next() {
		m, err := scanLine(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line row for entry "+entryID, err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line rows for entry "+entryID, err)
	}
	return mapping.ToDomainLineSlice(lines), nil
}

// FindEntryBySourceKey retrieves the entry recorded for an idempotent source
// posting, if any.
func (r *PgxEntryRepository) FindEntryBySourceKey(ctx context.Context, key ports.SourceKey) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3 AND idempotency_key = $4;
	`
	m, err := scanEntry(r.Pool.QueryRow(ctx, query, key.TenantID, string(key.SourceType), key.SourceID, key.IdempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find entry by source key", err)
	}
	entry := mapping.ToDomainEntry(m)
	return &entry, nil
}

// PostEntry atomically flips a draft to POSTED and applies the balance
// effects. The status-guarded update makes exactly one of N concurrent posts
// win; losers see ErrInvalidTransition and no balance effect, because the
// whole transaction rolls back.
func (r *PgxEntryRepository) PostEntry(ctx context.Context, entry domain.JournalEntry, effects map[string]int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEntry(entry)
	query := `
		UPDATE journal_entries
		SET status = 'POSTED', posted_by = $3, posted_at = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.TenantID,
		m.EntryID,
		m.PostedBy,
		m.PostedAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapTxError(err, "failed to post entry "+m.EntryID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is no longer a draft", apperrors.ErrInvalidTransition, m.EntryID)
	}

	if err := r.applyEffectsTx(ctx, tx, effects, m.LastUpdatedBy, m); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveAndPostEntry inserts a new entry with its lines directly in POSTED
// status and applies the balance effects in one transaction. A unique
// violation on the source key maps to ErrDuplicate so the service can return
// the entry recorded by an earlier delivery.
func (r *PgxEntryRepository) SaveAndPostEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, effects map[string]int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEntry(entry)
	if err := insertEntryTx(ctx, tx, m); err != nil {
		if isUniqueViolation(err, sourceKeyConstraint) {
			return fmt.Errorf("%w: source posting already recorded", apperrors.ErrDuplicate)
		}
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: entry %s", apperrors.ErrDuplicate, m.EntryID)
		}
		return mapTxError(err, "failed to insert entry "+m.EntryID)
	}
	if err := insertLinesTx(ctx, tx, lines); err != nil {
		return mapTxError(err, "failed to insert lines for entry "+m.EntryID)
	}
	if err := r.applyEffectsTx(ctx, tx, effects, m.LastUpdatedBy, m); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// VoidEntryInPlace flips a posted entry to VOID and backs its effects out of
// the account balances, guarded on the current status.
func (r *PgxEntryRepository) VoidEntryInPlace(ctx context.Context, entry domain.JournalEntry, reversedEffects map[string]int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEntry(entry)
	if err := r.voidEntryTx(ctx, tx, m); err != nil {
		return err
	}
	if err := r.applyEffectsTx(ctx, tx, reversedEffects, m.LastUpdatedBy, m); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// VoidWithReversingEntry posts the reversing entry and flips the original to
// VOID with its link set, atomically.
func (r *PgxEntryRepository) VoidWithReversingEntry(ctx context.Context, original domain.JournalEntry, reversing domain.JournalEntry, reversingLines []domain.JournalLine, effects map[string]int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.voidWithReversingTx(ctx, tx, original, reversing, reversingLines, effects); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// voidWithReversingTx runs the reversal sequence on the caller's transaction.
// The reversing entry must be inserted before the original is flipped: the
// original's reversing_entry_id FK is checked at the end of the UPDATE
// statement, so the target row has to exist by then.
func (r *PgxEntryRepository) voidWithReversingTx(ctx context.Context, tx pgx.Tx, original domain.JournalEntry, reversing domain.JournalEntry, reversingLines []domain.JournalLine, effects map[string]int64) error {
	mReversing := mapping.ToModelEntry(reversing)
	if err := insertEntryTx(ctx, tx, mReversing); err != nil {
		return mapTxError(err, "failed to insert reversing entry "+mReversing.EntryID)
	}
	if err := insertLinesTx(ctx, tx, reversingLines); err != nil {
		return mapTxError(err, "failed to insert lines for reversing entry "+mReversing.EntryID)
	}

	mOriginal := mapping.ToModelEntry(original)
	if err := r.voidEntryTx(ctx, tx, mOriginal); err != nil {
		return err
	}

	return r.applyEffectsTx(ctx, tx, effects, mReversing.CreatedBy, mReversing)
}

func (r *PgxEntryRepository) voidEntryTx(ctx context.Context, tx pgx.Tx, m models.JournalEntry) error {
	query := `
		UPDATE journal_entries
		SET status = 'VOID', voided_by = $3, voided_at = $4, void_reason = $5, reversing_entry_id = $6, last_updated_at = $7, last_updated_by = $8
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'POSTED';
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.TenantID,
		m.EntryID,
		m.VoidedBy,
		m.VoidedAt,
		m.VoidReason,
		m.ReversingEntryID,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapTxError(err, "failed to void entry "+m.EntryID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is not posted", apperrors.ErrInvalidTransition, m.EntryID)
	}
	return nil
}

// ListEntriesForPeriod retrieves a paginated list of entries dated within
// [from, to], newest first, using token-based cursor pagination.
func (r *PgxEntryRepository) ListEntriesForPeriod(ctx context.Context, tenantID string, from, to time.Time, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND entry_date >= $2 AND entry_date <= $3
	`
	// Ordering must be stable for the cursor to work.
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{tenantID, from, to}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause := `AND (entry_date, created_at) < ($4, $5)`
		args = append(args, lastDate, lastCreatedAt)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for tenant "+tenantID, err)
	}
	defer rows.Close()

	modelEntries := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row", scanErr)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows", err)
	}

	var nextTokenVal *string
	results := modelEntries
	if len(modelEntries) > limit {
		lastEntry := modelEntries[limit-1]
		newToken := pagination.EncodeToken(lastEntry.EntryDate, lastEntry.CreatedAt)
		nextTokenVal = &newToken
		results = modelEntries[:limit]
	}

	entries := make([]domain.JournalEntry, len(results))
	for i, m := range results {
		entries[i] = mapping.ToDomainEntry(m)
	}
	return entries, nextTokenVal, nil
}

// ListLinesByAccountID retrieves a paginated list of posted lines touching an
// account, newest entry first.
func (r *PgxEntryRepository) ListLinesByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.entry_id, l.account_id, l.debit_cents, l.credit_cents, l.memo, l.job_id,
		       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by, e.entry_date
		FROM journal_lines l
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE l.account_id = $1 AND e.tenant_id = $2 AND e.status = 'POSTED'
	`
	// Lines of one entry share a created_at, so line_id breaks the tie to keep
	// pages from skipping the remainder of a batch.
	orderByClause := `ORDER BY e.entry_date DESC, l.created_at DESC, l.line_id DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{accountID, tenantID}

	if nextToken != nil && *nextToken != "" {
		lastEntryDate, lastCreatedAt, lastLineID, decodeErr := pagination.DecodeLineToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause := `AND (e.entry_date, l.created_at, l.line_id) < ($3, $4, $5)`
		args = append(args, lastEntryDate, lastCreatedAt, lastLineID)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query lines for account "+accountID, err)
	}
	defer rows.Close()

	type lineWithDate struct {
		line      models.JournalLine
		entryDate time.Time
	}
	scanned := make([]lineWithDate, 0, fetchLimit)
	for rows.Next() {
		var m models.JournalLine
		var entryDate time.Time
		scanErr := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.AccountID,
			&m.DebitCents,
			&m.CreditCents,
			&m.Memo,
			&m.JobID,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
			&entryDate,
		)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan line row for account "+accountID, scanErr)
		}
		scanned = append(scanned, lineWithDate{line: m, entryDate: entryDate})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating line rows for account "+accountID, err)
	}

	var nextTokenVal *string
	results := scanned
	if len(scanned) > limit {
		last := scanned[limit-1]
		newToken := pagination.EncodeLineToken(last.entryDate, last.line.CreatedAt, last.line.LineID)
		nextTokenVal = &newToken
		results = scanned[:limit]
	}

	lines := make([]domain.JournalLine, len(results))
	for i, s := range results {
		lines[i] = mapping.ToDomainLine(s.line)
	}
	return lines, nextTokenVal, nil
}
