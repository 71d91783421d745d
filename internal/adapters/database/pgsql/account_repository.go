package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/core/ports"
	"github.com/crewledger/ledger_backend/internal/models"
	"github.com/crewledger/ledger_backend/internal/utils/mapping"
)

const accountColumns = `account_id, tenant_id, account_number, name, account_type, description, is_active, balance_cents, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// NewAccountRepository creates a new repository for chart-of-accounts data.
func NewAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ ports.AccountRepository = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.TenantID,
		&m.AccountNumber,
		&m.Name,
		&m.AccountType,
		&m.Description,
		&m.IsActive,
		&m.BalanceCents,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.TenantID,
		m.AccountNumber,
		m.Name,
		m.AccountType,
		m.Description,
		m.IsActive,
		m.BalanceCents,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: account number %s already exists for tenant", apperrors.ErrDuplicate, m.AccountNumber)
		}
		return apperrors.NewAppError(500, "failed to save account "+m.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account scoped to the tenant.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND account_id = $2;
	`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query, tenantID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account "+accountID, err)
	}
	account := mapping.ToDomainAccount(m)
	return &account, nil
}

// FindAccountsByIDs retrieves accounts by ID without a tenant filter, so the
// balance validator can distinguish a cross-tenant reference (ForeignTenant,
// logged at high severity) from a plain NotFound.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1);
	`
	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by IDs", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account)
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[m.AccountID] = mapping.ToDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// ListActiveAccounts returns the tenant's active accounts ordered by account number.
func (r *PgxAccountRepository) ListActiveAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND is_active = TRUE
		ORDER BY account_number;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query active accounts", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, mapping.ToDomainAccount(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// SetAccountActive flips an account's active flag.
func (r *PgxAccountRepository) SetAccountActive(ctx context.Context, tenantID, accountID string, active bool, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = $3, last_updated_at = $4, last_updated_by = $5
		WHERE tenant_id = $1 AND account_id = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, accountID, active, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account "+accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + accountID + " not found for update")
	}
	return nil
}

// FindAccountsByIDsForUpdate retrieves multiple accounts by IDs and locks the
// rows for update. Rows are locked in account_id order so concurrent postings
// touching the same accounts cannot deadlock. Must be called within a
// transaction.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, mapTxError(err, "failed to lock accounts for update")
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account)
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan locked account row", err)
		}
		accounts[m.AccountID] = mapping.ToDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapTxError(err, "error iterating locked account rows")
	}

	for _, id := range accountIDs {
		if _, found := accounts[id]; !found {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return accounts, nil
}

// ApplyBalanceEffectsInTx adds each signed effect (minor units) to its
// account's materialized balance within the given transaction.
func (r *PgxAccountRepository) ApplyBalanceEffectsInTx(ctx context.Context, tx pgx.Tx, effects map[string]int64, updatedBy string, updatedAt time.Time) error {
	if len(effects) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET balance_cents = balance_cents + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(effects))
	for accountID, delta := range effects {
		if delta != 0 {
			batch.Queue(query, accountID, delta, updatedAt, updatedBy)
			accountIDs = append(accountIDs, accountID)
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = mapTxError(err, "failed to update balance for account "+accountIDs[i])
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, accountIDs[i])
			}
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = mapTxError(closeErr, "failed to close balance update batch")
	}
	return batchErr
}
