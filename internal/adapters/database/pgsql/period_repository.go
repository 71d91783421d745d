package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/ports"
)

type PgxPeriodRepository struct {
	BaseRepository
}

// NewPeriodRepository creates a new repository for accounting period data.
func NewPeriodRepository(pool *pgxpool.Pool) *PgxPeriodRepository {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ ports.PeriodChecker = (*PgxPeriodRepository)(nil)

// IsPeriodClosed reports whether the given date falls inside a closed
// accounting period for the tenant. A date covered by no period row is open.
func (r *PgxPeriodRepository) IsPeriodClosed(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM accounting_periods
			WHERE tenant_id = $1
			  AND start_date <= $2
			  AND end_date >= $2
			  AND status = 'CLOSED'
		);
	`
	var closed bool
	if err := r.Pool.QueryRow(ctx, query, tenantID, date).Scan(&closed); err != nil {
		return false, apperrors.NewAppError(500, "failed to check period status for tenant "+tenantID, err)
	}
	return closed, nil
}
