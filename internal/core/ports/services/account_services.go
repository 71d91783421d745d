package services

import (
	"context"

	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/dto"
)

// AccountSvcFacade exposes the chart-of-accounts registry. Read-mostly:
// balances are mutated only by the posting transaction, never through this
// facade.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, actorUserID string) (*domain.Account, error)
	GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error)
	GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)
	ListActiveAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)
	// DeactivateAccount retires an account from new postings. Accounts are
	// never deleted so historical entries stay resolvable.
	DeactivateAccount(ctx context.Context, tenantID, accountID string, actorUserID string) error
}
