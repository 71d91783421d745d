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
)

// accountService maintains the per-tenant chart of accounts.
type accountService struct {
	accountRepo ports.AccountRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo ports.AccountRepository) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount registers a new account in the tenant's chart of accounts.
func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, actorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		TenantID:      tenantID,
		AccountNumber: req.AccountNumber,
		Name:          req.Name,
		AccountType:   req.AccountType,
		Description:   req.Description,
		IsActive:      true,
		BalanceCents:  0,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Duplicate account number", slog.String("account_number", req.AccountNumber))
			return nil, err
		}
		logger.Error("Failed to save account", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("account_number", account.AccountNumber))
	return &account, nil
}

// GetAccount retrieves a single account scoped to the tenant.
func (s *accountService) GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountsByIDs retrieves multiple accounts keyed by ID, scoped to the tenant.
func (s *accountService) GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
}

// ListActiveAccounts returns all active accounts for the tenant.
func (s *accountService) ListActiveAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	return s.accountRepo.ListActiveAccounts(ctx, tenantID)
}

// DeactivateAccount retires an account from new postings. The row and its
// history remain.
func (s *accountService) DeactivateAccount(ctx context.Context, tenantID, accountID string, actorUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.accountRepo.SetAccountActive(ctx, tenantID, accountID, false, actorUserID, time.Now().UTC()); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return err
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}
