package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/utils/money"
)

// CreateAccountRequest defines the payload for creating a chart-of-accounts entry.
type CreateAccountRequest struct {
	AccountNumber string             `json:"accountNumber" binding:"required"`
	Name          string             `json:"name" binding:"required"`
	AccountType   domain.AccountType `json:"accountType" binding:"required,accounttype"`
	Description   string             `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string             `json:"accountID"`
	AccountNumber string             `json:"accountNumber"`
	Name          string             `json:"name"`
	AccountType   domain.AccountType `json:"accountType"`
	Description   string             `json:"description"`
	IsActive      bool               `json:"isActive"`
	Balance       decimal.Decimal    `json:"balance"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     a.AccountID,
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		AccountType:   a.AccountType,
		Description:   a.Description,
		IsActive:      a.IsActive,
		Balance:       money.FromCents(a.BalanceCents),
		CreatedAt:     a.CreatedAt,
		CreatedBy:     a.CreatedBy,
	}
}

// ToAccountResponses converts a slice of domain.Account to []AccountResponse.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
