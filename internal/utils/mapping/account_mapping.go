package mapping

import (
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/models"
)

// ToModelAccount converts a domain.Account for DB storage.
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:     d.AccountID,
		TenantID:      d.TenantID,
		AccountNumber: d.AccountNumber,
		Name:          d.Name,
		AccountType:   string(d.AccountType),
		Description:   d.Description,
		IsActive:      d.IsActive,
		BalanceCents:  d.BalanceCents,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a models.Account from the DB.
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:     m.AccountID,
		TenantID:      m.TenantID,
		AccountNumber: m.AccountNumber,
		Name:          m.Name,
		AccountType:   domain.AccountType(m.AccountType),
		Description:   m.Description,
		IsActive:      m.IsActive,
		BalanceCents:  m.BalanceCents,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}
