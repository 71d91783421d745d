package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether the account type is one of the five known types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// Account represents a single account in a tenant's chart of accounts.
// Accounts are never deleted, only deactivated, so historical lines always
// resolve to a real account.
type Account struct {
	AccountID     string      `json:"accountID"`
	TenantID      string      `json:"tenantID"`
	AccountNumber string      `json:"accountNumber"` // User-facing number, unique per tenant
	Name          string      `json:"name"`
	AccountType   AccountType `json:"accountType"`
	Description   string      `json:"description"`
	IsActive      bool        `json:"isActive"`
	// BalanceCents is the materialized running balance in integer minor units,
	// maintained transactionally by the posting service. Positive means the
	// account carries its normal-side balance (debit-normal for ASSET/EXPENSE,
	// credit-normal otherwise).
	BalanceCents int64 `json:"balanceCents"`
	AuditFields
}
