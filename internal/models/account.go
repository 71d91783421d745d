package models

// Account is the database representation of a chart-of-accounts row.
// balance is the materialized running total in integer minor units.
type Account struct {
	AccountID     string `db:"account_id"`
	TenantID      string `db:"tenant_id"`
	AccountNumber string `db:"account_number"`
	Name          string `db:"name"`
	AccountType   string `db:"account_type"`
	Description   string `db:"description"`
	IsActive      bool   `db:"is_active"`
	BalanceCents  int64  `db:"balance_cents"`
	AuditFields
}
