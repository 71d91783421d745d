package accounting_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/utils/accounting"
)

const tenantID = "tenant-1"

func activeAccount(id string, accountType domain.AccountType) domain.Account {
	return domain.Account{
		AccountID:   id,
		TenantID:    tenantID,
		AccountType: accountType,
		IsActive:    true,
	}
}

func TestSignedEffect(t *testing.T) {
	debit := domain.JournalLine{AccountID: "acc", DebitCents: 10000}
	credit := domain.JournalLine{AccountID: "acc", CreditCents: 10000}

	tests := []struct {
		name        string
		line        domain.JournalLine
		accountType domain.AccountType
		want        int64
	}{
		{name: "debit asset increases", line: debit, accountType: domain.Asset, want: 10000},
		{name: "credit asset decreases", line: credit, accountType: domain.Asset, want: -10000},
		{name: "debit expense increases", line: debit, accountType: domain.Expense, want: 10000},
		{name: "debit liability decreases", line: debit, accountType: domain.Liability, want: -10000},
		{name: "credit liability increases", line: credit, accountType: domain.Liability, want: 10000},
		{name: "credit equity increases", line: credit, accountType: domain.Equity, want: 10000},
		{name: "credit revenue increases", line: credit, accountType: domain.Revenue, want: 10000},
		{name: "debit revenue decreases", line: debit, accountType: domain.Revenue, want: -10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounting.SignedEffect(tt.line, tt.accountType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignedEffect_UnknownType(t *testing.T) {
	line := domain.JournalLine{AccountID: "acc", DebitCents: 100}
	_, err := accounting.SignedEffect(line, domain.AccountType("CONTRA"))
	assert.Error(t, err)
}

func TestValidateEntryLines_Balanced(t *testing.T) {
	accounts := map[string]domain.Account{
		"cash":    activeAccount("cash", domain.Asset),
		"revenue": activeAccount("revenue", domain.Revenue),
	}
	lines := []domain.JournalLine{
		{AccountID: "cash", DebitCents: 50000},
		{AccountID: "revenue", CreditCents: 50000},
	}

	assert.NoError(t, accounting.ValidateEntryLines(tenantID, lines, accounts))
}

func TestValidateEntryLines_OffByOneCent(t *testing.T) {
	accounts := map[string]domain.Account{
		"cash":    activeAccount("cash", domain.Asset),
		"revenue": activeAccount("revenue", domain.Revenue),
	}
	// $500.00 debit against $499.99 credit must fail with exactly one cent of
	// drift, never pass a tolerance check.
	lines := []domain.JournalLine{
		{AccountID: "cash", DebitCents: 50000},
		{AccountID: "revenue", CreditCents: 49999},
	}

	err := accounting.ValidateEntryLines(tenantID, lines, accounts)
	require.Error(t, err)

	var unbalanced *apperrors.UnbalancedError
	require.True(t, errors.As(err, &unbalanced))
	assert.Equal(t, int64(1), unbalanced.DeltaCents)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestValidateEntryLines_Rejections(t *testing.T) {
	accounts := map[string]domain.Account{
		"cash":     activeAccount("cash", domain.Asset),
		"revenue":  activeAccount("revenue", domain.Revenue),
		"inactive": {AccountID: "inactive", TenantID: tenantID, AccountType: domain.Expense, IsActive: false},
		"foreign":  {AccountID: "foreign", TenantID: "tenant-2", AccountType: domain.Asset, IsActive: true},
	}

	tests := []struct {
		name    string
		lines   []domain.JournalLine
		wantErr error
	}{
		{
			name:    "empty entry",
			lines:   nil,
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "both sides on one line",
			lines: []domain.JournalLine{
				{AccountID: "cash", DebitCents: 100, CreditCents: 100},
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "neither side on one line",
			lines: []domain.JournalLine{
				{AccountID: "cash"},
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "unknown account",
			lines: []domain.JournalLine{
				{AccountID: "ghost", DebitCents: 100},
				{AccountID: "revenue", CreditCents: 100},
			},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name: "cross-tenant account",
			lines: []domain.JournalLine{
				{AccountID: "foreign", DebitCents: 100},
				{AccountID: "revenue", CreditCents: 100},
			},
			wantErr: apperrors.ErrForeignTenant,
		},
		{
			name: "inactive account",
			lines: []domain.JournalLine{
				{AccountID: "inactive", DebitCents: 100},
				{AccountID: "revenue", CreditCents: 100},
			},
			wantErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounting.ValidateEntryLines(tenantID, tt.lines, accounts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestEntryDelta(t *testing.T) {
	lines := []domain.JournalLine{
		{AccountID: "a", DebitCents: 30000},
		{AccountID: "b", DebitCents: 20000},
		{AccountID: "c", CreditCents: 50000},
	}
	assert.Equal(t, int64(0), accounting.EntryDelta(lines))

	lines[2].CreditCents = 49999
	assert.Equal(t, int64(1), accounting.EntryDelta(lines))
}

func TestBalanceEffects_AggregatesPerAccount(t *testing.T) {
	types := map[string]domain.AccountType{
		"cash":    domain.Asset,
		"revenue": domain.Revenue,
	}
	// Two debits to the same account aggregate into a single effect.
	lines := []domain.JournalLine{
		{AccountID: "cash", DebitCents: 30000},
		{AccountID: "cash", DebitCents: 20000},
		{AccountID: "revenue", CreditCents: 50000},
	}

	effects, err := accounting.BalanceEffects(lines, types)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"cash": 50000, "revenue": 50000}, effects)
}

func TestBalanceEffects_MissingType(t *testing.T) {
	lines := []domain.JournalLine{{AccountID: "cash", DebitCents: 100}}
	_, err := accounting.BalanceEffects(lines, map[string]domain.AccountType{})
	assert.Error(t, err)
}
