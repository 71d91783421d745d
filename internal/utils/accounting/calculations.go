package accounting

import (
	"fmt"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
)

// SignedEffect returns the balance effect of a line on its account in minor
// units, following the normal-balance convention:
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to ASSET/EXPENSE -> Negative (-)
// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
func SignedEffect(line domain.JournalLine, accountType domain.AccountType) (int64, error) {
	amount := line.AmountCents()
	isDebit := line.IsDebit()

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			amount = -amount
		}
	case domain.Liability, domain.Equity, domain.Revenue:
		if isDebit {
			amount = -amount
		}
	default:
		return 0, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
	return amount, nil
}

// EntryDelta returns the sum of debits minus the sum of credits for a set of
// lines, in minor units. Zero means the entry balances.
func EntryDelta(lines []domain.JournalLine) int64 {
	var delta int64
	for _, line := range lines {
		delta += line.DebitCents - line.CreditCents
	}
	return delta
}

// ValidateEntryLines checks that a candidate entry's lines form a valid,
// balanced double-entry posting against the given accounts. It is pure: no
// side effects and no persistence access, so it can run standalone.
//
// Rejects: empty entries, lines carrying both or neither side, non-positive
// amounts, lines referencing unknown or inactive accounts, and lines
// referencing accounts of another tenant. A non-zero debits-minus-credits sum
// is returned as *apperrors.UnbalancedError with the exact cent delta.
func ValidateEntryLines(tenantID string, lines []domain.JournalLine, accounts map[string]domain.Account) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: entry has no lines", apperrors.ErrValidation)
	}

	for _, line := range lines {
		if line.DebitCents != 0 && line.CreditCents != 0 {
			return fmt.Errorf("%w: line for account %s carries both a debit and a credit", apperrors.ErrValidation, line.AccountID)
		}
		if line.DebitCents <= 0 && line.CreditCents <= 0 {
			return fmt.Errorf("%w: line for account %s must carry a positive debit or credit", apperrors.ErrValidation, line.AccountID)
		}

		acc, found := accounts[line.AccountID]
		if !found {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, line.AccountID)
		}
		if acc.TenantID != tenantID {
			return fmt.Errorf("%w: account %s", apperrors.ErrForeignTenant, line.AccountID)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, line.AccountID)
		}
	}

	if delta := EntryDelta(lines); delta != 0 {
		return &apperrors.UnbalancedError{DeltaCents: delta}
	}

	return nil
}

// BalanceEffects aggregates the net signed effect per account for a set of
// lines. Used by the posting path to apply and reverse account balances.
func BalanceEffects(lines []domain.JournalLine, accountTypes map[string]domain.AccountType) (map[string]int64, error) {
	effects := make(map[string]int64, len(lines))
	for _, line := range lines {
		accountType, ok := accountTypes[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account type not found for account ID %s", line.AccountID)
		}
		effect, err := SignedEffect(line, accountType)
		if err != nil {
			return nil, err
		}
		effects[line.AccountID] += effect
	}
	return effects, nil
}
