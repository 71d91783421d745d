package domain

// JournalLine represents a single debit or credit within a journal entry,
// affecting one account. Amounts are integer minor units (cents) so balance
// checks are exact; exactly one of DebitCents/CreditCents is non-zero.
type JournalLine struct {
	LineID      string  `json:"lineID"`
	EntryID     string  `json:"entryID"`
	AccountID   string  `json:"accountID"`
	DebitCents  int64   `json:"debitCents"`
	CreditCents int64   `json:"creditCents"`
	Memo        string  `json:"memo"`
	JobID       *string `json:"jobID,omitempty"` // Optional cost-allocation tag
	AuditFields
}

// IsDebit reports whether the line carries its amount on the debit side.
func (l *JournalLine) IsDebit() bool {
	return l.DebitCents > 0
}

// AmountCents returns the line's single-sided amount in minor units.
func (l *JournalLine) AmountCents() int64 {
	if l.DebitCents > 0 {
		return l.DebitCents
	}
	return l.CreditCents
}

// Negated returns a copy of the line with debit and credit swapped, used when
// building a reversing entry.
func (l JournalLine) Negated() JournalLine {
	l.DebitCents, l.CreditCents = l.CreditCents, l.DebitCents
	return l
}
