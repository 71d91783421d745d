package domain

// entryTransitions is the closed transition table for the entry lifecycle.
// Draft may be edited or deleted without a transition; VOID is terminal.
var entryTransitions = map[EntryStatus][]EntryStatus{
	Draft:  {Posted},
	Posted: {Void},
	Void:   {},
}

// CanTransitionTo reports whether the lifecycle permits moving from the
// receiver status to the target status.
func (s EntryStatus) CanTransitionTo(target EntryStatus) bool {
	for _, next := range entryTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from this status.
func (s EntryStatus) IsTerminal() bool {
	return len(entryTransitions[s]) == 0
}

// ReversalPolicy controls how a posted entry is voided.
type ReversalPolicy string

const (
	// ReverseInPlace flips the entry to VOID and backs its effects out of the
	// touched account balances in the same transaction.
	ReverseInPlace ReversalPolicy = "REVERSE_IN_PLACE"
	// ReversingEntry posts a new entry whose lines are the exact negation of
	// the original, then flips the original to VOID. The pair stays queryable
	// for audit.
	ReversingEntry ReversalPolicy = "REVERSING_ENTRY"
)

// ReversalPolicyFor returns the void policy for a source type. Manual and
// adjustment entries reverse in place; system-generated entries from bills,
// invoices and period closing always produce a reversing entry so the audit
// trail of the originating document is preserved.
func ReversalPolicyFor(sourceType SourceType) ReversalPolicy {
	switch sourceType {
	case SourceManual, SourceAdjustment:
		return ReverseInPlace
	default:
		return ReversingEntry
	}
}
