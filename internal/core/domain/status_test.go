package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewledger/ledger_backend/internal/core/domain"
)

func TestEntryStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   domain.EntryStatus
		to     domain.EntryStatus
		want   bool
	}{
		{name: "draft to posted", from: domain.Draft, to: domain.Posted, want: true},
		{name: "posted to void", from: domain.Posted, to: domain.Void, want: true},
		{name: "draft to void", from: domain.Draft, to: domain.Void, want: false},
		{name: "posted to draft", from: domain.Posted, to: domain.Draft, want: false},
		{name: "void to posted", from: domain.Void, to: domain.Posted, want: false},
		{name: "void to draft", from: domain.Void, to: domain.Draft, want: false},
		{name: "draft to draft", from: domain.Draft, to: domain.Draft, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEntryStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.Draft.IsTerminal())
	assert.False(t, domain.Posted.IsTerminal())
	assert.True(t, domain.Void.IsTerminal())
}

func TestReversalPolicyFor(t *testing.T) {
	tests := []struct {
		sourceType domain.SourceType
		want       domain.ReversalPolicy
	}{
		{sourceType: domain.SourceManual, want: domain.ReverseInPlace},
		{sourceType: domain.SourceAdjustment, want: domain.ReverseInPlace},
		{sourceType: domain.SourceBillPayment, want: domain.ReversingEntry},
		{sourceType: domain.SourceInvoice, want: domain.ReversingEntry},
		{sourceType: domain.SourceClosing, want: domain.ReversingEntry},
	}

	for _, tt := range tests {
		t.Run(string(tt.sourceType), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ReversalPolicyFor(tt.sourceType))
		})
	}
}

func TestSourceType_IsValid(t *testing.T) {
	assert.True(t, domain.SourceManual.IsValid())
	assert.True(t, domain.SourceClosing.IsValid())
	assert.False(t, domain.SourceType("PAYROLL").IsValid())
	assert.False(t, domain.SourceType("").IsValid())
}

func TestJournalEntry_IsEditable(t *testing.T) {
	draft := domain.JournalEntry{Status: domain.Draft}
	posted := domain.JournalEntry{Status: domain.Posted}
	void := domain.JournalEntry{Status: domain.Void}

	assert.True(t, draft.IsEditable())
	assert.False(t, posted.IsEditable())
	assert.False(t, void.IsEditable())
}
