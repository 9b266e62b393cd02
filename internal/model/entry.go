package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceType tags the voucher kind that produced a set of legs.
type ReferenceType string

const (
	RefOrder    ReferenceType = "order"
	RefJournal  ReferenceType = "journal"
	RefPayment  ReferenceType = "payment"
	RefReceipt  ReferenceType = "receipt"
	RefOpening  ReferenceType = "opening"
	RefExchange ReferenceType = "exchange"
)

// KnownReferenceType reports whether t is one of the closed set of voucher tags.
func KnownReferenceType(t ReferenceType) bool {
	switch t {
	case RefOrder, RefJournal, RefPayment, RefReceipt, RefOpening, RefExchange:
		return true
	}
	return false
}

// JournalEntry is one leg of a balanced posting. The ledger is append-only:
// entries are never edited or deleted, corrections are new legs.
type JournalEntry struct {
	ID            int64 // store-assigned, monotonic
	Date          time.Time
	AccountID     int64
	CurrencyID    int64
	Debit         decimal.Decimal // zero if credit side
	Credit        decimal.Decimal // zero if debit side
	ReferenceType ReferenceType
	ReferenceID   string // shared by all legs of a posting
	Notes         string
	BranchID      int64
	CreatedBy     string
	CreatedAt     time.Time
}

// Amount returns the leg's value regardless of side.
func (e JournalEntry) Amount() decimal.Decimal {
	if !e.Debit.IsZero() {
		return e.Debit
	}
	return e.Credit
}
