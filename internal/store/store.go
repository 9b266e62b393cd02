// Package store defines persistence for the ledger's mutable state: journal
// entries (append-only) and account ceilings. Two implementations exist, an
// in-memory store for tests and single-process use, and a Postgres store.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

var (
	// ErrConflict means a concurrent check-and-post lost a serialization
	// race. The whole operation is safe to retry.
	ErrConflict = errors.New("concurrent modification")
	// ErrNotFound means no rows matched the query.
	ErrNotFound = errors.New("not found")
)

// Totals is the debit/credit sum over a set of legs.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Store persists journal entries and ceilings.
//
// AppendLegs writes all legs or none; once written, legs are immutable.
// Readers never observe a partially appended set.
type Store interface {
	// AppendLegs assigns ids and created timestamps and persists the legs
	// as one unit. The returned slice carries the assigned ids.
	AppendLegs(ctx context.Context, legs []model.JournalEntry) ([]model.JournalEntry, error)

	// LegsByReference returns every leg sharing a reference id, in
	// insertion order.
	LegsByReference(ctx context.Context, referenceID string) ([]model.JournalEntry, error)

	// LegsForAccounts returns legs for the accounts, ordered by journal
	// date then id. Zero from/to bounds are open.
	LegsForAccounts(ctx context.Context, accountIDs []int64, from, to time.Time) ([]model.JournalEntry, error)

	// TotalsForAccounts sums debit and credit over the accounts in one
	// currency, counting legs strictly before until (zero = all legs).
	TotalsForAccounts(ctx context.Context, accountIDs []int64, currencyID int64, until time.Time) (Totals, error)

	// PutCeiling inserts or replaces a ceiling row and returns it with an id.
	PutCeiling(ctx context.Context, c model.AccountCeiling) (model.AccountCeiling, error)

	// FindCeiling returns the ceiling configured for a scope/target/currency
	// combination, if any.
	FindCeiling(ctx context.Context, scope model.CeilingScope, targetID, currencyID int64) (model.AccountCeiling, bool, error)

	// Atomically runs fn so that every read and write inside it sees one
	// consistent balance snapshot. Two concurrent atomic sections cannot
	// both read a pre-breach balance and both append; the loser gets
	// ErrConflict and may retry.
	Atomically(ctx context.Context, fn func(Store) error) error
}
