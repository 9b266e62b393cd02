package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/store"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func entry(accountID int64, d int, debit, credit int64, ref string) model.JournalEntry {
	return model.JournalEntry{
		Date:        day(d),
		AccountID:   accountID,
		CurrencyID:  1,
		Debit:       decimal.NewFromInt(debit),
		Credit:      decimal.NewFromInt(credit),
		ReferenceID: ref,
	}
}

func TestAppendLegsAssignsIDs(t *testing.T) {
	st := New()
	ctx := context.Background()

	out, err := st.AppendLegs(ctx, []model.JournalEntry{
		entry(2, 1, 100, 0, "TXN-1"),
		entry(3, 1, 0, 100, "TXN-1"),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
	assert.False(t, out[0].CreatedAt.IsZero())
	assert.Equal(t, 2, st.Len())
}

func TestLegsByReference(t *testing.T) {
	st := New()
	ctx := context.Background()

	_, err := st.AppendLegs(ctx, []model.JournalEntry{
		entry(2, 1, 100, 0, "TXN-1"),
		entry(3, 1, 0, 100, "TXN-1"),
		entry(2, 2, 50, 0, "TXN-2"),
	})
	require.NoError(t, err)

	legs, err := st.LegsByReference(ctx, "TXN-1")
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	legs, err = st.LegsByReference(ctx, "TXN-missing")
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestLegsForAccountsOrdering(t *testing.T) {
	st := New()
	ctx := context.Background()

	// Inserted out of date order.
	_, err := st.AppendLegs(ctx, []model.JournalEntry{
		entry(2, 20, 1, 0, "TXN-c"),
		entry(2, 5, 1, 0, "TXN-a"),
		entry(2, 5, 1, 0, "TXN-b"),
		entry(3, 7, 1, 0, "TXN-other"),
	})
	require.NoError(t, err)

	legs, err := st.LegsForAccounts(ctx, []int64{2}, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, legs, 3)
	assert.Equal(t, "TXN-a", legs[0].ReferenceID)
	assert.Equal(t, "TXN-b", legs[1].ReferenceID, "same-date ties break on insertion id")
	assert.Equal(t, "TXN-c", legs[2].ReferenceID)
}

func TestLegsForAccountsRange(t *testing.T) {
	st := New()
	ctx := context.Background()

	_, err := st.AppendLegs(ctx, []model.JournalEntry{
		entry(2, 1, 1, 0, "TXN-before"),
		entry(2, 10, 1, 0, "TXN-in"),
		entry(2, 25, 1, 0, "TXN-after"),
	})
	require.NoError(t, err)

	legs, err := st.LegsForAccounts(ctx, []int64{2}, day(5), day(20))
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, "TXN-in", legs[0].ReferenceID)
}

func TestTotalsForAccountsUntil(t *testing.T) {
	st := New()
	ctx := context.Background()

	usd := entry(2, 3, 999, 0, "TXN-usd")
	usd.CurrencyID = 2
	_, err := st.AppendLegs(ctx, []model.JournalEntry{
		entry(2, 3, 100, 0, "TXN-1"),
		entry(2, 9, 0, 40, "TXN-2"),
		entry(2, 10, 7, 0, "TXN-3"), // on the boundary, excluded
		usd,
	})
	require.NoError(t, err)

	totals, err := st.TotalsForAccounts(ctx, []int64{2}, 1, day(10))
	require.NoError(t, err)
	assert.True(t, totals.Debit.Equal(decimal.NewFromInt(100)), "until is exclusive")
	assert.True(t, totals.Credit.Equal(decimal.NewFromInt(40)))

	// Zero until means all entries.
	totals, err = st.TotalsForAccounts(ctx, []int64{2}, 1, time.Time{})
	require.NoError(t, err)
	assert.True(t, totals.Debit.Equal(decimal.NewFromInt(107)))
}

func TestPutCeilingUpserts(t *testing.T) {
	st := New()
	ctx := context.Background()

	c, err := st.PutCeiling(ctx, model.AccountCeiling{
		Scope:      model.CeilingScopeAccount,
		TargetID:   2,
		CurrencyID: 1,
		Amount:     decimal.NewFromInt(1000),
		Nature:     model.NatureDebit,
		Action:     model.ExceedBlock,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	// Same scope/target/currency replaces in place.
	c2, err := st.PutCeiling(ctx, model.AccountCeiling{
		Scope:      model.CeilingScopeAccount,
		TargetID:   2,
		CurrencyID: 1,
		Amount:     decimal.NewFromInt(2000),
		Nature:     model.NatureDebit,
		Action:     model.ExceedWarn,
	})
	require.NoError(t, err)
	assert.Equal(t, c.ID, c2.ID)

	got, found, err := st.FindCeiling(ctx, model.CeilingScopeAccount, 2, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, model.ExceedWarn, got.Action)

	_, found, err = st.FindCeiling(ctx, model.CeilingScopeGroup, 2, 1)
	require.NoError(t, err)
	assert.False(t, found, "scope is part of the key")
}

func TestAtomicallyHonorsContext(t *testing.T) {
	st := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := st.Atomically(ctx, func(store.Store) error {
		t.Fatal("section must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAtomicallyPassesStore(t *testing.T) {
	st := New()
	ctx := context.Background()

	err := st.Atomically(ctx, func(s store.Store) error {
		_, err := s.AppendLegs(ctx, []model.JournalEntry{entry(2, 1, 5, 0, "TXN-1")})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}
