package ceiling

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/store/memory"
)

func newTestCeilings(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	accounts := chart.DefaultChart()
	for i := range accounts {
		if accounts[i].ID == 2 || accounts[i].ID == 3 {
			accounts[i].GroupID = 1
		}
	}
	return NewService(chart.NewService(accounts, chart.DefaultGroups())), memory.New()
}

func seedBalance(t *testing.T, st *memory.Store, accountID, debit int64) {
	t.Helper()
	_, err := st.AppendLegs(context.Background(), []model.JournalEntry{{
		Date:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		AccountID:   accountID,
		CurrencyID:  1,
		Debit:       decimal.NewFromInt(debit),
		ReferenceID: "TXN-seed",
	}})
	require.NoError(t, err)
}

func putCeiling(t *testing.T, st *memory.Store, c model.AccountCeiling) {
	t.Helper()
	_, err := st.PutCeiling(context.Background(), c)
	require.NoError(t, err)
}

func TestCheckNoCeiling(t *testing.T) {
	svc, st := newTestCeilings(t)

	w, err := svc.Check(context.Background(), st, 2, 1, decimal.NewFromInt(1e9), decimal.Zero)
	require.NoError(t, err)
	assert.Nil(t, w, "no ceiling means no limit")
}

func TestCheckBlockOnDebitSide(t *testing.T) {
	svc, st := newTestCeilings(t)
	seedBalance(t, st, 2, 900)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeAccount, TargetID: 2, CurrencyID: 1,
		Amount: decimal.NewFromInt(1000), Nature: model.NatureDebit, Action: model.ExceedBlock,
	})

	ctx := context.Background()

	// 100 more reaches the ceiling exactly; boundary is allowed.
	w, err := svc.Check(ctx, st, 2, 1, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	assert.Nil(t, w)

	// 101 crosses it.
	_, err = svc.Check(ctx, st, 2, 1, decimal.NewFromInt(101), decimal.Zero)
	assert.ErrorIs(t, err, ErrCeilingExceeded)

	// Credits shrink the debit-side balance and always pass.
	w, err = svc.Check(ctx, st, 2, 1, decimal.Zero, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestCheckCreditNatureCeiling(t *testing.T) {
	svc, st := newTestCeilings(t)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeAccount, TargetID: 2, CurrencyID: 1,
		Amount: decimal.NewFromInt(300), Nature: model.NatureCredit, Action: model.ExceedBlock,
	})

	ctx := context.Background()
	_, err := svc.Check(ctx, st, 2, 1, decimal.Zero, decimal.NewFromInt(301))
	assert.ErrorIs(t, err, ErrCeilingExceeded)

	w, err := svc.Check(ctx, st, 2, 1, decimal.Zero, decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestCheckGroupCeilingAggregates(t *testing.T) {
	svc, st := newTestCeilings(t)
	// Cash box and bank are both in group 1; their balances sum.
	seedBalance(t, st, 2, 600)
	seedBalance(t, st, 3, 300)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeGroup, TargetID: 1, CurrencyID: 1,
		Amount: decimal.NewFromInt(1000), Nature: model.NatureDebit, Action: model.ExceedBlock,
	})

	ctx := context.Background()
	_, err := svc.Check(ctx, st, 2, 1, decimal.NewFromInt(200), decimal.Zero)
	assert.ErrorIs(t, err, ErrCeilingExceeded, "600+300+200 crosses the group limit")

	w, err := svc.Check(ctx, st, 2, 1, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestCheckAccountCeilingOverridesGroup(t *testing.T) {
	svc, st := newTestCeilings(t)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeGroup, TargetID: 1, CurrencyID: 1,
		Amount: decimal.NewFromInt(10), Nature: model.NatureDebit, Action: model.ExceedBlock,
	})
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeAccount, TargetID: 2, CurrencyID: 1,
		Amount: decimal.NewFromInt(5000), Nature: model.NatureDebit, Action: model.ExceedAllow,
	})

	// The account row wins even though the group row would block.
	w, err := svc.Check(context.Background(), st, 2, 1, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestCheckPostingAggregatesGroupDeltas(t *testing.T) {
	svc, st := newTestCeilings(t)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeGroup, TargetID: 1, CurrencyID: 1,
		Amount: decimal.NewFromInt(1000), Nature: model.NatureDebit, Action: model.ExceedBlock,
	})

	ctx := context.Background()

	// 600 on each member individually fits, but the posting lands both at
	// once; the group sees the combined 1200.
	_, err := svc.CheckPosting(ctx, st, []Delta{
		{AccountID: 2, CurrencyID: 1, Debit: decimal.NewFromInt(600)},
		{AccountID: 3, CurrencyID: 1, Debit: decimal.NewFromInt(600)},
	})
	assert.ErrorIs(t, err, ErrCeilingExceeded)

	warnings, err := svc.CheckPosting(ctx, st, []Delta{
		{AccountID: 2, CurrencyID: 1, Debit: decimal.NewFromInt(600)},
		{AccountID: 3, CurrencyID: 1, Debit: decimal.NewFromInt(400)},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings, "1000 exactly is on the boundary")
}

func TestCheckPostingGroupWarnsOnce(t *testing.T) {
	svc, st := newTestCeilings(t)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeGroup, TargetID: 1, CurrencyID: 1,
		Amount: decimal.NewFromInt(1000), Nature: model.NatureDebit, Action: model.ExceedWarn,
	})

	warnings, err := svc.CheckPosting(context.Background(), st, []Delta{
		{AccountID: 2, CurrencyID: 1, Debit: decimal.NewFromInt(600)},
		{AccountID: 3, CurrencyID: 1, Debit: decimal.NewFromInt(600)},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1, "one warning per breached group ceiling")
	assert.Equal(t, model.CeilingScopeGroup, warnings[0].Scope)
	assert.Equal(t, int64(2), warnings[0].AccountID, "attributed to the first posting member")
	assert.True(t, warnings[0].Prospective.Equal(decimal.NewFromInt(1200)))
}

func TestCheckPostingAccountOverrideExemptsFromGroup(t *testing.T) {
	svc, st := newTestCeilings(t)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeGroup, TargetID: 1, CurrencyID: 1,
		Amount: decimal.NewFromInt(1000), Nature: model.NatureDebit, Action: model.ExceedBlock,
	})
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeAccount, TargetID: 2, CurrencyID: 1,
		Amount: decimal.NewFromInt(5000), Nature: model.NatureDebit, Action: model.ExceedAllow,
	})

	// Account 2 answers to its own row; only account 3's delta reaches the
	// group ceiling, and 600 against an empty group balance fits.
	warnings, err := svc.CheckPosting(context.Background(), st, []Delta{
		{AccountID: 2, CurrencyID: 1, Debit: decimal.NewFromInt(600)},
		{AccountID: 3, CurrencyID: 1, Debit: decimal.NewFromInt(600)},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestCheckWarnAndAllow(t *testing.T) {
	svc, st := newTestCeilings(t)
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeAccount, TargetID: 2, CurrencyID: 1,
		Amount: decimal.NewFromInt(100), Nature: model.NatureDebit, Action: model.ExceedWarn,
	})
	putCeiling(t, st, model.AccountCeiling{
		Scope: model.CeilingScopeAccount, TargetID: 3, CurrencyID: 1,
		Amount: decimal.NewFromInt(100), Nature: model.NatureDebit, Action: model.ExceedAllow,
	})

	ctx := context.Background()

	w, err := svc.Check(ctx, st, 2, 1, decimal.NewFromInt(150), decimal.Zero)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.True(t, w.Prospective.Equal(decimal.NewFromInt(150)))
	assert.True(t, w.Ceiling.Equal(decimal.NewFromInt(100)))

	w, err = svc.Check(ctx, st, 3, 1, decimal.NewFromInt(150), decimal.Zero)
	require.NoError(t, err)
	assert.Nil(t, w, "allow rows opt out silently")
}
