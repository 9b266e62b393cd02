package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

func TestNewService(t *testing.T) {
	accounts := DefaultChart()
	svc := NewService(accounts, DefaultGroups())

	assert.Len(t, svc.All(), len(accounts))
	assert.Len(t, svc.Groups(), 2)
}

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	acct, ok := svc.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "Cash Box", acct.Name())

	_, ok = svc.Get(9999)
	assert.False(t, ok)

	assert.True(t, svc.Exists(2))
	assert.False(t, svc.Exists(9999))
}

func TestIsPostable(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	assert.True(t, svc.IsPostable(2), "Cash Box is a sub account")
	assert.False(t, svc.IsPostable(1), "Assets is a main account")
	assert.False(t, svc.IsPostable(9999))
}

func TestCreateSubAccount(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	accountID, err := svc.Create(CreateParams{
		NameEn:   "Petty Cash",
		ParentID: 1,
		Level:    model.LevelSub,
		Nature:   model.NatureDebit,
	})
	require.NoError(t, err)

	acct, ok := svc.Get(accountID)
	require.True(t, ok)
	assert.Equal(t, "Petty Cash", acct.NameEn)
	assert.Equal(t, int64(1), acct.ParentID)
	assert.True(t, acct.Postable())
	assert.NotEmpty(t, acct.Code)
}

func TestCreateSubRequiresParent(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	_, err := svc.Create(CreateParams{
		NameEn: "Orphan",
		Level:  model.LevelSub,
		Nature: model.NatureDebit,
	})
	assert.ErrorIs(t, err, ErrInvalidLevelCombination)
}

func TestCreateUnderSubAccountRejected(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	// Account 2 (Cash Box) is a sub account; nothing may nest under it.
	_, err := svc.Create(CreateParams{
		NameEn:   "Nested",
		ParentID: 2,
		Level:    model.LevelSub,
		Nature:   model.NatureDebit,
	})
	assert.ErrorIs(t, err, ErrInvalidLevelCombination)
}

func TestCreateMissingParent(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	_, err := svc.Create(CreateParams{
		NameEn:   "Ghost Child",
		ParentID: 9999,
		Level:    model.LevelSub,
		Nature:   model.NatureDebit,
	})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	_, err := svc.Create(CreateParams{
		NameEn:   "Copycat",
		Code:     "101", // taken by Cash Box
		ParentID: 1,
		Level:    model.LevelSub,
		Nature:   model.NatureDebit,
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestGeneratedCodesExtendParent(t *testing.T) {
	svc := NewService(nil, nil)

	rootID, err := svc.Create(CreateParams{NameEn: "Assets", Level: model.LevelMain, Nature: model.NatureDebit})
	require.NoError(t, err)
	root, _ := svc.Get(rootID)
	assert.Equal(t, "1", root.Code)

	childID, err := svc.Create(CreateParams{NameEn: "Cash", ParentID: rootID, Level: model.LevelSub, Nature: model.NatureDebit})
	require.NoError(t, err)
	child, _ := svc.Get(childID)
	assert.Equal(t, "101", child.Code)

	secondID, err := svc.Create(CreateParams{NameEn: "Bank", ParentID: rootID, Level: model.LevelSub, Nature: model.NatureDebit})
	require.NoError(t, err)
	second, _ := svc.Get(secondID)
	assert.Equal(t, "102", second.Code)
}

func TestReparent(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	// Move Delivery Expenses (14) from Expenses (12) to Assets (1).
	require.NoError(t, svc.Reparent(14, 1))
	acct, _ := svc.Get(14)
	assert.Equal(t, int64(1), acct.ParentID)
}

func TestReparentCycle(t *testing.T) {
	svc := NewService(nil, nil)

	topID, err := svc.Create(CreateParams{NameEn: "Top", Level: model.LevelMain, Nature: model.NatureDebit})
	require.NoError(t, err)
	midID, err := svc.Create(CreateParams{NameEn: "Mid", ParentID: topID, Level: model.LevelMain, Nature: model.NatureDebit})
	require.NoError(t, err)

	err = svc.Reparent(topID, midID)
	assert.ErrorIs(t, err, ErrCycleDetected)

	// Self-parenting is the degenerate cycle.
	err = svc.Reparent(topID, topID)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestReparentToNonMainRejected(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	err := svc.Reparent(14, 2) // Cash Box is a sub account
	assert.ErrorIs(t, err, ErrInvalidLevelCombination)
}

func TestRename(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	require.NoError(t, svc.Rename(2, "", "Main Till"))
	acct, _ := svc.Get(2)
	assert.Equal(t, "Main Till", acct.Name())

	assert.ErrorIs(t, svc.Rename(9999, "", "Nobody"), ErrAccountNotFound)
	assert.Error(t, svc.Rename(2, "", ""))
}

func TestSubAccountsOf(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	subs, err := svc.SubAccountsOf(1) // Assets
	require.NoError(t, err)

	ids := make([]int64, len(subs))
	for i, a := range subs {
		ids[i] = a.ID
		assert.True(t, a.Postable())
	}
	assert.Equal(t, []int64{2, 3, 5}, ids, "postable descendants sorted by code")
}

func TestSubAccountsOfSubAccount(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	subs, err := svc.SubAccountsOf(2)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(2), subs[0].ID)
}

func TestSubAccountsOfMissing(t *testing.T) {
	svc := NewService(DefaultChart(), nil)

	_, err := svc.SubAccountsOf(9999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGroupAccounts(t *testing.T) {
	accounts := DefaultChart()
	// Put Cash Box and Bank into group 1.
	for i := range accounts {
		if accounts[i].ID == 2 || accounts[i].ID == 3 {
			accounts[i].GroupID = 1
		}
	}
	svc := NewService(accounts, DefaultGroups())

	members, err := svc.GroupAccounts(1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(2), members[0].ID)
	assert.Equal(t, int64(3), members[1].ID)

	_, err = svc.GroupAccounts(9999)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestCreateGroup(t *testing.T) {
	svc := NewService(nil, nil)

	groupID, err := svc.CreateGroup("G1", "Cash Desks")
	require.NoError(t, err)

	g, ok := svc.Group(groupID)
	require.True(t, ok)
	assert.Equal(t, "Cash Desks", g.Name)

	_, err = svc.CreateGroup("G2", "")
	assert.Error(t, err)
}

func TestBuildTree(t *testing.T) {
	roots := BuildTree(DefaultChart())

	require.Len(t, roots, 5)
	assert.Equal(t, "Assets", roots[0].Name())
	require.Len(t, roots[0].Children, 4)
	assert.Equal(t, "Cash Box", roots[0].Children[0].Name())

	// Input order must not matter.
	accounts := DefaultChart()
	for i, j := 0, len(accounts)-1; i < j; i, j = i+1, j-1 {
		accounts[i], accounts[j] = accounts[j], accounts[i]
	}
	again := BuildTree(accounts)
	require.Len(t, again, 5)
	assert.Equal(t, roots[0].ID, again[0].ID)
}

func TestBuildTreeMissingParentBecomesRoot(t *testing.T) {
	roots := BuildTree([]model.Account{
		{ID: 7, Code: "9", NameEn: "Stranded", ParentID: 42, Level: model.LevelSub, Nature: model.NatureDebit},
	})
	require.Len(t, roots, 1)
	assert.Equal(t, int64(7), roots[0].ID)
}
