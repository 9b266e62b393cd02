package chart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	svc := NewService(DefaultChart(), DefaultGroups())

	dir := t.TempDir()
	require.NoError(t, svc.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, loaded.All(), len(DefaultChart()))
	assert.Len(t, loaded.Groups(), 2)

	acct, ok := loaded.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Cash Box", acct.NameEn)
	assert.Equal(t, "الصندوق", acct.NameAr)
	assert.Equal(t, "101", acct.Code)
}

func TestLoadMissingGroupsFile(t *testing.T) {
	svc := NewService(DefaultChart(), DefaultGroups())

	dir := t.TempDir()
	require.NoError(t, svc.Save(dir))
	require.NoError(t, os.Remove(filepath.Join(dir, "accounts", groupsFile)))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, loaded.All(), len(DefaultChart()))
	assert.Empty(t, loaded.Groups())
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestReadAccountsBadRow(t *testing.T) {
	csv := "account_id,code,name_ar,name_en,parent_id,account_level,nature,group_id\n" +
		"abc,1,,Assets,0,main,debit,0\n"
	_, err := ReadAccounts(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestReadGroups(t *testing.T) {
	csv := "group_id,code,name\n1,G1,Cash Desks\n2,G2,Branches\n"
	groups, err := ReadGroups(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Cash Desks", groups[0].Name)
	assert.Equal(t, "G2", groups[1].Code)
}
