package model

// AccountLevel distinguishes aggregation accounts from postable leaf accounts.
type AccountLevel string

const (
	// LevelMain accounts aggregate their descendants; they never carry
	// stored balances and cannot receive postings.
	LevelMain AccountLevel = "main"
	// LevelSub accounts are the postable leaves of the chart.
	LevelSub AccountLevel = "sub"
)

// AccountNature is the natural balance side of an account.
type AccountNature string

const (
	NatureDebit  AccountNature = "debit"
	NatureCredit AccountNature = "credit"
)

// Account is a row in the chart of accounts.
type Account struct {
	ID       int64
	Code     string // unique, sortable; drives tree ordering
	NameAr   string
	NameEn   string
	ParentID int64 // 0 = root
	Level    AccountLevel
	Nature   AccountNature
	GroupID  int64 // 0 = no group
}

// Name returns the display name, preferring the English name.
func (a Account) Name() string {
	if a.NameEn != "" {
		return a.NameEn
	}
	return a.NameAr
}

// Postable reports whether the account may receive journal legs.
func (a Account) Postable() bool {
	return a.Level == LevelSub
}

// AccountGroup is an aggregation axis orthogonal to the parent tree. Ceilings
// and statement filters may target a group instead of a single account.
type AccountGroup struct {
	ID   int64
	Code string
	Name string
}
