package model

import "github.com/shopspring/decimal"

// CeilingScope selects what a ceiling row constrains.
type CeilingScope string

const (
	CeilingScopeAccount CeilingScope = "account"
	CeilingScopeGroup   CeilingScope = "group"
)

// ExceedAction controls what happens when a posting would breach a ceiling.
type ExceedAction string

const (
	// ExceedBlock rejects the posting.
	ExceedBlock ExceedAction = "block"
	// ExceedWarn accepts the posting and flags a warning for the caller.
	ExceedWarn ExceedAction = "warn"
	// ExceedAllow accepts silently; the ceiling row is an explicit opt-out.
	ExceedAllow ExceedAction = "allow"
)

// AccountCeiling caps how far one side of an account or group balance may grow
// in a given currency.
type AccountCeiling struct {
	ID         int64
	Scope      CeilingScope
	TargetID   int64 // account or group id, per Scope
	CurrencyID int64
	Amount     decimal.Decimal
	Nature     AccountNature // which balance side the limit applies to
	Action     ExceedAction
}
