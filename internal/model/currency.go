package model

import "github.com/shopspring/decimal"

// Currency is a currency known to the ledger. Rates are expressed relative to
// the local baseline currency, whose own rate is fixed at 1.
type Currency struct {
	ID      int64
	Code    string // e.g. "USD"
	Symbol  string // e.g. "$"
	Name    string
	Rate    decimal.Decimal
	IsLocal bool
	MinRate decimal.Decimal // zero = no lower bound
	MaxRate decimal.Decimal // zero = no upper bound
}
