package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

var (
	// ErrValidation means a leg is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUnbalancedTransaction means some currency's debits and credits
	// do not net to zero across the leg set.
	ErrUnbalancedTransaction = errors.New("unbalanced transaction")
)

// Violation describes a single invariant breach in a prospective posting.
type Violation struct {
	Invariant   int
	Reference   string
	Description string
	err         error // sentinel: ErrValidation or ErrUnbalancedTransaction
}

func (v Violation) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", v.Invariant, v.Reference, v.Description)
}

func (v Violation) Unwrap() error {
	return v.err
}

// AccountChecker answers structural questions about the chart of accounts.
type AccountChecker interface {
	Exists(id int64) bool
	IsPostable(id int64) bool
}

// CurrencyChecker answers whether a currency id is known.
type CurrencyChecker interface {
	Exists(id int64) bool
}

var hundred = decimal.NewFromInt(100)

// ValidateLegs enforces 7 invariants on a prospective posting:
//
//	1. at least two legs
//	2. every leg carries the same, non-empty reference id and a known type
//	3. exactly one of debit/credit per leg, strictly positive
//	4. amounts have at most 2 decimal places
//	5. every account exists and is postable
//	6. every currency exists; journal date is set
//	7. per currency, sum(debit) == sum(credit)
func ValidateLegs(legs []model.JournalEntry, accounts AccountChecker, currencies CurrencyChecker) []Violation {
	var errs []Violation

	if len(legs) < 2 {
		errs = append(errs, Violation{
			Invariant:   1,
			Description: fmt.Sprintf("posting needs at least two legs, got %d", len(legs)),
			err:         ErrValidation,
		})
		return errs
	}

	ref := legs[0].ReferenceID
	for _, leg := range legs {
		if leg.ReferenceID == "" || leg.ReferenceID != ref {
			errs = append(errs, Violation{
				Invariant:   2,
				Reference:   ref,
				Description: fmt.Sprintf("leg reference %q does not match posting reference %q", leg.ReferenceID, ref),
				err:         ErrValidation,
			})
		}
		if !model.KnownReferenceType(leg.ReferenceType) {
			errs = append(errs, Violation{
				Invariant:   2,
				Reference:   ref,
				Description: fmt.Sprintf("unknown reference type %q", leg.ReferenceType),
				err:         ErrValidation,
			})
		}

		hasDebit := !leg.Debit.IsZero()
		hasCredit := !leg.Credit.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, Violation{
				Invariant:   3,
				Reference:   ref,
				Description: "leg must have exactly one of debit or credit",
				err:         ErrValidation,
			})
		}
		if leg.Debit.IsNegative() || leg.Credit.IsNegative() {
			errs = append(errs, Violation{
				Invariant:   3,
				Reference:   ref,
				Description: "amounts must be positive; corrections are new legs",
				err:         ErrValidation,
			})
		}

		for _, amt := range []decimal.Decimal{leg.Debit, leg.Credit} {
			if !amt.IsZero() && !amt.Mul(hundred).Equal(amt.Mul(hundred).Floor()) {
				errs = append(errs, Violation{
					Invariant:   4,
					Reference:   ref,
					Description: fmt.Sprintf("amount %s has more than 2 decimal places", amt),
					err:         ErrValidation,
				})
			}
		}

		if !accounts.Exists(leg.AccountID) {
			errs = append(errs, Violation{
				Invariant:   5,
				Reference:   ref,
				Description: fmt.Sprintf("unknown account %d", leg.AccountID),
				err:         ErrValidation,
			})
		} else if !accounts.IsPostable(leg.AccountID) {
			errs = append(errs, Violation{
				Invariant:   5,
				Reference:   ref,
				Description: fmt.Sprintf("account %d is a main account and cannot take legs", leg.AccountID),
				err:         ErrValidation,
			})
		}

		if !currencies.Exists(leg.CurrencyID) {
			errs = append(errs, Violation{
				Invariant:   6,
				Reference:   ref,
				Description: fmt.Sprintf("unknown currency %d", leg.CurrencyID),
				err:         ErrValidation,
			})
		}
		if leg.Date.IsZero() {
			errs = append(errs, Violation{
				Invariant:   6,
				Reference:   ref,
				Description: "journal date is required",
				err:         ErrValidation,
			})
		}
	}

	// Per-currency zero sum. A currency exchange is two balanced
	// sub-transactions through a transit account, so each currency still
	// nets to zero on its own.
	debits := make(map[int64]decimal.Decimal)
	credits := make(map[int64]decimal.Decimal)
	var currencyOrder []int64
	for _, leg := range legs {
		if _, seen := debits[leg.CurrencyID]; !seen {
			currencyOrder = append(currencyOrder, leg.CurrencyID)
		}
		debits[leg.CurrencyID] = debits[leg.CurrencyID].Add(leg.Debit)
		credits[leg.CurrencyID] = credits[leg.CurrencyID].Add(leg.Credit)
	}
	for _, cur := range currencyOrder {
		if !debits[cur].Equal(credits[cur]) {
			errs = append(errs, Violation{
				Invariant: 7,
				Reference: ref,
				Description: fmt.Sprintf("currency %d: debits (%s) != credits (%s)",
					cur, debits[cur].StringFixed(2), credits[cur].StringFixed(2)),
				err: ErrUnbalancedTransaction,
			})
		}
	}

	return errs
}
