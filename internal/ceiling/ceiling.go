// Package ceiling validates prospective postings against configured credit and
// debit limits on accounts and account groups.
package ceiling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/store"
)

// ErrCeilingExceeded means a posting would push a balance past a blocking
// ceiling. The posting is not written.
var ErrCeilingExceeded = errors.New("ceiling exceeded")

// Warning reports a breached ceiling whose action is warn. The posting is
// accepted; the caller decides how to surface it. For a group-scoped ceiling
// AccountID is the first posting account in the group.
type Warning struct {
	AccountID   int64              `json:"account_id"`
	CurrencyID  int64              `json:"currency_id"`
	Scope       model.CeilingScope `json:"scope"`
	Ceiling     decimal.Decimal    `json:"ceiling"`
	Prospective decimal.Decimal    `json:"prospective"`
}

// Delta is the net effect a posting adds to one account in one currency.
type Delta struct {
	AccountID  int64
	CurrencyID int64
	Debit      decimal.Decimal
	Credit     decimal.Decimal
}

// Service resolves and evaluates ceilings. It only reads: ceilings and
// balances come from the store, group membership from the chart.
type Service struct {
	chart *chart.Service
}

// NewService creates a ceiling Service.
func NewService(c *chart.Service) *Service {
	return &Service{chart: c}
}

// CheckPosting evaluates every applicable ceiling against the posting's
// combined deltas. An account-scoped ceiling sees its own account's delta and
// exempts that account from its group's ceiling. A group-scoped ceiling is
// evaluated once per currency against the summed deltas of the posting
// accounts it governs, so spreading an amount over group members cannot
// sidestep the limit. Balances are read through st so every comparison shares
// the caller's snapshot with the subsequent append.
func (s *Service) CheckPosting(ctx context.Context, st store.Store, deltas []Delta) ([]Warning, error) {
	type groupKey struct {
		groupID    int64
		currencyID int64
	}
	type groupAgg struct {
		ceiling      model.AccountCeiling
		debit        decimal.Decimal
		credit       decimal.Decimal
		firstAccount int64
	}

	var warnings []Warning
	groups := make(map[groupKey]*groupAgg)
	var groupOrder []groupKey

	for _, d := range deltas {
		acct, ok := s.chart.Get(d.AccountID)
		if !ok {
			return nil, fmt.Errorf("%w: id %d", chart.ErrAccountNotFound, d.AccountID)
		}

		c, found, err := st.FindCeiling(ctx, model.CeilingScopeAccount, d.AccountID, d.CurrencyID)
		if err != nil {
			return nil, fmt.Errorf("resolving account ceiling: %w", err)
		}
		if found {
			w, err := s.evaluate(ctx, st, c, []int64{d.AccountID}, d.AccountID, d.CurrencyID, d.Debit, d.Credit)
			if err != nil {
				return nil, err
			}
			if w != nil {
				warnings = append(warnings, *w)
			}
			continue
		}

		if acct.GroupID == 0 {
			continue
		}
		k := groupKey{groupID: acct.GroupID, currencyID: d.CurrencyID}
		agg, seen := groups[k]
		if !seen {
			gc, gfound, err := st.FindCeiling(ctx, model.CeilingScopeGroup, acct.GroupID, d.CurrencyID)
			if err != nil {
				return nil, fmt.Errorf("resolving group ceiling: %w", err)
			}
			if gfound {
				agg = &groupAgg{ceiling: gc, firstAccount: d.AccountID}
				groupOrder = append(groupOrder, k)
			}
			groups[k] = agg // nil marks "no ceiling", looked up once
		}
		if agg == nil {
			continue
		}
		agg.debit = agg.debit.Add(d.Debit)
		agg.credit = agg.credit.Add(d.Credit)
	}

	for _, k := range groupOrder {
		agg := groups[k]
		members, err := s.chart.GroupAccounts(k.groupID)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, len(members))
		for i, m := range members {
			ids[i] = m.ID
		}
		w, err := s.evaluate(ctx, st, agg.ceiling, ids, agg.firstAccount, k.currencyID, agg.debit, agg.credit)
		if err != nil {
			return nil, err
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings, nil
}

// Check evaluates a single account's delta. It is CheckPosting for one delta.
func (s *Service) Check(ctx context.Context, st store.Store, accountID, currencyID int64, debit, credit decimal.Decimal) (*Warning, error) {
	warnings, err := s.CheckPosting(ctx, st, []Delta{{
		AccountID:  accountID,
		CurrencyID: currencyID,
		Debit:      debit,
		Credit:     credit,
	}})
	if err != nil {
		return nil, err
	}
	if len(warnings) == 0 {
		return nil, nil
	}
	return &warnings[0], nil
}

// evaluate compares stored totals over scopeIDs plus the posting's delta
// against one ceiling row.
func (s *Service) evaluate(ctx context.Context, st store.Store, c model.AccountCeiling, scopeIDs []int64, accountID, currencyID int64, debit, credit decimal.Decimal) (*Warning, error) {
	totals, err := st.TotalsForAccounts(ctx, scopeIDs, currencyID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("reading balance for ceiling check: %w", err)
	}

	// The limit constrains one side only: a debit ceiling caps how large the
	// debit-side balance may grow, a credit ceiling the credit-side magnitude.
	var prospective decimal.Decimal
	switch c.Nature {
	case model.NatureDebit:
		prospective = totals.Debit.Add(debit).Sub(totals.Credit.Add(credit))
	case model.NatureCredit:
		prospective = totals.Credit.Add(credit).Sub(totals.Debit.Add(debit))
	default:
		return nil, fmt.Errorf("ceiling %d has unknown nature %q", c.ID, c.Nature)
	}

	if prospective.LessThanOrEqual(c.Amount) {
		return nil, nil
	}

	switch c.Action {
	case model.ExceedBlock:
		return nil, fmt.Errorf("%w: %s %d %s balance would reach %s, ceiling %s",
			ErrCeilingExceeded, c.Scope, c.TargetID, c.Nature, prospective.StringFixed(2), c.Amount.StringFixed(2))
	case model.ExceedWarn:
		return &Warning{
			AccountID:   accountID,
			CurrencyID:  currencyID,
			Scope:       c.Scope,
			Ceiling:     c.Amount,
			Prospective: prospective,
		}, nil
	case model.ExceedAllow:
		return nil, nil
	default:
		return nil, fmt.Errorf("ceiling %d has unknown action %q", c.ID, c.Action)
	}
}
