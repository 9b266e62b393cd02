// Package ledger owns journal entry creation: balanced multi-leg postings,
// reversals, and read access for statement generation. The ledger is
// append-only; history is never edited or deleted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ledgerline-dev/ledgerline/internal/ceiling"
	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/currency"
	"github.com/ledgerline-dev/ledgerline/internal/id"
	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/store"
)

// ErrReferenceNotFound means no legs exist for the given reference id.
var ErrReferenceNotFound = errors.New("reference not found")

// ErrConcurrentModification means a concurrent posting won the balance
// snapshot race; the whole check-and-post is safe to retry.
var ErrConcurrentModification = store.ErrConflict

// Service provides ledger business logic over a Store.
type Service struct {
	store      store.Store
	chart      *chart.Service
	currencies *currency.Service
	ceilings   *ceiling.Service
	logger     *slog.Logger
}

// NewService creates a ledger Service.
func NewService(st store.Store, ch *chart.Service, cur *currency.Service, ce *ceiling.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, chart: ch, currencies: cur, ceilings: ce, logger: logger}
}

// PostResult is the outcome of an accepted posting.
type PostResult struct {
	Legs     []model.JournalEntry
	Warnings []ceiling.Warning // breached warn-ceilings; posting accepted
}

// Post validates and appends a balanced multi-leg posting. The ceiling check
// and the append run inside one atomic section against the same balance
// snapshot; rejection leaves the ledger unchanged.
func (s *Service) Post(ctx context.Context, legs []model.JournalEntry) (*PostResult, error) {
	if verrs := ValidateLegs(legs, s.chart, s.currencies); len(verrs) > 0 {
		joined := make([]error, len(verrs))
		for i, v := range verrs {
			joined[i] = v
		}
		return nil, errors.Join(joined...)
	}

	// Aggregate the posting's effect per account and currency, in a
	// deterministic order. Ceilings see the combined deltas, so a posting
	// cannot slip past a limit by splitting an amount across legs.
	index := make(map[[2]int64]int)
	var deltas []ceiling.Delta
	for _, leg := range legs {
		k := [2]int64{leg.AccountID, leg.CurrencyID}
		i, ok := index[k]
		if !ok {
			i = len(deltas)
			index[k] = i
			deltas = append(deltas, ceiling.Delta{AccountID: leg.AccountID, CurrencyID: leg.CurrencyID})
		}
		deltas[i].Debit = deltas[i].Debit.Add(leg.Debit)
		deltas[i].Credit = deltas[i].Credit.Add(leg.Credit)
	}
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].AccountID != deltas[j].AccountID {
			return deltas[i].AccountID < deltas[j].AccountID
		}
		return deltas[i].CurrencyID < deltas[j].CurrencyID
	})

	res := &PostResult{}
	err := s.store.Atomically(ctx, func(st store.Store) error {
		warnings, err := s.ceilings.CheckPosting(ctx, st, deltas)
		if err != nil {
			return err
		}
		res.Warnings = warnings

		appended, err := st.AppendLegs(ctx, legs)
		if err != nil {
			return fmt.Errorf("appending legs: %w", err)
		}
		res.Legs = appended
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("posting accepted",
		slog.String("reference", legs[0].ReferenceID),
		slog.Int("legs", len(res.Legs)),
		slog.Int("warnings", len(res.Warnings)))
	return res, nil
}

// Reverse appends a mirrored copy of every leg under the given reference,
// with debit and credit swapped, sharing a new reference id that points back
// to the original. The original legs are untouched.
//
// Reversals bypass ceiling checks: they shrink the side a ceiling constrains
// back toward its pre-transaction value.
func (s *Service) Reverse(ctx context.Context, referenceID, createdBy string) ([]model.JournalEntry, error) {
	var reversed []model.JournalEntry
	err := s.store.Atomically(ctx, func(st store.Store) error {
		originals, err := st.LegsByReference(ctx, referenceID)
		if err != nil {
			return fmt.Errorf("loading legs for %q: %w", referenceID, err)
		}
		if len(originals) == 0 {
			return fmt.Errorf("%w: %q", ErrReferenceNotFound, referenceID)
		}

		revRef := id.ReversalReference(referenceID)
		mirrored := make([]model.JournalEntry, len(originals))
		for i, leg := range originals {
			mirrored[i] = model.JournalEntry{
				Date:          leg.Date,
				AccountID:     leg.AccountID,
				CurrencyID:    leg.CurrencyID,
				Debit:         leg.Credit,
				Credit:        leg.Debit,
				ReferenceType: leg.ReferenceType,
				ReferenceID:   revRef,
				Notes:         fmt.Sprintf("reversal of %s", referenceID),
				BranchID:      leg.BranchID,
				CreatedBy:     createdBy,
			}
		}

		reversed, err = st.AppendLegs(ctx, mirrored)
		if err != nil {
			return fmt.Errorf("appending reversal legs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("posting reversed",
		slog.String("reference", referenceID),
		slog.Int("legs", len(reversed)))
	return reversed, nil
}

// EntriesFor returns legs for the accounts ordered by journal date then
// insertion order. Zero bounds are open.
func (s *Service) EntriesFor(ctx context.Context, accountIDs []int64, from, to time.Time) ([]model.JournalEntry, error) {
	return s.store.LegsForAccounts(ctx, accountIDs, from, to)
}

// SetCeiling configures (or replaces) a ceiling row.
func (s *Service) SetCeiling(ctx context.Context, c model.AccountCeiling) (model.AccountCeiling, error) {
	switch c.Scope {
	case model.CeilingScopeAccount:
		if !s.chart.Exists(c.TargetID) {
			return model.AccountCeiling{}, fmt.Errorf("%w: id %d", chart.ErrAccountNotFound, c.TargetID)
		}
	case model.CeilingScopeGroup:
		if _, ok := s.chart.Group(c.TargetID); !ok {
			return model.AccountCeiling{}, fmt.Errorf("%w: id %d", chart.ErrGroupNotFound, c.TargetID)
		}
	default:
		return model.AccountCeiling{}, fmt.Errorf("%w: unknown ceiling scope %q", ErrValidation, c.Scope)
	}
	if !s.currencies.Exists(c.CurrencyID) {
		return model.AccountCeiling{}, fmt.Errorf("%w: unknown currency %d", ErrValidation, c.CurrencyID)
	}
	return s.store.PutCeiling(ctx, c)
}
