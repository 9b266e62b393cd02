// Package memory implements store.Store with mutex-guarded slices. It backs
// tests and the single-process memory driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/store"
)

// Store keeps all ledger state in process memory.
type Store struct {
	mu       sync.RWMutex
	postMu   sync.Mutex // serializes Atomically sections
	entries  []model.JournalEntry
	ceilings []model.AccountCeiling
	nextID   int64
	nextCeil int64
	now      func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{now: time.Now}
}

// Len returns the number of stored legs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// AppendLegs persists all legs under one write lock, so readers never see a
// partial set.
func (s *Store) AppendLegs(ctx context.Context, legs []model.JournalEntry) ([]model.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.JournalEntry, len(legs))
	now := s.now()
	for i, leg := range legs {
		s.nextID++
		leg.ID = s.nextID
		leg.CreatedAt = now
		out[i] = leg
	}
	s.entries = append(s.entries, out...)
	return out, nil
}

// LegsByReference returns legs sharing a reference id in insertion order.
func (s *Store) LegsByReference(ctx context.Context, referenceID string) ([]model.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.JournalEntry
	for _, e := range s.entries {
		if e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

// LegsForAccounts returns legs for the accounts ordered by date then id.
func (s *Store) LegsForAccounts(ctx context.Context, accountIDs []int64, from, to time.Time) ([]model.JournalEntry, error) {
	wanted := make(map[int64]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	var out []model.JournalEntry
	for _, e := range s.entries {
		if !wanted[e.AccountID] {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// TotalsForAccounts sums debit/credit in one currency strictly before until.
func (s *Store) TotalsForAccounts(ctx context.Context, accountIDs []int64, currencyID int64, until time.Time) (store.Totals, error) {
	wanted := make(map[int64]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var t store.Totals
	for _, e := range s.entries {
		if !wanted[e.AccountID] || e.CurrencyID != currencyID {
			continue
		}
		if !until.IsZero() && !e.Date.Before(until) {
			continue
		}
		t.Debit = t.Debit.Add(e.Debit)
		t.Credit = t.Credit.Add(e.Credit)
	}
	return t, nil
}

// PutCeiling inserts or replaces the ceiling for a scope/target/currency.
func (s *Store) PutCeiling(ctx context.Context, c model.AccountCeiling) (model.AccountCeiling, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.ceilings {
		if existing.Scope == c.Scope && existing.TargetID == c.TargetID && existing.CurrencyID == c.CurrencyID {
			c.ID = existing.ID
			s.ceilings[i] = c
			return c, nil
		}
	}
	s.nextCeil++
	c.ID = s.nextCeil
	s.ceilings = append(s.ceilings, c)
	return c, nil
}

// FindCeiling returns the ceiling for a scope/target/currency, if configured.
func (s *Store) FindCeiling(ctx context.Context, scope model.CeilingScope, targetID, currencyID int64) (model.AccountCeiling, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.ceilings {
		if c.Scope == scope && c.TargetID == targetID && c.CurrencyID == currencyID {
			return c, true, nil
		}
	}
	return model.AccountCeiling{}, false, nil
}

// Atomically serializes check-and-post sections behind a single mutex. The
// section sees a stable snapshot because no other section can append until it
// returns.
func (s *Store) Atomically(ctx context.Context, fn func(store.Store) error) error {
	s.postMu.Lock()
	defer s.postMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("atomic section: %w", err)
	}
	return fn(s)
}

var _ store.Store = (*Store)(nil)
