// Package currency holds the currency table and converts amounts between
// currencies. All rates are expressed relative to the local baseline currency,
// whose own rate is fixed at 1.
package currency

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

var (
	// ErrCurrencyNotFound means the referenced currency id does not exist.
	ErrCurrencyNotFound = errors.New("currency not found")
	// ErrRateOutOfRange means a proposed rate falls outside [min_rate, max_rate].
	ErrRateOutOfRange = errors.New("rate out of range")
	// ErrMultipleLocalCurrencies means a second currency was marked local.
	ErrMultipleLocalCurrencies = errors.New("a local currency already exists")
	// ErrInvalidRate means a rate is zero or negative.
	ErrInvalidRate = errors.New("rate must be positive")
)

var one = decimal.NewFromInt(1)

// Service is an in-memory registry of currencies.
type Service struct {
	mu         sync.RWMutex
	currencies map[int64]model.Currency
	localID    int64 // 0 = none configured
	nextID     int64
}

// NewService creates a Service seeded with the given currencies.
func NewService(currencies []model.Currency) (*Service, error) {
	s := &Service{currencies: make(map[int64]model.Currency, len(currencies))}
	for _, c := range currencies {
		if c.IsLocal {
			if s.localID != 0 {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleLocalCurrencies,
					s.currencies[s.localID].Code, c.Code)
			}
			s.localID = c.ID
			c.Rate = one
		}
		s.currencies[c.ID] = c
		if c.ID > s.nextID {
			s.nextID = c.ID
		}
	}
	return s, nil
}

// Add registers a new currency and returns its id.
func (s *Service) Add(c model.Currency) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.IsLocal {
		if s.localID != 0 {
			return 0, fmt.Errorf("%w: %s", ErrMultipleLocalCurrencies, s.currencies[s.localID].Code)
		}
		c.Rate = one
	} else if !c.Rate.IsPositive() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRate, c.Rate)
	}

	s.nextID++
	c.ID = s.nextID
	s.currencies[c.ID] = c
	if c.IsLocal {
		s.localID = c.ID
	}
	return c.ID, nil
}

// Get returns a currency by id.
func (s *Service) Get(id int64) (model.Currency, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[id]
	return c, ok
}

// All returns every currency, in unspecified order.
func (s *Service) All() []model.Currency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		out = append(out, c)
	}
	return out
}

// Exists reports whether a currency id exists.
func (s *Service) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.currencies[id]
	return ok
}

// Local returns the local baseline currency, if one is configured.
func (s *Service) Local() (model.Currency, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[s.localID]
	return c, ok
}

// Convert translates amount from one currency into another via the local
// baseline: amount * from.rate / to.rate.
func (s *Service) Convert(amount decimal.Decimal, fromID, toID int64) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, ok := s.currencies[fromID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: id %d", ErrCurrencyNotFound, fromID)
	}
	to, ok := s.currencies[toID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: id %d", ErrCurrencyNotFound, toID)
	}
	if !from.Rate.IsPositive() || !to.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s/%s", ErrInvalidRate, from.Code, to.Code)
	}
	return amount.Mul(from.Rate).Div(to.Rate), nil
}

// ValidateRate checks a manually entered rate against the currency's bounds.
func (s *Service) ValidateRate(currencyID int64, proposed decimal.Decimal) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.currencies[currencyID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrCurrencyNotFound, currencyID)
	}
	if !proposed.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidRate, proposed)
	}
	if !c.MinRate.IsZero() && proposed.LessThan(c.MinRate) {
		return fmt.Errorf("%w: %s below minimum %s for %s", ErrRateOutOfRange, proposed, c.MinRate, c.Code)
	}
	if !c.MaxRate.IsZero() && proposed.GreaterThan(c.MaxRate) {
		return fmt.Errorf("%w: %s above maximum %s for %s", ErrRateOutOfRange, proposed, c.MaxRate, c.Code)
	}
	return nil
}

// SetRate updates a currency's exchange rate after bound validation. The
// local currency's rate cannot move off 1.
func (s *Service) SetRate(currencyID int64, rate decimal.Decimal) error {
	if err := s.ValidateRate(currencyID, rate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.currencies[currencyID]
	if c.IsLocal && !rate.Equal(one) {
		return fmt.Errorf("%w: local currency rate is fixed at 1", ErrRateOutOfRange)
	}
	c.Rate = rate
	s.currencies[currencyID] = c
	return nil
}
