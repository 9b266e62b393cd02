package currency

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const currenciesFile = "currencies.csv"

// Load reads the currency table from a data directory and returns a Service.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, currenciesFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening currencies: %w", err)
	}
	defer f.Close()

	currencies, err := ReadCurrencies(f)
	if err != nil {
		return nil, fmt.Errorf("reading currencies: %w", err)
	}
	return NewService(currencies)
}

// Save writes the currency table under dataDir.
func (s *Service) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	currencies := s.All()
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].ID < currencies[j].ID })

	f, err := os.Create(filepath.Join(dataDir, currenciesFile))
	if err != nil {
		return fmt.Errorf("creating currencies file: %w", err)
	}
	defer f.Close()

	if err := WriteCurrencies(f, currencies); err != nil {
		return fmt.Errorf("writing currencies: %w", err)
	}
	return nil
}
