package chart

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

const (
	accountsFile = "chart-of-accounts.csv"
	groupsFile   = "groups.csv"
)

// Load reads the chart of accounts and groups from a data directory and
// returns a Service. A missing groups file is treated as no groups.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, "accounts", accountsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accounts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}

	var groups []model.AccountGroup
	gf, err := os.Open(filepath.Join(dataDir, "accounts", groupsFile))
	if err == nil {
		defer gf.Close()
		groups, err = ReadGroups(gf)
		if err != nil {
			return nil, fmt.Errorf("reading account groups: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening account groups: %w", err)
	}

	return NewService(accounts, groups), nil
}

// Save writes the chart of accounts and groups under dataDir/accounts.
func (s *Service) Save(dataDir string) error {
	dir := filepath.Join(dataDir, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	accounts := s.All()
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })

	f, err := os.Create(filepath.Join(dir, accountsFile))
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()
	if err := WriteAccounts(f, accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	groups := s.Groups()
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	gf, err := os.Create(filepath.Join(dir, groupsFile))
	if err != nil {
		return fmt.Errorf("creating groups file: %w", err)
	}
	defer gf.Close()
	if err := WriteGroups(gf, groups); err != nil {
		return fmt.Errorf("writing account groups: %w", err)
	}
	return nil
}

// ReadGroups reads groups.csv.
func ReadGroups(r io.Reader) ([]model.AccountGroup, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading groups CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var groups []model.AccountGroup
	for i, rec := range records[1:] {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing group_id %q: %w", i+2, rec[0], err)
		}
		groups = append(groups, model.AccountGroup{ID: id, Code: rec[1], Name: rec[2]})
	}
	return groups, nil
}

// WriteGroups writes groups.csv.
func WriteGroups(w io.Writer, groups []model.AccountGroup) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"group_id", "code", "name"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, g := range groups {
		if err := cw.Write([]string{strconv.FormatInt(g.ID, 10), g.Code, g.Name}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}
