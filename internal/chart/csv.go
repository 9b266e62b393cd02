package chart

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

const (
	numFields  = 8
	colID      = 0
	colCode    = 1
	colNameAr  = 2
	colNameEn  = 3
	colParent  = 4
	colLevel   = 5
	colNature  = 6
	colGroupID = 7
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"account_id", "code", "name_ar", "name_en", "parent_id", "account_level", "nature", "group_id"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(acct.ID, 10)
	row[colCode] = acct.Code
	row[colNameAr] = acct.NameAr
	row[colNameEn] = acct.NameEn
	if acct.ParentID != 0 {
		row[colParent] = strconv.FormatInt(acct.ParentID, 10)
	}
	row[colLevel] = string(acct.Level)
	row[colNature] = string(acct.Nature)
	if acct.GroupID != 0 {
		row[colGroupID] = strconv.FormatInt(acct.GroupID, 10)
	}
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.ParseInt(record[colID], 10, 64)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
	}

	var parentID int64
	if record[colParent] != "" {
		parentID, err = strconv.ParseInt(record[colParent], 10, 64)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing parent_id %q: %w", record[colParent], err)
		}
	}

	var groupID int64
	if record[colGroupID] != "" {
		groupID, err = strconv.ParseInt(record[colGroupID], 10, 64)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing group_id %q: %w", record[colGroupID], err)
		}
	}

	return model.Account{
		ID:       id,
		Code:     record[colCode],
		NameAr:   record[colNameAr],
		NameEn:   record[colNameEn],
		ParentID: parentID,
		Level:    model.AccountLevel(record[colLevel]),
		Nature:   model.AccountNature(record[colNature]),
		GroupID:  groupID,
	}, nil
}
