package currency

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

const (
	numFields  = 8
	colID      = 0
	colCode    = 1
	colSymbol  = 2
	colName    = 3
	colRate    = 4
	colIsLocal = 5
	colMinRate = 6
	colMaxRate = 7
)

// ReadCurrencies reads currencies.csv.
func ReadCurrencies(r io.Reader) ([]model.Currency, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading currencies CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var currencies []model.Currency
	for i, rec := range records[1:] {
		c, err := UnmarshalCurrency(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		currencies = append(currencies, c)
	}
	return currencies, nil
}

// WriteCurrencies writes currencies.csv.
func WriteCurrencies(w io.Writer, currencies []model.Currency) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"currency_id", "code", "symbol", "name", "exchange_rate", "is_local", "min_rate", "max_rate"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, c := range currencies {
		if err := cw.Write(MarshalCurrency(c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalCurrency converts a Currency to a CSV row.
func MarshalCurrency(c model.Currency) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(c.ID, 10)
	row[colCode] = c.Code
	row[colSymbol] = c.Symbol
	row[colName] = c.Name
	row[colRate] = c.Rate.String()
	row[colIsLocal] = strconv.FormatBool(c.IsLocal)
	if !c.MinRate.IsZero() {
		row[colMinRate] = c.MinRate.String()
	}
	if !c.MaxRate.IsZero() {
		row[colMaxRate] = c.MaxRate.String()
	}
	return row
}

// UnmarshalCurrency converts a CSV row to a Currency.
func UnmarshalCurrency(record []string) (model.Currency, error) {
	if len(record) != numFields {
		return model.Currency{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.ParseInt(record[colID], 10, 64)
	if err != nil {
		return model.Currency{}, fmt.Errorf("parsing currency_id %q: %w", record[colID], err)
	}

	rate, err := decimal.NewFromString(record[colRate])
	if err != nil {
		return model.Currency{}, fmt.Errorf("parsing exchange_rate %q: %w", record[colRate], err)
	}

	isLocal, err := strconv.ParseBool(record[colIsLocal])
	if err != nil {
		return model.Currency{}, fmt.Errorf("parsing is_local %q: %w", record[colIsLocal], err)
	}

	minRate := decimal.Zero
	if record[colMinRate] != "" {
		minRate, err = decimal.NewFromString(record[colMinRate])
		if err != nil {
			return model.Currency{}, fmt.Errorf("parsing min_rate %q: %w", record[colMinRate], err)
		}
	}
	maxRate := decimal.Zero
	if record[colMaxRate] != "" {
		maxRate, err = decimal.NewFromString(record[colMaxRate])
		if err != nil {
			return model.Currency{}, fmt.Errorf("parsing max_rate %q: %w", record[colMaxRate], err)
		}
	}

	return model.Currency{
		ID:      id,
		Code:    record[colCode],
		Symbol:  record[colSymbol],
		Name:    record[colName],
		Rate:    rate,
		IsLocal: isLocal,
		MinRate: minRate,
		MaxRate: maxRate,
	}, nil
}

// DefaultCurrencies returns the starter currency table: a local baseline plus
// the two foreign currencies the exchange screens commonly trade.
func DefaultCurrencies() []model.Currency {
	return []model.Currency{
		{ID: 1, Code: "SYP", Symbol: "ل.س", Name: "Syrian Pound", Rate: decimal.NewFromInt(1), IsLocal: true},
		{ID: 2, Code: "USD", Symbol: "$", Name: "US Dollar", Rate: decimal.NewFromInt(250),
			MinRate: decimal.NewFromInt(200), MaxRate: decimal.NewFromInt(300)},
		{ID: 3, Code: "EUR", Symbol: "€", Name: "Euro", Rate: decimal.NewFromInt(500),
			MinRate: decimal.NewFromInt(400), MaxRate: decimal.NewFromInt(600)},
	}
}
