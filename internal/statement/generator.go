// Package statement computes account statements: opening balances carried in
// from prior entries, running balances per entry, and per-currency summaries.
// It only reads from the ledger store, the chart, and the currency table.
package statement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/currency"
	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/store"
)

// ErrInvalidFilter means the statement filter is malformed. It is a distinct
// error so "no transactions" and "bad filter" are never confusable.
var ErrInvalidFilter = errors.New("invalid statement filter")

// Mode selects the report shape.
type Mode string

const (
	ModeSummary  Mode = "summary"
	ModeDetailed Mode = "detailed"
)

// DetailedType tunes the detailed report.
type DetailedType string

const (
	// DetailedWithOpen carries the opening balance in as a pseudo-row.
	DetailedWithOpen DetailedType = "with_open"
	// DetailedNoOpen treats the opening balance as zero and excludes it
	// from totals.
	DetailedNoOpen DetailedType = "no_open"
)

// SummaryType selects which summary columns are rendered. Totals are computed
// the same way for every variant.
type SummaryType string

const (
	SummaryLocalOnly           SummaryType = "local_only"
	SummaryWithMovement        SummaryType = "with_movement"
	SummaryWithCounter         SummaryType = "with_counter"
	SummaryWithCounterMovement SummaryType = "with_counter_movement"
	SummaryFinalOnly           SummaryType = "final_only"
)

// Filter selects what a statement covers. Exactly one of AccountID and
// GroupID must be set; a main account id expands to its sub accounts.
type Filter struct {
	AccountID    int64
	GroupID      int64
	CurrencyID   int64 // 0 = every currency, grouped
	From         time.Time
	To           time.Time
	Mode         Mode
	SummaryType  SummaryType  // summary mode; empty = with_counter_movement
	DetailedType DetailedType // detailed mode; empty = with_open
}

// Row is one line of a detailed statement. The opening balance appears as a
// synthetic row flagged IsOpening; it is never a stored entry, and consumers
// must branch on the flag, not on display strings.
type Row struct {
	Date          time.Time           `json:"journal_date"`
	AccountID     int64               `json:"account_id"`
	AccountName   string              `json:"account_name"`
	Debit         decimal.Decimal     `json:"debit"`
	Credit        decimal.Decimal     `json:"credit"`
	Balance       decimal.Decimal     `json:"balance"`
	Notes         string              `json:"notes"`
	ReferenceType model.ReferenceType `json:"reference_type"`
	ReferenceID   string              `json:"reference_id"`
	CurrencyName  string              `json:"currency_name"`
	IsOpening     bool                `json:"is_opening"`
}

// SummaryRow aggregates one account within one currency.
type SummaryRow struct {
	AccountID       int64           `json:"account_id"`
	AccountName     string          `json:"account_name"`
	CurrencyName    string          `json:"currency_name"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	FinalBalance    decimal.Decimal `json:"final_balance"`
	EquivalentLocal decimal.Decimal `json:"equivalent_local"`
}

// CurrencyGroup is the statement slice for one currency. Its totals equal the
// sum over stored entries; the opening pseudo-row carries no debit/credit so
// it is counted exactly once, through OpeningBalance.
type CurrencyGroup struct {
	CurrencyID     int64           `json:"currency_id"`
	CurrencyName   string          `json:"currency_name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Rows           []Row           `json:"rows,omitempty"`
	Summary        []SummaryRow    `json:"summary,omitempty"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// Statement is a generated report. OpeningBalance mirrors the single group's
// opening when the filter narrows to one currency; with several currency
// groups the per-group openings are authoritative.
type Statement struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Groups         []CurrencyGroup `json:"groups"`
	Mode           Mode            `json:"mode"`
}

// Generator builds statements.
type Generator struct {
	store      store.Store
	chart      *chart.Service
	currencies *currency.Service
}

// NewGenerator creates a Generator.
func NewGenerator(st store.Store, ch *chart.Service, cur *currency.Service) *Generator {
	return &Generator{store: st, chart: ch, currencies: cur}
}

func (f Filter) validate() error {
	if (f.AccountID == 0) == (f.GroupID == 0) {
		return fmt.Errorf("%w: exactly one of account_id and account_group_id is required", ErrInvalidFilter)
	}
	if f.From.IsZero() || f.To.IsZero() {
		return fmt.Errorf("%w: date range is required", ErrInvalidFilter)
	}
	if f.To.Before(f.From) {
		return fmt.Errorf("%w: date range ends before it starts", ErrInvalidFilter)
	}
	switch f.Mode {
	case ModeDetailed:
		switch f.DetailedType {
		case "", DetailedWithOpen, DetailedNoOpen:
		default:
			return fmt.Errorf("%w: unknown detailed type %q", ErrInvalidFilter, f.DetailedType)
		}
	case ModeSummary:
		switch f.SummaryType {
		case "", SummaryLocalOnly, SummaryWithMovement, SummaryWithCounter, SummaryWithCounterMovement, SummaryFinalOnly:
		default:
			return fmt.Errorf("%w: unknown summary type %q", ErrInvalidFilter, f.SummaryType)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidFilter, f.Mode)
	}
	return nil
}

// natureSign is +1 for debit-nature accounts and -1 for credit-nature ones.
// Openings and running balances are accumulated on the account's natural
// side, so both grow positive under normal activity.
func natureSign(n model.AccountNature) decimal.Decimal {
	if n == model.NatureCredit {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Generate builds a statement for the filter.
func (g *Generator) Generate(ctx context.Context, f Filter) (*Statement, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	var (
		accounts []model.Account
		err      error
	)
	if f.AccountID != 0 {
		accounts, err = g.chart.SubAccountsOf(f.AccountID)
	} else {
		accounts, err = g.chart.GroupAccounts(f.GroupID)
	}
	if err != nil {
		return nil, err
	}
	if f.CurrencyID != 0 && !g.currencies.Exists(f.CurrencyID) {
		return nil, fmt.Errorf("%w: id %d", currency.ErrCurrencyNotFound, f.CurrencyID)
	}

	byID := make(map[int64]model.Account, len(accounts))
	ids := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	stmt := &Statement{Mode: f.Mode}
	if len(ids) == 0 {
		return stmt, nil
	}

	entries, err := g.store.LegsForAccounts(ctx, ids, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("loading statement entries: %w", err)
	}

	// Partition by currency. Currencies with an opening balance but no
	// movement in range still get a group.
	byCurrency := make(map[int64][]model.JournalEntry)
	for _, e := range entries {
		if f.CurrencyID != 0 && e.CurrencyID != f.CurrencyID {
			continue
		}
		byCurrency[e.CurrencyID] = append(byCurrency[e.CurrencyID], e)
	}
	currencyIDs := g.currencyIDsFor(ctx, f, ids, byCurrency)

	suppressOpening := f.Mode == ModeDetailed && f.DetailedType == DetailedNoOpen

	for _, curID := range currencyIDs {
		cur, _ := g.currencies.Get(curID)
		group := CurrencyGroup{CurrencyID: curID, CurrencyName: currencyName(cur)}

		// Opening balance: nature-signed sum of all entries before the
		// range, per account.
		opening := decimal.Zero
		openingByAccount := make(map[int64]decimal.Decimal, len(ids))
		if !suppressOpening {
			for _, aid := range ids {
				t, err := g.store.TotalsForAccounts(ctx, []int64{aid}, curID, f.From)
				if err != nil {
					return nil, fmt.Errorf("computing opening balance: %w", err)
				}
				bal := t.Debit.Sub(t.Credit).Mul(natureSign(byID[aid].Nature))
				openingByAccount[aid] = bal
				opening = opening.Add(bal)
			}
			group.OpeningBalance = opening
		}

		curEntries := byCurrency[curID]
		switch f.Mode {
		case ModeDetailed:
			group.Rows = g.detailedRows(f, byID, group.CurrencyName, opening, suppressOpening, curEntries)
		case ModeSummary:
			group.Summary = g.summaryRows(f, byID, ids, cur, openingByAccount, curEntries)
		}

		// Group totals cover stored entries only; the opening enters the
		// closing balance exactly once, via OpeningBalance.
		movement := decimal.Zero
		for _, e := range curEntries {
			group.TotalDebit = group.TotalDebit.Add(e.Debit)
			group.TotalCredit = group.TotalCredit.Add(e.Credit)
			movement = movement.Add(e.Debit.Sub(e.Credit).Mul(natureSign(byID[e.AccountID].Nature)))
		}
		group.ClosingBalance = group.OpeningBalance.Add(movement)

		stmt.Groups = append(stmt.Groups, group)
	}

	if len(stmt.Groups) == 1 {
		stmt.OpeningBalance = stmt.Groups[0].OpeningBalance
	}
	return stmt, nil
}

func (g *Generator) detailedRows(f Filter, byID map[int64]model.Account, currencyName string, opening decimal.Decimal, suppressOpening bool, entries []model.JournalEntry) []Row {
	rows := make([]Row, 0, len(entries)+1)
	if !suppressOpening {
		rows = append(rows, Row{
			Date:          f.From,
			Balance:       opening,
			Notes:         "opening balance",
			ReferenceType: model.RefOpening,
			CurrencyName:  currencyName,
			IsOpening:     true,
		})
	}

	running := opening
	if suppressOpening {
		running = decimal.Zero
	}
	for _, e := range entries {
		acct := byID[e.AccountID]
		running = running.Add(e.Debit.Sub(e.Credit).Mul(natureSign(acct.Nature)))
		rows = append(rows, Row{
			Date:          e.Date,
			AccountID:     e.AccountID,
			AccountName:   acct.Name(),
			Debit:         e.Debit,
			Credit:        e.Credit,
			Balance:       running,
			Notes:         e.Notes,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			CurrencyName:  currencyName,
		})
	}
	return rows
}

func (g *Generator) summaryRows(f Filter, byID map[int64]model.Account, ids []int64, cur model.Currency, openingByAccount map[int64]decimal.Decimal, entries []model.JournalEntry) []SummaryRow {
	type agg struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}
	perAccount := make(map[int64]agg, len(ids))
	for _, e := range entries {
		a := perAccount[e.AccountID]
		a.debit = a.debit.Add(e.Debit)
		a.credit = a.credit.Add(e.Credit)
		perAccount[e.AccountID] = a
	}

	local, hasLocal := g.currencies.Local()

	var rows []SummaryRow
	for _, aid := range ids {
		a, moved := perAccount[aid]
		openingBal := openingByAccount[aid]
		if !moved && openingBal.IsZero() {
			continue // dormant account, nothing to report
		}
		acct := byID[aid]
		final := openingBal.Add(a.debit.Sub(a.credit).Mul(natureSign(acct.Nature)))
		row := SummaryRow{
			AccountID:    aid,
			AccountName:  acct.Name(),
			CurrencyName: currencyName(cur),
			TotalDebit:   a.debit,
			TotalCredit:  a.credit,
			FinalBalance: final,
		}
		if hasLocal {
			if cur.ID == local.ID {
				row.EquivalentLocal = final
			} else if eq, err := g.currencies.Convert(final, cur.ID, local.ID); err == nil {
				row.EquivalentLocal = eq
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return byID[rows[i].AccountID].Code < byID[rows[j].AccountID].Code })
	return rows
}

// currencyIDsFor returns the sorted currency ids a statement must cover:
// currencies moved in range plus, unless openings are suppressed, currencies
// with a nonzero balance carried in from before the range.
func (g *Generator) currencyIDsFor(ctx context.Context, f Filter, ids []int64, byCurrency map[int64][]model.JournalEntry) []int64 {
	seen := make(map[int64]bool, len(byCurrency))
	var out []int64
	for curID := range byCurrency {
		seen[curID] = true
		out = append(out, curID)
	}

	if !(f.Mode == ModeDetailed && f.DetailedType == DetailedNoOpen) {
		for _, c := range g.currencies.All() {
			if seen[c.ID] || (f.CurrencyID != 0 && c.ID != f.CurrencyID) {
				continue
			}
			t, err := g.store.TotalsForAccounts(ctx, ids, c.ID, f.From)
			if err == nil && !t.Debit.Equal(t.Credit) {
				out = append(out, c.ID)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func currencyName(c model.Currency) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Code
}
