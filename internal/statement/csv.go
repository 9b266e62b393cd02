package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Rendering is the only place amounts are rounded; every accumulation before
// this point stays at full decimal precision.

const dateFormat = "2006-01-02"

// WriteDetailed renders a detailed statement as CSV, one section per
// currency group.
func WriteDetailed(w io.Writer, st *Statement) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"currency", "journal_date", "account", "reference_type", "reference_id", "debit", "credit", "balance", "notes", "is_opening"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, g := range st.Groups {
		for _, r := range g.Rows {
			row := []string{
				g.CurrencyName,
				r.Date.Format(dateFormat),
				r.AccountName,
				string(r.ReferenceType),
				r.ReferenceID,
				r.Debit.StringFixed(2),
				r.Credit.StringFixed(2),
				r.Balance.StringFixed(2),
				r.Notes,
				strconv.FormatBool(r.IsOpening),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
		total := []string{
			g.CurrencyName, "", "total", "", "",
			g.TotalDebit.StringFixed(2),
			g.TotalCredit.StringFixed(2),
			g.ClosingBalance.StringFixed(2),
			"", "false",
		}
		if err := cw.Write(total); err != nil {
			return fmt.Errorf("writing total row: %w", err)
		}
	}
	return cw.Error()
}

// WriteSummary renders a summary statement as CSV. The variant selects which
// columns appear; the underlying totals are identical for every variant.
func WriteSummary(w io.Writer, st *Statement, variant SummaryType) error {
	if variant == "" {
		variant = SummaryWithCounterMovement
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(summaryHeader(variant)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, g := range st.Groups {
		for _, r := range g.Summary {
			if err := cw.Write(summaryRow(variant, r)); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
	}
	return cw.Error()
}

func summaryHeader(variant SummaryType) []string {
	switch variant {
	case SummaryLocalOnly:
		return []string{"account", "balance_local"}
	case SummaryWithMovement:
		return []string{"account", "currency", "total_debit", "total_credit", "final_balance"}
	case SummaryWithCounter:
		return []string{"account", "currency", "final_balance", "equivalent_local"}
	case SummaryFinalOnly:
		return []string{"account", "currency", "final_balance"}
	default: // SummaryWithCounterMovement
		return []string{"account", "currency", "total_debit", "total_credit", "final_balance", "equivalent_local"}
	}
}

func summaryRow(variant SummaryType, r SummaryRow) []string {
	switch variant {
	case SummaryLocalOnly:
		return []string{r.AccountName, r.EquivalentLocal.StringFixed(2)}
	case SummaryWithMovement:
		return []string{r.AccountName, r.CurrencyName, r.TotalDebit.StringFixed(2), r.TotalCredit.StringFixed(2), r.FinalBalance.StringFixed(2)}
	case SummaryWithCounter:
		return []string{r.AccountName, r.CurrencyName, r.FinalBalance.StringFixed(2), r.EquivalentLocal.StringFixed(2)}
	case SummaryFinalOnly:
		return []string{r.AccountName, r.CurrencyName, r.FinalBalance.StringFixed(2)}
	default:
		return []string{r.AccountName, r.CurrencyName, r.TotalDebit.StringFixed(2), r.TotalCredit.StringFixed(2), r.FinalBalance.StringFixed(2), r.EquivalentLocal.StringFixed(2)}
	}
}
