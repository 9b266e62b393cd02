package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline-dev/ledgerline/internal/config"
	"github.com/ledgerline-dev/ledgerline/internal/statement"
)

func newStatementCommand() *cobra.Command {
	var (
		configPath   string
		accountID    int64
		groupID      int64
		currencyID   int64
		from         string
		to           string
		mode         string
		summaryType  string
		detailedType string
	)

	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Generate an account statement as CSV on stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fmt.Errorf("parsing --from: %w", err)
			}
			toDate, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fmt.Errorf("parsing --to: %w", err)
			}

			f := statement.Filter{
				AccountID:    accountID,
				GroupID:      groupID,
				CurrencyID:   currencyID,
				From:         fromDate,
				To:           toDate,
				Mode:         statement.Mode(mode),
				SummaryType:  statement.SummaryType(summaryType),
				DetailedType: statement.DetailedType(detailedType),
			}
			return runStatement(configPath, f)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "ledgerline.yaml", "path to config file")
	cmd.Flags().Int64Var(&accountID, "account", 0, "account id to report on")
	cmd.Flags().Int64Var(&groupID, "group", 0, "account group id to report on")
	cmd.Flags().Int64Var(&currencyID, "currency", 0, "restrict to a single currency id")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&mode, "mode", "detailed", "statement mode (detailed or summary)")
	cmd.Flags().StringVar(&summaryType, "summary-type", "", "summary variant")
	cmd.Flags().StringVar(&detailedType, "detailed-type", "", "detailed variant")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runStatement(configPath string, f statement.Filter) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ch, cur, err := loadData(cfg.Data.Dir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	gen := statement.NewGenerator(st, ch, cur)
	result, err := gen.Generate(ctx, f)
	if err != nil {
		return err
	}

	if f.Mode == statement.ModeSummary {
		variant := f.SummaryType
		if variant == "" {
			variant = statement.SummaryWithCounterMovement
		}
		return statement.WriteSummary(os.Stdout, result, variant)
	}
	return statement.WriteDetailed(os.Stdout, result)
}
