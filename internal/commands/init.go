package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/config"
	"github.com/ledgerline-dev/ledgerline/internal/currency"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledgerline data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir)
		},
	}

	return cmd
}

func runInit(dir string) error {
	// Write the default chart of accounts and groups.
	svc := chart.NewService(chart.DefaultChart(), chart.DefaultGroups())
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	// Write the default currency table.
	cur, err := currency.NewService(currency.DefaultCurrencies())
	if err != nil {
		return fmt.Errorf("building currency table: %w", err)
	}
	if err := cur.Save(dir); err != nil {
		return fmt.Errorf("writing currencies: %w", err)
	}

	// Write ledgerline.yaml.
	cfg := config.Default(dir)
	if err := config.Save(filepath.Join(dir, "ledgerline.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Initialized ledgerline data directory at %s\n", dir)
	return nil
}
