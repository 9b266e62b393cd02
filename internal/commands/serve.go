package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline-dev/ledgerline/internal/cache"
	"github.com/ledgerline-dev/ledgerline/internal/ceiling"
	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/config"
	"github.com/ledgerline-dev/ledgerline/internal/currency"
	"github.com/ledgerline-dev/ledgerline/internal/ledger"
	"github.com/ledgerline-dev/ledgerline/internal/server"
	"github.com/ledgerline-dev/ledgerline/internal/statement"
	"github.com/ledgerline-dev/ledgerline/internal/store"
	"github.com/ledgerline-dev/ledgerline/internal/store/memory"
	"github.com/ledgerline-dev/ledgerline/internal/store/postgres"
	"github.com/ledgerline-dev/ledgerline/pkg/metrics"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "ledgerline.yaml", "path to config file")

	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

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

	var c *cache.Cache
	if cfg.Cache.Addr != "" {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		c, err = cache.New(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, ttl, logger)
		if err != nil {
			return fmt.Errorf("connecting to cache: %w", err)
		}
		defer c.Close()
	}

	ceilings := ceiling.NewService(ch)
	ld := ledger.NewService(st, ch, cur, ceilings, logger)
	gen := statement.NewGenerator(st, ch, cur)
	col := metrics.NewCollector(logger)

	persist := func() error {
		if err := ch.Save(cfg.Data.Dir); err != nil {
			return err
		}
		return cur.Save(cfg.Data.Dir)
	}

	srv := server.NewServer(ld, ch, cur, gen, col, c, persist, logger)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := col.StartServer(cfg.Server.MetricsAddr)

	go func() {
		logger.Info("starting server",
			slog.String("addr", cfg.Server.Addr),
			slog.String("driver", cfg.Storage.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("server stopped")
	return nil
}

// loadData reads the chart and currency CSVs, falling back to the built-in
// defaults when the data directory has not been initialized.
func loadData(dataDir string) (*chart.Service, *currency.Service, error) {
	ch, err := chart.Load(dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		ch = chart.NewService(chart.DefaultChart(), chart.DefaultGroups())
	} else if err != nil {
		return nil, nil, err
	}

	cur, err := currency.Load(dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		cur, err = currency.NewService(currency.DefaultCurrencies())
	}
	if err != nil {
		return nil, nil, err
	}
	return ch, cur, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (store.Store, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("migrating postgres store: %w", err)
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
