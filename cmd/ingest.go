package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/roach88/navsync/internal/amfi"
	"github.com/roach88/navsync/internal/config"
	"github.com/roach88/navsync/internal/db"
	"github.com/roach88/navsync/internal/fetcher"
	"github.com/roach88/navsync/internal/ingest"
	"github.com/roach88/navsync/internal/refdata"
	"github.com/roach88/navsync/internal/schema"
	"github.com/roach88/navsync/internal/window"
)

var (
	ingestStart       string
	ingestWindows     int
	ingestConcurrency int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest NAV history for the configured date windows",
	Long: `Plans monthly date windows from the start date, fetches the AMFI NAV
history report for each window concurrently, and loads parsed price points
into Postgres. Reference rows (category, company, fund) are created on first
sight and deduplicated across workers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := ingestOptions(cfg)
		start, err := time.Parse(window.ParamLayout, opts.StartDate)
		if err != nil {
			return eris.Wrapf(err, "ingest: parse start date %q", opts.StartDate)
		}

		pool, err := db.New(ctx, cfg.Store.DatabaseURL, db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		}, refdata.PreparedStatements())
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := schema.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "ingest: migrate")
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.AMFI.UserAgent,
			Timeout:    time.Duration(cfg.AMFI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.AMFI.MaxRetries,
			RateLimit:  rate.Limit(2),
		})
		client := amfi.NewClient(f, cfg.AMFI.BaseURL)
		resolver := refdata.NewResolver(refdata.NewPostgresStore(pool))
		pipeline := ingest.NewPipeline(client, resolver, pool, cfg.Ingest.BatchSize)

		windows := window.Plan(start, opts.Windows, time.Now())
		runner := ingest.NewRunner(pipeline, windows, opts.Concurrency)

		zap.L().Info("starting ingest",
			zap.String("start", opts.StartDate),
			zap.Int("windows", opts.Windows),
		)

		s := runner.Run(ctx)
		fmt.Printf("Ingest complete: %d/%d windows succeeded, %d rows\n",
			s.Succeeded, s.Windows, s.Rows)

		if s.Succeeded == 0 && s.Failed > 0 {
			return eris.Errorf("ingest: all %d windows failed", s.Failed)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestStart, "start", "", "first window start date (DD-Mon-YYYY)")
	ingestCmd.Flags().IntVar(&ingestWindows, "windows", 0, "number of monthly windows")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "worker pool size (default windows+1)")
	rootCmd.AddCommand(ingestCmd)
}

// ingestOptions merges config defaults with command-line overrides.
func ingestOptions(cfg *config.Config) config.IngestConfig {
	opts := cfg.Ingest
	if ingestStart != "" {
		opts.StartDate = ingestStart
	}
	if ingestWindows > 0 {
		opts.Windows = ingestWindows
	}
	if ingestConcurrency > 0 {
		opts.Concurrency = ingestConcurrency
	}
	return opts
}
