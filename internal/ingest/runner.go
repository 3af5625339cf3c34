package ingest

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/navsync/internal/window"
)

// Summary aggregates the outcome of a full ingestion run.
type Summary struct {
	Windows   int
	Succeeded int
	Failed    int
	Rows      int64
}

// Runner schedules one pipeline task per window on a bounded worker pool.
type Runner struct {
	pipeline    *Pipeline
	windows     []window.Window
	concurrency int
}

// NewRunner creates a runner. concurrency <= 0 defaults to one worker per
// window plus one spare, mirroring a fully parallel run.
func NewRunner(pipeline *Pipeline, windows []window.Window, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = len(windows) + 1
	}
	return &Runner{pipeline: pipeline, windows: windows, concurrency: concurrency}
}

// Run executes every window and returns the aggregate summary. Window
// failures are logged and counted; they never cancel sibling windows.
func (r *Runner) Run(ctx context.Context) Summary {
	log := zap.L().With(zap.String("component", "ingest.runner"))
	log.Info("starting ingestion run",
		zap.Int("windows", len(r.windows)),
		zap.Int("concurrency", r.concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var succeeded, failed, rows atomic.Int64

	for _, w := range r.windows {
		g.Go(func() error {
			wLog := log.With(zap.String("from", w.FromParam()), zap.String("to", w.ToParam()))
			wLog.Info("processing window")

			n, err := r.pipeline.RunWindow(gctx, w)
			if err != nil {
				failed.Add(1)
				wLog.Error("window failed", zap.Error(err))
				return nil // don't abort the run on individual window failure
			}

			succeeded.Add(1)
			rows.Add(n)
			wLog.Info("window complete", zap.Int64("rows", n))
			return nil
		})
	}

	_ = g.Wait()

	s := Summary{
		Windows:   len(r.windows),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Rows:      rows.Load(),
	}
	log.Info("ingestion run complete",
		zap.Int("windows", s.Windows),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Int64("rows", s.Rows),
	)
	return s
}
