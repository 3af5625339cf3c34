// Package ingest runs the fetch -> parse -> resolve -> load pipeline across
// a pool of per-window workers.
package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/roach88/navsync/internal/amfi"
	"github.com/roach88/navsync/internal/db"
	"github.com/roach88/navsync/internal/refdata"
	"github.com/roach88/navsync/internal/window"
)

// ReportSource supplies raw NAV reports for a window. amfi.Client is the
// production implementation.
type ReportSource interface {
	NAVHistory(ctx context.Context, w window.Window) (string, error)
}

// Pipeline processes one window end to end. The resolver is the only piece
// of shared mutable state; everything else is per-window.
type Pipeline struct {
	source    ReportSource
	resolver  *refdata.Resolver
	pool      db.Pool
	batchSize int
}

// NewPipeline wires a pipeline against a report source, a shared resolver,
// and the database pool used for price-point loads.
func NewPipeline(source ReportSource, resolver *refdata.Resolver, pool db.Pool, batchSize int) *Pipeline {
	return &Pipeline{source: source, resolver: resolver, pool: pool, batchSize: batchSize}
}

// RunWindow ingests a single window and returns how many price points were
// written. Any fetch, resolution, or load failure aborts this window only;
// nothing written so far is rolled back (price history is append-only).
func (p *Pipeline) RunWindow(ctx context.Context, w window.Window) (int64, error) {
	text, err := p.source.NAVHistory(ctx, w)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: window %s..%s", w.FromParam(), w.ToParam())
	}

	records := amfi.Parse(text)
	zap.L().Debug("report parsed",
		zap.String("from", w.FromParam()),
		zap.Int("records", len(records)),
	)

	loader := NewLoader(p.pool, p.batchSize)
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return loader.Rows(), ctx.Err()
		default:
		}

		ids, err := p.resolver.Resolve(ctx, rec.Category, rec.Company, rec.Name)
		if err != nil {
			return loader.Rows(), eris.Wrapf(err, "ingest: window %s..%s", w.FromParam(), w.ToParam())
		}

		if err := loader.Append(ctx, ids.FundID, rec); err != nil {
			return loader.Rows(), eris.Wrapf(err, "ingest: window %s..%s", w.FromParam(), w.ToParam())
		}
	}

	if err := loader.Flush(ctx); err != nil {
		return loader.Rows(), eris.Wrapf(err, "ingest: window %s..%s", w.FromParam(), w.ToParam())
	}

	if loader.Skipped() > 0 {
		zap.L().Warn("window had malformed records",
			zap.String("from", w.FromParam()),
			zap.Int("skipped", loader.Skipped()),
		)
	}

	return loader.Rows(), nil
}
