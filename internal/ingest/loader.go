package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/roach88/navsync/internal/amfi"
	"github.com/roach88/navsync/internal/db"
	"github.com/roach88/navsync/internal/window"
)

var priceColumns = []string{"fund_id", "price", "date"}

// Loader buffers price points for one window and flushes them with COPY.
// It is owned by a single window task and is not safe for concurrent use.
type Loader struct {
	pool      db.Pool
	batchSize int
	buf       [][]any
	rows      int64
	skipped   int
}

// NewLoader creates a loader that flushes every batchSize rows.
func NewLoader(pool db.Pool, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Loader{pool: pool, batchSize: batchSize}
}

// Append normalizes one parsed record and queues its price point. Records
// whose NAV or date cannot be parsed are dropped with a warning, matching
// the parser's silent-skip policy for malformed lines.
func (l *Loader) Append(ctx context.Context, fundID int64, rec amfi.Record) error {
	price, err := decimal.NewFromString(rec.Value)
	if err != nil {
		zap.L().Warn("skipping record with unparseable NAV",
			zap.String("fund", rec.Name),
			zap.String("value", rec.Value),
		)
		l.skipped++
		return nil
	}

	date, err := time.Parse(window.ParamLayout, rec.Date)
	if err != nil {
		zap.L().Warn("skipping record with unparseable date",
			zap.String("fund", rec.Name),
			zap.String("date", rec.Date),
		)
		l.skipped++
		return nil
	}

	l.buf = append(l.buf, []any{fundID, price, date})
	if len(l.buf) >= l.batchSize {
		return l.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered price points to fund_value.
func (l *Loader) Flush(ctx context.Context) error {
	if len(l.buf) == 0 {
		return nil
	}

	n, err := db.CopyFrom(ctx, l.pool, "fund_value", priceColumns, l.buf)
	if err != nil {
		return eris.Wrap(err, "ingest: load price points")
	}

	l.rows += n
	l.buf = l.buf[:0]
	return nil
}

// Rows returns how many price points have been written so far.
func (l *Loader) Rows() int64 { return l.rows }

// Skipped returns how many records were dropped during normalization.
func (l *Loader) Skipped() int { return l.skipped }
