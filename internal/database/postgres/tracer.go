package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"sidecrew/internal/pkg/logger"

	"github.com/jackc/pgx/v5"
)

type traceKey struct{}

type traceStart struct {
	sql   string
	start time.Time
}

// queryTracer logs statements slower than threshold and statements that
// fail for reasons other than an empty result or a cancelled request.
type queryTracer struct {
	log       *logger.Logger
	threshold time.Duration
	now       func() time.Time
}

var _ pgx.QueryTracer = (*queryTracer)(nil)

func newQueryTracer(log *logger.Logger, threshold time.Duration) *queryTracer {
	return &queryTracer{log: logger.OrNop(log).With("component", "postgres"), threshold: threshold, now: time.Now}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: data.SQL, start: t.now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	st, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	elapsed := t.now().Sub(st.start)

	switch {
	case data.Err != nil && !IsNoRows(data.Err) && !errors.Is(data.Err, context.Canceled):
		t.log.Warn("query failed", "sql", compactSQL(st.sql), "elapsed", elapsed, "error", data.Err)
	case t.threshold > 0 && elapsed >= t.threshold:
		t.log.Warn("slow query", "sql", compactSQL(st.sql), "elapsed", elapsed, "rows", data.CommandTag.RowsAffected())
	}
}

// compactSQL folds whitespace so multi-line statements log on one line.
func compactSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
