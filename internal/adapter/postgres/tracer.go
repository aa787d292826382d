package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// QueryObserver receives one call per finished query.
type QueryObserver interface {
	ObserveQuery(operation string, duration time.Duration, err error)
}

// Tracer implements pgx.QueryTracer and forwards timings to a QueryObserver.
type Tracer struct {
	observer QueryObserver
}

var _ pgx.QueryTracer = (*Tracer)(nil)

func NewTracer(observer QueryObserver) *Tracer {
	return &Tracer{observer: observer}
}

type traceKey struct{}

type traceStart struct {
	at        time.Time
	operation string
}

func (t *Tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: time.Now(), operation: operationOf(data.SQL)})
}

func (t *Tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	t.observer.ObserveQuery(start.operation, time.Since(start.at), data.Err)
}

// operationOf returns the lowercased leading SQL keyword, keeping label
// cardinality bounded.
func operationOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	switch op := strings.ToLower(fields[0]); op {
	case "select", "insert", "update", "delete", "with", "begin", "commit", "rollback":
		return op
	default:
		return "other"
	}
}
