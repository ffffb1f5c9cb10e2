package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/irfndi/hdb-resale-go/internal/database"

// OperationObserver receives the timing of each traced statement.
type OperationObserver func(operation string, table string, duration int64, rowsAffected int64)

// TracedPool wraps a DatabasePool with one span per statement.
type TracedPool struct {
	pool     DatabasePool
	tracer   trace.Tracer
	observer OperationObserver
}

// NewTracedPool wraps pool. observer may be nil.
func NewTracedPool(pool DatabasePool, observer OperationObserver) *TracedPool {
	return &TracedPool{
		pool:     pool,
		tracer:   otel.Tracer(tracerName),
		observer: observer,
	}
}

func (p *TracedPool) start(ctx context.Context, sql string) (context.Context, trace.Span, string) {
	op := operationOf(sql)
	ctx, span := p.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", strings.TrimSpace(sql)),
		),
	)
	return ctx, span, op
}

func (p *TracedPool) finish(span trace.Span, op string, start time.Time, rows int64, err error) {
	if err != nil && err != pgx.ErrNoRows {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if p.observer != nil {
		p.observer(op, predictionsTable, time.Since(start).Milliseconds(), rows)
	}
}

func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	ctx, span, op := p.start(ctx, sql)
	rows, err := p.pool.Query(ctx, sql, args...)
	p.finish(span, op, start, -1, err)
	return rows, err
}

func (p *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	start := time.Now()
	ctx, span, op := p.start(ctx, sql)
	row := p.pool.QueryRow(ctx, sql, args...)
	p.finish(span, op, start, -1, nil)
	return row
}

func (p *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	ctx, span, op := p.start(ctx, sql)
	tag, err := p.pool.Exec(ctx, sql, args...)
	p.finish(span, op, start, tag.RowsAffected(), err)
	return tag, err
}

// operationOf returns the lower-cased leading SQL keyword.
func operationOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
