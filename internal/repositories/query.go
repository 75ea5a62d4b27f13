package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/views"
)

// ListOptions carries the client's window and ordering for a listing.
type ListOptions struct {
	Page     pagination.Params
	SortBy   string
	SortType string
}

// querier is satisfied by pooled connections and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func exec(ctx context.Context, pool db.Pool, op, sql string, args ...any) (pgconn.CommandTag, error) {
	defer metrics.TrackQuery(op)()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return tag, mapError(op, err)
	}
	return tag, nil
}

// execOne runs a write that must touch exactly one existing row.
func execOne(ctx context.Context, pool db.Pool, op, sql string, args ...any) error {
	tag, err := exec(ctx, pool, op, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func queryRow(ctx context.Context, pool db.Pool, op, sql string, args []any, dest ...any) error {
	defer metrics.TrackQuery(op)()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return mapError(op, conn.QueryRow(ctx, sql, args...).Scan(dest...))
}

// listView runs the count and page queries of a view and assembles the page envelope.
func listView[R any, T any](ctx context.Context, pool db.Pool, op string, q views.Query, params pagination.Params, convert func(R) T) (page pagination.Page[T], err error) {
	ctx, span := logging.StartSpan(ctx, op)
	defer func() { span.EndErr(err) }()
	defer metrics.TrackQuery(op)()

	q.Limit = params.Limit
	q.Offset = params.Offset()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return page, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	countSQL, countArgs := q.BuildCount()
	var total int64
	if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return page, mapError(op+" count", err)
	}

	docs, err := collectView(ctx, conn, q, convert)
	if err != nil {
		return page, mapError(op, err)
	}
	return pagination.NewPage(docs, total, params), nil
}

// allView returns every row of the view without a count.
func allView[R any, T any](ctx context.Context, pool db.Pool, op string, q views.Query, convert func(R) T) ([]T, error) {
	defer metrics.TrackQuery(op)()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	docs, err := collectView(ctx, conn, q, convert)
	return docs, mapError(op, err)
}

// oneView returns the single row of the view or ErrNotFound.
func oneView[R any, T any](ctx context.Context, pool db.Pool, op string, q views.Query, convert func(R) T) (T, error) {
	defer metrics.TrackQuery(op)()

	var zero T
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	sql, args := q.BuildOne()
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return zero, mapError(op, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[R])
	if err != nil {
		return zero, mapError(op, err)
	}
	return convert(row), nil
}

func collectView[R any, T any](ctx context.Context, q querier, view views.Query, convert func(R) T) ([]T, error) {
	sql, args := view.Build()
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[R])
	if err != nil {
		return nil, err
	}

	docs := make([]T, 0, len(records))
	for _, r := range records {
		docs = append(docs, convert(r))
	}
	return docs, nil
}

// nullableID maps an unset reference to SQL NULL.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
