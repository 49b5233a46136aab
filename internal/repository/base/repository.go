package base

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by the pool and a transaction
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

// Repository is the common base of the Postgres repositories. Queries run on the
// transaction stored in ctx by WithinTx, or on the pool when there is none.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Conn returns the querier bound to ctx
func (r *Repository) Conn(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.pool
}

// InTx reports whether ctx carries an open transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}

func (r *Repository) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return r.Conn(ctx).QueryRow(ctx, query, args...)
}

func (r *Repository) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return r.Conn(ctx).Query(ctx, query, args...)
}

// ExecAffected runs a command and returns the number of affected rows
func (r *Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// WithinTx runs fn in a transaction that commits when fn returns nil.
// A nested call joins the outer transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsNotFound reports "no rows in result set"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports a unique constraint failure
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ConstraintName returns the violated constraint or index of a Postgres error
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// DateArg converts a civil date into a pgx date parameter
func DateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// NullDateArg converts an optional civil date, nil maps to NULL
func NullDateArg(d *civil.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := DateArg(*d)
	return &t
}

// Date reads a scanned date column
func Date(t time.Time) civil.Date {
	return civil.DateOf(t)
}

// NullDate reads a nullable scanned date column
func NullDate(t *time.Time) *civil.Date {
	if t == nil {
		return nil
	}
	d := civil.DateOf(*t)
	return &d
}
