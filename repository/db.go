package repository

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations the repositories need. It is
// satisfied by both *pgxpool.Pool and pgx.Tx, so every repository method can
// transparently join an ambient transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// DB wraps the connection pool and hands out the right Querier for a
// context: the ambient transaction if one is open, the pool otherwise.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new DB wrapper around the pool
func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Q returns the Querier for the given context
func (d *DB) Q(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return d.pool
}

// maxSerializableAttempts bounds the retry loop for serialization conflicts
const maxSerializableAttempts = 5

// Serializable runs fn inside a SERIALIZABLE transaction. The allocator
// reads aggregate counts and then acts on them, so under concurrent preloads
// naive read-then-write would double-allocate scarce pairs; serializable
// isolation makes conflicting transactions abort, and those aborts are
// retried here from scratch up to maxSerializableAttempts times. Any other
// error propagates unchanged.
func (d *DB) Serializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return runWithRetry(ctx, d.beginSerializable, fn)
}

func (d *DB) beginSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return pgx.BeginTxFunc(ctx, d.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func runWithRetry(ctx context.Context, begin func(context.Context, func(ctx context.Context) error) error, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxSerializableAttempts; attempt++ {
		err = begin(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		if attempt < maxSerializableAttempts {
			log.Printf("Serialization conflict, retrying transaction (attempt %d/%d): %v",
				attempt, maxSerializableAttempts, err)
		}
	}
	return err
}

// isSerializationFailure reports whether err is the class of transient
// conflict worth retrying: serialization_failure (40001) or
// deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
