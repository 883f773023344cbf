// Package store persists the shopkeep records with sqlx.
//
// Every query method lives on Queries, which runs against either the pool or
// an open transaction. Store.WithTx is the unit of work: inventory operations
// run all their reads and writes through the *Tx it hands out.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/database"
)

// Queries runs statements against a pool or a transaction.
type Queries struct {
	ext     sqlx.ExtContext
	dialect database.Dialect
	now     func() time.Time
}

// Store owns the connection pool.
type Store struct {
	*Queries
	db *sqlx.DB
}

// Tx is an open unit of work.
type Tx struct {
	*Queries
	tx *sqlx.Tx
}

// New constructs a Store over db using the dialect's SQL variants.
func New(db *sqlx.DB, dialect database.Dialect) *Store {
	return &Store{
		Queries: &Queries{ext: db, dialect: dialect, now: utcNow},
		db:      db,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// DB exposes the pool for health checks.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside one transaction at the dialect's isolation level. The
// transaction commits when fn returns nil and rolls back otherwise, including
// when fn panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTxx(ctx, s.dialect.TxOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	tx := &Tx{
		Queries: &Queries{ext: sqlTx, dialect: s.dialect, now: s.now},
		tx:      sqlTx,
	}
	if err = fn(tx); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Now is the timestamp written into created_at and updated_at columns.
func (q *Queries) Now() time.Time {
	return q.now()
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// selectIn expands slice arguments with sqlx.In before running the query.
func (q *Queries) selectIn(ctx context.Context, dest any, query string, args ...any) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return q.selectAll(ctx, dest, query, args...)
}

func (q *Queries) execIn(ctx context.Context, query string, args ...any) (int64, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return 0, err
	}
	return q.exec(ctx, query, args...)
}

// insert runs an INSERT and returns the generated id.
func (q *Queries) insert(ctx context.Context, query string, args ...any) (int64, error) {
	query = q.ext.Rebind(query)
	if q.dialect.Returning() {
		var id int64
		if err := q.ext.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int64
	if err := q.get(ctx, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *Queries) forUpdate() string {
	return q.dialect.ForUpdate()
}

// notFound turns sql.ErrNoRows into a NotFound error naming the record.
func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s %v not found", what, id)
	}
	return err
}
