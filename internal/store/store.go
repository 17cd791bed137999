// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store is the SQL persistence layer for the question bank. Each
// table has a small store type; all of them run against either the pool or
// an open transaction through sqlx.ExtContext, so the same code serves
// single statements and multi-step cascades.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"quizbank/internal/database"
)

// Store bundles the per-table stores over a connection pool.
type Store struct {
	db *sqlx.DB
}

// New returns a Store over db.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Categories() *CategoryStore { return &CategoryStore{db: s.db} }
func (s *Store) Questions() *QuestionStore  { return &QuestionStore{db: s.db} }
func (s *Store) Tags() *TagStore            { return &TagStore{db: s.db} }
func (s *Store) Pending() *PendingStore     { return &PendingStore{db: s.db} }

// Tx exposes the same stores bound to an open transaction.
type Tx struct {
	tx *sqlx.Tx
}

func (t *Tx) Categories() *CategoryStore { return &CategoryStore{db: t.tx} }
func (t *Tx) Questions() *QuestionStore  { return &QuestionStore{db: t.tx} }
func (t *Tx) Tags() *TagStore            { return &TagStore{db: t.tx} }
func (t *Tx) Pending() *PendingStore     { return &PendingStore{db: t.tx} }

// treeLockKey is the advisory lock id guarding category reparenting and
// deletes on PostgreSQL.
const treeLockKey = 0x71756963 // "quic"

// LockTree serialises category tree mutations for the rest of the
// transaction. SQLite transactions are already opened with BEGIN IMMEDIATE,
// which holds the database write lock, so nothing more is needed there.
func (t *Tx) LockTree(ctx context.Context) error {
	if t.tx.DriverName() == database.DriverSQLite {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, treeLockKey); err != nil {
		return fmt.Errorf("lock category tree: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including on panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// now returns the write timestamp. UTC keeps text-encoded SQLite timestamps
// sortable.
func now() time.Time {
	return time.Now().UTC()
}

// likePattern turns a user keyword into a case-insensitive LIKE pattern,
// escaping the wildcard characters. Use with ESCAPE '\'.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(keyword)) + "%"
}

// rowsAffected returns the affected row count of an Exec result.
func rowsAffected(res interface{ RowsAffected() (int64, error) }) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// IsForeignKeyViolation reports whether err is a foreign key failure from
// either driver, typically a referenced row deleted by a concurrent
// transaction after it was checked.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
