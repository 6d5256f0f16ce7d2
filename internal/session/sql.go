// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrSessionClosed = errors.New("session closed")

// Options configure a SQLSession.
type Options struct {
	Autocommit bool
}

// SQLSession implements Session on top of a dedicated *sql.Conn.
//
// Outside of autocommit mode a transaction is begun lazily by the first
// statement and ended by Commit or Rollback, so a session always behaves as
// if it were inside a transaction.
type SQLSession struct {
	db         *sql.DB
	ownsDB     bool
	conn       *sql.Conn
	tx         *sql.Tx
	autocommit bool
}

// querier is satisfied by both *sql.Conn and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open opens a database for the given driver and DSN and returns a session
// which owns it.
func Open(ctx context.Context, driver, dsn string, opts Options) (*SQLSession, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	s, err := New(ctx, db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New acquires a dedicated connection from db. The caller keeps ownership
// of db.
func New(ctx context.Context, db *sql.DB, opts Options) (*SQLSession, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLSession{
		db:         db,
		conn:       conn,
		autocommit: opts.Autocommit,
	}, nil
}

func (s *SQLSession) querier(ctx context.Context) (querier, error) {
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	if s.autocommit {
		return s.conn, nil
	}
	if s.tx == nil {
		// the tx outlives the statement which started it
		tx, err := s.conn.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// InTransaction reports whether a transaction is currently open.
func (s *SQLSession) InTransaction() bool {
	return s.tx != nil
}

func (s *SQLSession) Cursor() (Cursor, error) {
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	return &sqlCursor{session: s, rowCount: -1}, nil
}

func (s *SQLSession) Commit(ctx context.Context) error {
	if s.conn == nil {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLSession) Rollback(ctx context.Context) error {
	if s.conn == nil {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

func (s *SQLSession) Autocommit() bool {
	return s.autocommit
}

func (s *SQLSession) SetAutocommit(ctx context.Context, enabled bool) error {
	if s.conn == nil {
		return ErrSessionClosed
	}
	if enabled && s.tx != nil {
		if err := s.Commit(ctx); err != nil {
			return err
		}
	}
	s.autocommit = enabled
	return nil
}

func (s *SQLSession) Close() error {
	if s.conn == nil {
		return nil
	}
	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("failed to roll back transaction: %w", err))
		}
		s.tx = nil
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release connection: %w", err))
	}
	s.conn = nil
	if s.ownsDB {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
