// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
)

// Session is a native backend session: one dedicated database connection
// plus whatever transaction is currently open on it. A Session is owned by
// exactly one connection.Connection.
type Session interface {
	// Cursor returns a new per-statement handle bound to this session.
	Cursor() (Cursor, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// SetAutocommit switches between implicit transactions and
	// statement-level commits. Enabling it commits pending work.
	SetAutocommit(ctx context.Context, enabled bool) error
	Autocommit() bool
	// Close rolls back uncommitted work and releases the connection.
	Close() error
}

// Cursor is a native per-statement handle. Result sets are buffered by the
// implementation, so fetching never touches the backend.
type Cursor interface {
	Execute(ctx context.Context, query string, args []any) error
	ExecuteMany(ctx context.Context, query string, argSets [][]any) error
	// Next returns the next buffered row, or ok=false when exhausted.
	Next() (row []any, ok bool)
	// HasResultSet reports whether the last statement produced rows.
	HasResultSet() bool
	Columns() []Column
	// RowCount is the rows affected or buffered by the last statement, -1
	// when nothing has been executed.
	RowCount() int64
	Close() error
}

// Column describes a single result column.
type Column struct {
	Name     string
	TypeName string
	Nullable bool
}
