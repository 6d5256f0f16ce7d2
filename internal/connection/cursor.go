// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/nadrama-com/dbsession/internal/session"
)

const defaultArraySize = 1

// maxFetchPrealloc bounds the rows FetchMany allocates up front
const maxFetchPrealloc = 1024

// Cursor executes statements and fetches their results. It is owned by the
// Connection which created it and is closed when that connection closes.
type Cursor struct {
	mu        sync.Mutex
	conn      *Connection
	native    session.Cursor // nil once closed
	arraySize int
}

func newCursor(conn *Connection, native session.Cursor) *Cursor {
	return &Cursor{
		conn:      conn,
		native:    native,
		arraySize: defaultArraySize,
	}
}

// Connection returns the connection which created the cursor.
func (cur *Cursor) Connection() *Connection {
	return cur.conn
}

// lockSession takes the connection lock, then the cursor lock, for
// operations which run statements on the shared session.
func (cur *Cursor) lockSession() (unlock func()) {
	cur.conn.mu.Lock()
	cur.mu.Lock()
	return func() {
		cur.mu.Unlock()
		cur.conn.mu.Unlock()
	}
}

// valid must be called with cur.mu held
func (cur *Cursor) valid(op string) (session.Cursor, error) {
	if cur.native == nil {
		return nil, interfaceError(op, ErrCursorClosed)
	}
	return cur.native, nil
}

// Execute runs a single statement with the given parameters.
func (cur *Cursor) Execute(ctx context.Context, query string, args ...any) error {
	defer cur.lockSession()()
	native, err := cur.valid("execute")
	if err != nil {
		return err
	}
	return translate("execute", native.Execute(ctx, query, args))
}

// ExecuteMany runs a statement once per parameter set.
func (cur *Cursor) ExecuteMany(ctx context.Context, query string, argSets [][]any) error {
	defer cur.lockSession()()
	native, err := cur.valid("executemany")
	if err != nil {
		return err
	}
	return translate("executemany", native.ExecuteMany(ctx, query, argSets))
}

// resultSet must be called with cur.mu held
func (cur *Cursor) resultSet(op string) (session.Cursor, error) {
	native, err := cur.valid(op)
	if err != nil {
		return nil, err
	}
	if !native.HasResultSet() {
		return nil, interfaceError(op, ErrNoResultSet)
	}
	return native, nil
}

// FetchOne returns the next row, or nil when the result set is exhausted.
func (cur *Cursor) FetchOne() ([]any, error) {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	native, err := cur.resultSet("fetchone")
	if err != nil {
		return nil, err
	}
	row, ok := native.Next()
	if !ok {
		return nil, nil
	}
	return row, nil
}

// FetchMany returns up to size rows; size <= 0 uses ArraySize.
func (cur *Cursor) FetchMany(size int) ([][]any, error) {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	native, err := cur.resultSet("fetchmany")
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = cur.arraySize
	}
	rows := make([][]any, 0, min(size, maxFetchPrealloc))
	for len(rows) < size {
		row, ok := native.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchAll returns all remaining rows.
func (cur *Cursor) FetchAll() ([][]any, error) {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	native, err := cur.resultSet("fetchall")
	if err != nil {
		return nil, err
	}
	var rows [][]any
	for {
		row, ok := native.Next()
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Description describes the columns of the active result set, nil if there
// is none.
func (cur *Cursor) Description() []session.Column {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if cur.native == nil || !cur.native.HasResultSet() {
		return nil
	}
	return cur.native.Columns()
}

// RowCount is the number of rows affected or returned by the last
// statement, -1 if unknown.
func (cur *Cursor) RowCount() int64 {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if cur.native == nil {
		return -1
	}
	return cur.native.RowCount()
}

// ArraySize is the default batch size of FetchMany.
func (cur *Cursor) ArraySize() int {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	return cur.arraySize
}

// SetArraySize sets the default batch size of FetchMany. It must be
// positive.
func (cur *Cursor) SetArraySize(size int) error {
	if size < 1 {
		return &Error{Kind: ProgrammingError, Op: "set arraysize", Err: fmt.Errorf("arraysize must be positive, got %d", size)}
	}
	cur.mu.Lock()
	defer cur.mu.Unlock()
	cur.arraySize = size
	return nil
}

// Close releases the native cursor. Closing a closed cursor does nothing.
func (cur *Cursor) Close() error {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if cur.native == nil {
		return nil
	}
	err := cur.native.Close()
	cur.native = nil
	return translate("close cursor", err)
}
