// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSession(t *testing.T, opts Options) (*SQLSession, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(context.Background(), db, opts)
	require.NoError(t, err)
	return s, mock
}

func TestSQLSession_BeginsTransactionLazily(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockSession(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t (a) VALUES (?)").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assert.False(t, s.InTransaction())
	cur, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "INSERT INTO t (a) VALUES (?)", []any{1}))
	assert.True(t, s.InTransaction())
	assert.Equal(t, int64(1), cur.RowCount())
	assert.False(t, cur.HasResultSet())

	require.NoError(t, s.Commit(ctx))
	assert.False(t, s.InTransaction())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSession_CommitWithoutTransactionIsNoop(t *testing.T) {
	s, mock := newMockSession(t, Options{})
	require.NoError(t, s.Commit(context.Background()))
	require.NoError(t, s.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSession_CommitErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockSession(t, Options{})
	commitErr := errors.New("disk I/O error")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit().WillReturnError(commitErr)

	cur, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "DELETE FROM t", nil))
	err = s.Commit(ctx)
	require.ErrorIs(t, err, commitErr)
	assert.False(t, s.InTransaction())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSession_CloseRollsBackOpenTransaction(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockSession(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE t SET a = 2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	cur, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "UPDATE t SET a = 2", nil))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = s.Cursor()
	require.ErrorIs(t, err, ErrSessionClosed)
	require.ErrorIs(t, s.Commit(ctx), ErrSessionClosed)
	require.ErrorIs(t, cur.Execute(ctx, "SELECT 1", nil), ErrSessionClosed)
}

func TestSQLSession_Autocommit(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockSession(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t VALUES (1)").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO t VALUES (2)").WillReturnResult(sqlmock.NewResult(2, 1))

	cur, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "INSERT INTO t VALUES (1)", nil))

	// enabling autocommit commits the pending transaction
	require.NoError(t, s.SetAutocommit(ctx, true))
	assert.True(t, s.Autocommit())
	assert.False(t, s.InTransaction())

	require.NoError(t, cur.Execute(ctx, "INSERT INTO t VALUES (2)", nil))
	assert.False(t, s.InTransaction())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLCursor_BuffersResultSet(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockSession(t, Options{Autocommit: true})

	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("id").OfType("INTEGER", int64(0)),
			sqlmock.NewColumn("name").OfType("TEXT", ""),
		).
			AddRow(1, []byte("ada")).
			AddRow(2, []byte("grace")))

	cur, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "SELECT id, name FROM users", nil))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.True(t, cur.HasResultSet())
	assert.Equal(t, int64(2), cur.RowCount())
	require.Len(t, cur.Columns(), 2)
	assert.Equal(t, "id", cur.Columns()[0].Name)
	assert.Equal(t, "name", cur.Columns()[1].Name)
	assert.Equal(t, "INTEGER", cur.Columns()[0].TypeName)

	row, ok := cur.Next()
	require.True(t, ok)
	assert.Equal(t, []byte("ada"), row[1])
	row, ok = cur.Next()
	require.True(t, ok)
	assert.Equal(t, []byte("grace"), row[1])
	_, ok = cur.Next()
	assert.False(t, ok)

	require.NoError(t, cur.Close())
	require.NoError(t, cur.Close())
	assert.False(t, cur.HasResultSet())
	require.ErrorIs(t, cur.Execute(ctx, "SELECT 1", nil), ErrCursorClosed)
}

func TestSQLCursor_ExecuteMany(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockSession(t, Options{Autocommit: true})

	mock.ExpectExec("INSERT INTO t (a) VALUES (?)").WithArgs(1).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO t (a) VALUES (?)").WithArgs(2).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO t (a) VALUES (?)").WithArgs(3).WillReturnResult(sqlmock.NewResult(3, 1))

	cur, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.ExecuteMany(ctx, "INSERT INTO t (a) VALUES (?)", [][]any{{1}, {2}, {3}}))
	assert.Equal(t, int64(3), cur.RowCount())
	assert.False(t, cur.HasResultSet())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSession_OpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "warehouse", Options{})
	require.ErrorIs(t, err, ErrUnsupportedDriver)
	assert.Contains(t, err.Error(), `"oracle"`)
}

func TestSQLSession_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, ":memory:", Options{})
	require.NoError(t, err)
	defer s.Close()

	cur, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "CREATE TABLE kv (k INTEGER PRIMARY KEY, v TEXT NOT NULL)", nil))
	require.NoError(t, cur.ExecuteMany(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", [][]any{{1, "a"}, {2, "b"}}))
	assert.Equal(t, int64(2), cur.RowCount())
	require.NoError(t, s.Commit(ctx))

	require.NoError(t, cur.Execute(ctx, "INSERT INTO kv (k, v) VALUES (3, 'c')", nil))
	require.NoError(t, s.Rollback(ctx))

	require.NoError(t, cur.Execute(ctx, "SELECT k, v FROM kv ORDER BY k", nil))
	assert.Equal(t, int64(2), cur.RowCount())
	var keys []any
	for {
		row, ok := cur.Next()
		if !ok {
			break
		}
		keys = append(keys, row[0])
	}
	assert.Equal(t, []any{int64(1), int64(2)}, keys)
}

func TestDrivers(t *testing.T) {
	drivers := Drivers()
	assert.Subset(t, drivers, []string{DriverSQLite3, DriverSQLite, DriverPostgres})
	drivers[0] = "mutated"
	assert.Equal(t, DriverSQLite3, Drivers()[0])
	assert.True(t, IsSQLite(DriverSQLite))
	assert.False(t, IsSQLite(DriverPostgres))
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query  string
		expect bool
	}{
		{"SELECT 1", true},
		{"  select * from t", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"(SELECT 1) UNION (SELECT 2)", true},
		{"-- comment\nSELECT 1", true},
		{"/* hint */ VALUES (1)", true},
		{"PRAGMA table_info(t)", true},
		{"INSERT INTO t VALUES (1) RETURNING id", true},
		{"INSERT INTO t VALUES (1) RETURNING(id)", true},
		{"DELETE FROM t WHERE a = 1 RETURNING*", true},
		{"UPDATE t SET a = 1\nRETURNING\tid", true},
		{"SELECT*FROM t", true},
		{"INSERT INTO t VALUES (1)", false},
		{"INSERT INTO notes VALUES ('returning soon')", false},
		{"INSERT INTO notes VALUES ('it''s', 'x')", false},
		{"UPDATE t SET returning_id = 1", false},
		{"UPDATE t SET a = 1", false},
		{"CREATE TABLE t (a int)", false},
		{"-- only a comment", false},
		{"", false},
	}
	for _, test := range tests {
		t.Run(test.query, func(t *testing.T) {
			if got := returnsRows(test.query); got != test.expect {
				t.Errorf("returnsRows(%q) = %t, want %t", test.query, got, test.expect)
			}
		})
	}
}
