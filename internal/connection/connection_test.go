// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package connection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/lib/pq"
	"github.com/nadrama-com/dbsession/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeSession records calls made by Connection
type fakeSession struct {
	cursorErr   error
	commitErr   error
	rollbackErr error
	closeErr    error

	commits   int
	rollbacks int
	closes    int
	opened    []*fakeCursor
	closeLog  []string

	autocommit bool
}

func (s *fakeSession) Cursor() (session.Cursor, error) {
	if s.cursorErr != nil {
		return nil, s.cursorErr
	}
	c := &fakeCursor{name: fmt.Sprintf("c%d", len(s.opened)+1), session: s}
	s.opened = append(s.opened, c)
	return c, nil
}

func (s *fakeSession) Commit(ctx context.Context) error {
	s.commits++
	return s.commitErr
}

func (s *fakeSession) Rollback(ctx context.Context) error {
	s.rollbacks++
	return s.rollbackErr
}

func (s *fakeSession) SetAutocommit(ctx context.Context, enabled bool) error {
	s.autocommit = enabled
	return nil
}

func (s *fakeSession) Autocommit() bool { return s.autocommit }

func (s *fakeSession) Close() error {
	s.closes++
	s.closeLog = append(s.closeLog, "session")
	return s.closeErr
}

type fakeCursor struct {
	name      string
	session   *fakeSession
	closes    int
	rows      [][]any
	hasResult bool
	execErr   error
	executed  []string
}

func (c *fakeCursor) Execute(ctx context.Context, query string, args []any) error {
	c.executed = append(c.executed, query)
	if c.execErr != nil {
		return c.execErr
	}
	c.hasResult = true
	return nil
}

func (c *fakeCursor) ExecuteMany(ctx context.Context, query string, argSets [][]any) error {
	c.executed = append(c.executed, query)
	c.hasResult = false
	return c.execErr
}

func (c *fakeCursor) Next() ([]any, bool) {
	if len(c.rows) == 0 {
		return nil, false
	}
	row := c.rows[0]
	c.rows = c.rows[1:]
	return row, true
}

func (c *fakeCursor) HasResultSet() bool        { return c.hasResult }
func (c *fakeCursor) Columns() []session.Column { return []session.Column{{Name: "n", TypeName: "INTEGER"}} }
func (c *fakeCursor) RowCount() int64           { return int64(len(c.rows)) }

func (c *fakeCursor) Close() error {
	c.closes++
	c.session.closeLog = append(c.session.closeLog, c.name)
	return nil
}

func TestFreshConnectionOperationsSucceed(t *testing.T) {
	ctx := context.Background()
	s := &fakeSession{}
	c := New(s, nil)

	cur, err := c.Cursor()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Same(t, c, cur.Connection())
	require.NoError(t, c.Commit(ctx))
	require.NoError(t, c.Rollback(ctx))
	assert.Equal(t, 1, s.commits)
	assert.Equal(t, 1, s.rollbacks)
	assert.False(t, c.Closed())
	assert.NotEmpty(t, c.ID())
}

func TestOperationsAfterCloseRaiseInterfaceError(t *testing.T) {
	ctx := context.Background()
	prior := map[string]func(c *Connection){
		"none":     func(c *Connection) {},
		"cursor":   func(c *Connection) { c.Cursor() },
		"commit":   func(c *Connection) { c.Commit(ctx) },
		"rollback": func(c *Connection) { c.Rollback(ctx) },
		"cursors and commit": func(c *Connection) {
			c.Cursor()
			c.Cursor()
			c.Commit(ctx)
		},
	}
	for name, before := range prior {
		t.Run(name, func(t *testing.T) {
			s := &fakeSession{}
			c := New(s, nil)
			before(c)
			require.NoError(t, c.Close())
			commits, rollbacks := s.commits, s.rollbacks

			_, err := c.Cursor()
			assertInterfaceError(t, err, ErrConnectionClosed)
			assertInterfaceError(t, c.Commit(ctx), ErrConnectionClosed)
			assertInterfaceError(t, c.Rollback(ctx), ErrConnectionClosed)
			assertInterfaceError(t, c.SetAutocommit(ctx, true), ErrConnectionClosed)
			_, err = c.Autocommit()
			assertInterfaceError(t, err, ErrConnectionClosed)

			// the backend is never reached once closed
			assert.Equal(t, commits, s.commits)
			assert.Equal(t, rollbacks, s.rollbacks)
			assert.True(t, c.Closed())
		})
	}
}

func assertInterfaceError(t *testing.T, err error, cause error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterface)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, InterfaceError, KindOf(err))
	assert.NotErrorIs(t, err, ErrOperational)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := &fakeSession{}
	c := New(s, nil)
	_, err := c.Cursor()
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, s.closes)
	// the second close reached no cursor
	assert.Equal(t, []string{"c1", "session"}, s.closeLog)
}

func TestCloseCascadesToCursorsInOrder(t *testing.T) {
	ctx := context.Background()
	s := &fakeSession{}
	c := New(s, nil)

	c1, err := c.Cursor()
	require.NoError(t, err)
	c2, err := c.Cursor()
	require.NoError(t, err)
	c3, err := c.Cursor()
	require.NoError(t, err)

	require.NoError(t, c.Close())

	assert.Equal(t, []string{"c1", "c2", "c3", "session"}, s.closeLog)
	for _, fc := range s.opened {
		assert.Equal(t, 1, fc.closes, fc.name)
	}
	for _, cur := range []*Cursor{c1, c2, c3} {
		assertInterfaceError(t, cur.Execute(ctx, "SELECT 1"), ErrCursorClosed)
	}
	assertInterfaceError(t, c.Commit(ctx), ErrConnectionClosed)
}

func TestCloseSkipsIndependentlyClosedCursor(t *testing.T) {
	s := &fakeSession{}
	c := New(s, nil)
	c1, err := c.Cursor()
	require.NoError(t, err)
	_, err = c.Cursor()
	require.NoError(t, err)

	require.NoError(t, c1.Close())
	require.NoError(t, c1.Close())
	require.NoError(t, c.Close())

	assert.Equal(t, []string{"c1", "c2", "session"}, s.closeLog)
	assert.Equal(t, 1, s.opened[0].closes)
	assert.Equal(t, 1, s.opened[1].closes)
}

func TestBackendErrorsAreTranslated(t *testing.T) {
	ctx := context.Background()
	pqErr := &pq.Error{Code: "40001", Message: "could not serialize access"}
	s := &fakeSession{commitErr: pqErr, rollbackErr: context.DeadlineExceeded}
	c := New(s, nil)

	err := c.Commit(ctx)
	require.Error(t, err)
	var translated *Error
	require.ErrorAs(t, err, &translated)
	assert.Equal(t, OperationalError, translated.Kind)
	assert.Equal(t, "commit", translated.Op)
	assert.NotErrorIs(t, err, ErrInterface)
	// the caller does not receive the raw backend type
	_, raw := err.(*pq.Error)
	assert.False(t, raw)
	// but the backend detail is kept
	var cause *pq.Error
	require.ErrorAs(t, err, &cause)
	assert.Equal(t, pqErr, cause)

	err = c.Rollback(ctx)
	assert.ErrorIs(t, err, ErrOperational)

	// a failed commit leaves the connection open
	assert.False(t, c.Closed())
}

func TestCursorErrorIsTranslated(t *testing.T) {
	s := &fakeSession{cursorErr: errors.New("out of statement handles")}
	c := New(s, nil)
	_, err := c.Cursor()
	require.ErrorIs(t, err, ErrDatabase)
	assert.Contains(t, err.Error(), "out of statement handles")
}

func TestCloseReportsSessionErrorOnce(t *testing.T) {
	s := &fakeSession{closeErr: &pq.Error{Code: "08006"}}
	c := New(s, nil)
	err := c.Close()
	require.ErrorIs(t, err, ErrOperational)
	assert.True(t, c.Closed())
	require.NoError(t, c.Close())
}

func TestAutocommit(t *testing.T) {
	ctx := context.Background()
	s := &fakeSession{}
	c := New(s, nil)

	on, err := c.Autocommit()
	require.NoError(t, err)
	assert.False(t, on)
	require.NoError(t, c.SetAutocommit(ctx, true))
	on, err = c.Autocommit()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestCursorFetching(t *testing.T) {
	ctx := context.Background()
	s := &fakeSession{}
	c := New(s, nil)
	cur, err := c.Cursor()
	require.NoError(t, err)

	_, err = cur.FetchOne()
	assertInterfaceError(t, err, ErrNoResultSet)
	assert.Nil(t, cur.Description())

	s.opened[0].rows = [][]any{{1}, {2}, {3}, {4}, {5}}
	require.NoError(t, cur.Execute(ctx, "SELECT n FROM t"))
	require.Len(t, cur.Description(), 1)

	row, err := cur.FetchOne()
	require.NoError(t, err)
	assert.Equal(t, []any{1}, row)

	rows, err := cur.FetchMany(0)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{2}}, rows)

	require.NoError(t, cur.SetArraySize(2))
	rows, err = cur.FetchMany(0)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{3}, {4}}, rows)

	rows, err = cur.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, [][]any{{5}}, rows)

	row, err = cur.FetchOne()
	require.NoError(t, err)
	assert.Nil(t, row)

	require.ErrorIs(t, cur.SetArraySize(0), ErrProgramming)
	assert.Equal(t, 2, cur.ArraySize())
}

func TestCursorFetchManyLargeSize(t *testing.T) {
	ctx := context.Background()
	s := &fakeSession{}
	c := New(s, nil)
	cur, err := c.Cursor()
	require.NoError(t, err)
	s.opened[0].rows = [][]any{{1}}
	require.NoError(t, cur.Execute(ctx, "SELECT n FROM t"))

	rows, err := cur.FetchMany(math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{1}}, rows)
}

func TestCursorExecuteErrorIsTranslated(t *testing.T) {
	ctx := context.Background()
	s := &fakeSession{}
	c := New(s, nil)
	cur, err := c.Cursor()
	require.NoError(t, err)
	s.opened[0].execErr = &pq.Error{Code: "42P01", Message: `relation "missing" does not exist`}

	err = cur.Execute(ctx, "SELECT * FROM missing")
	require.ErrorIs(t, err, ErrProgramming)
	err = cur.ExecuteMany(ctx, "INSERT INTO missing VALUES ($1)", [][]any{{1}})
	require.ErrorIs(t, err, ErrProgramming)
}

func TestConcurrentCloseAndCommit(t *testing.T) {
	ctx := context.Background()
	s := &fakeSession{}
	c := New(s, nil)

	var g errgroup.Group
	for range 10 {
		g.Go(func() error {
			if err := c.Commit(ctx); err != nil && !errors.Is(err, ErrInterface) {
				return err
			}
			return nil
		})
		g.Go(c.Close)
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, s.closes)
	assert.True(t, c.Closed())
}
