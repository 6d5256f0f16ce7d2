// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package connection

import (
	"context"
	"errors"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/nadrama-com/dbsession/internal/session"
)

// Connection owns one native session and every Cursor created from it.
//
// A Connection is either open or closed. Closing is terminal; afterwards
// every operation except Close fails with an InterfaceError. Close cascades
// to all cursors in creation order and is safe to call repeatedly.
type Connection struct {
	mu     sync.Mutex
	id     string
	logger log.Logger
	state  connState
}

type connState interface {
	isConnState()
}

// openState is the only place the native session is reachable from
type openState struct {
	session session.Session
	cursors []*Cursor
}

type closedState struct{}

func (*openState) isConnState()  {}
func (closedState) isConnState() {}

// New wraps a live native session. The Connection takes ownership of it.
func New(s session.Session, logger log.Logger) *Connection {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	id := uuid.NewString()
	return &Connection{
		id:     id,
		logger: log.With(logger, "connection", id),
		state:  &openState{session: s},
	}
}

// ID identifies the connection in log lines.
func (c *Connection) ID() string {
	return c.id
}

// open must be called with c.mu held
func (c *Connection) open(op string) (*openState, error) {
	if o, ok := c.state.(*openState); ok {
		return o, nil
	}
	return nil, interfaceError(op, ErrConnectionClosed)
}

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.state.(closedState)
	return ok
}

// Cursor creates a new Cursor owned by this connection.
func (c *Connection) Cursor() (*Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, err := c.open("cursor")
	if err != nil {
		return nil, err
	}
	native, err := o.session.Cursor()
	if err != nil {
		return nil, translate("cursor", err)
	}
	cur := newCursor(c, native)
	o.cursors = append(o.cursors, cur)
	level.Debug(c.logger).Log("msg", "cursor opened", "cursors", len(o.cursors))
	return cur, nil
}

// Commit commits the current transaction.
func (c *Connection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, err := c.open("commit")
	if err != nil {
		return err
	}
	if err := o.session.Commit(ctx); err != nil {
		return translate("commit", err)
	}
	level.Debug(c.logger).Log("msg", "committed")
	return nil
}

// Rollback discards all uncommitted work in the current transaction.
func (c *Connection) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, err := c.open("rollback")
	if err != nil {
		return err
	}
	if err := o.session.Rollback(ctx); err != nil {
		return translate("rollback", err)
	}
	level.Debug(c.logger).Log("msg", "rolled back")
	return nil
}

// Autocommit reports whether statements are committed individually.
func (c *Connection) Autocommit() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, err := c.open("autocommit")
	if err != nil {
		return false, err
	}
	return o.session.Autocommit(), nil
}

// SetAutocommit switches autocommit mode. Enabling it commits pending work.
func (c *Connection) SetAutocommit(ctx context.Context, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, err := c.open("set autocommit")
	if err != nil {
		return err
	}
	if err := o.session.SetAutocommit(ctx, enabled); err != nil {
		return translate("set autocommit", err)
	}
	level.Debug(c.logger).Log("msg", "autocommit changed", "enabled", enabled)
	return nil
}

// Close closes all cursors in creation order, then releases the native
// session, implicitly rolling back uncommitted work. The connection is
// closed afterwards even if releasing failed. Calling Close on a closed
// connection does nothing.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.state.(*openState)
	if !ok {
		return nil
	}
	var errs []error
	for _, cur := range o.cursors {
		if err := cur.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	cursors := len(o.cursors)
	o.cursors = nil
	if err := o.session.Close(); err != nil {
		errs = append(errs, translate("close", err))
	}
	o.session = nil
	c.state = closedState{}
	level.Debug(c.logger).Log("msg", "connection closed", "cursors", cursors)

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
