// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package connection

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/nadrama-com/dbsession/internal/session"
)

// Options for Connect
type Options struct {
	Driver     string
	DSN        string
	Autocommit bool
	Logger     log.Logger
}

// Connect opens a native session for the driver and DSN and wraps it in a
// Connection.
func Connect(ctx context.Context, opts Options) (*Connection, error) {
	s, err := session.Open(ctx, opts.Driver, opts.DSN, session.Options{
		Autocommit: opts.Autocommit,
	})
	if err != nil {
		return nil, translate("connect", err)
	}
	c := New(s, opts.Logger)
	level.Debug(c.logger).Log("msg", "connected", "driver", opts.Driver, "autocommit", opts.Autocommit)
	return c, nil
}
