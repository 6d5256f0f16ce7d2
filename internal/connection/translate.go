// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package connection

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/nadrama-com/dbsession/internal/session"
	"modernc.org/sqlite"
)

// translate is the single point where backend failures become *Error.
// Errors which are already *Error pass through unchanged.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

// backendClassifiers map errors of optional drivers registered by build tag
var backendClassifiers []func(error) (Kind, bool)

func classify(err error) Kind {
	for _, classifier := range backendClassifiers {
		if kind, ok := classifier(err); ok {
			return kind
		}
	}
	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		return sqliteKind(mattnErr.Code)
	}
	var moderncErr *sqlite.Error
	if errors.As(err, &moderncErr) {
		// extended result codes carry the primary code in the low byte
		return sqliteKind(sqlite3.ErrNo(moderncErr.Code() & 0xff))
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return sqlstateKind(string(pqErr.Code.Class()))
	}
	switch {
	case errors.Is(err, session.ErrUnsupportedDriver):
		return NotSupportedError
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, session.ErrSessionClosed):
		return OperationalError
	case errors.Is(err, sql.ErrTxDone):
		return ProgrammingError
	}
	return DatabaseError
}

func sqliteKind(code sqlite3.ErrNo) Kind {
	switch code {
	case sqlite3.ErrConstraint:
		return IntegrityError
	case sqlite3.ErrBusy,
		sqlite3.ErrLocked,
		sqlite3.ErrCantOpen,
		sqlite3.ErrIoErr,
		sqlite3.ErrFull,
		sqlite3.ErrProtocol,
		sqlite3.ErrAuth,
		sqlite3.ErrNomem,
		sqlite3.ErrInterrupt,
		sqlite3.ErrPerm,
		sqlite3.ErrReadonly:
		return OperationalError
	case sqlite3.ErrError, sqlite3.ErrMisuse, sqlite3.ErrSchema:
		return ProgrammingError
	case sqlite3.ErrMismatch, sqlite3.ErrTooBig, sqlite3.ErrRange:
		return DataError
	case sqlite3.ErrInternal:
		return InternalError
	default:
		return DatabaseError
	}
}

// sqlstateKind maps a SQLSTATE class, see
// https://www.postgresql.org/docs/current/errcodes-appendix.html
func sqlstateKind(class string) Kind {
	switch class {
	case "23":
		return IntegrityError
	case "22":
		return DataError
	case "42":
		return ProgrammingError
	case "0A":
		return NotSupportedError
	case "08", "28", "40", "53", "54", "55", "57", "58":
		return OperationalError
	case "25", "2D", "XX":
		return InternalError
	default:
		return DatabaseError
	}
}
