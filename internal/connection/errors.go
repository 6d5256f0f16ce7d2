// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package connection

import (
	"errors"
	"fmt"
)

// Kind classifies an Error independently of the backend which raised it.
type Kind int

const (
	// InterfaceError is raised by this package itself, e.g. when using a
	// closed connection or cursor. It never originates in a backend.
	InterfaceError Kind = iota + 1
	DatabaseError
	DataError
	OperationalError
	IntegrityError
	InternalError
	ProgrammingError
	NotSupportedError
)

func (k Kind) String() string {
	switch k {
	case InterfaceError:
		return "InterfaceError"
	case DatabaseError:
		return "DatabaseError"
	case DataError:
		return "DataError"
	case OperationalError:
		return "OperationalError"
	case IntegrityError:
		return "IntegrityError"
	case InternalError:
		return "InternalError"
	case ProgrammingError:
		return "ProgrammingError"
	case NotSupportedError:
		return "NotSupportedError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the only error type returned by Connection and Cursor methods.
// The backend error, if any, is kept as Err.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Kind.String()
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below, so errors.Is(err, ErrInterface)
// holds for any InterfaceError.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Err != nil || t.Op != "" {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for use with errors.Is
var (
	ErrInterface    = &Error{Kind: InterfaceError}
	ErrDatabase     = &Error{Kind: DatabaseError}
	ErrData         = &Error{Kind: DataError}
	ErrOperational  = &Error{Kind: OperationalError}
	ErrIntegrity    = &Error{Kind: IntegrityError}
	ErrInternal     = &Error{Kind: InternalError}
	ErrProgramming  = &Error{Kind: ProgrammingError}
	ErrNotSupported = &Error{Kind: NotSupportedError}
)

// Causes of InterfaceError
var (
	ErrConnectionClosed = errors.New("connection already closed")
	ErrCursorClosed     = errors.New("cursor already closed")
	ErrNoResultSet      = errors.New("no active result set")
)

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func interfaceError(op string, cause error) error {
	return &Error{Kind: InterfaceError, Op: op, Err: cause}
}
