// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

//go:build odbc

package connection

import (
	"fmt"
	"testing"

	"github.com/alexbrainman/odbc"
	"github.com/nadrama-com/dbsession/internal/session"
	"github.com/stretchr/testify/assert"
)

func odbcError(state string) error {
	return &odbc.Error{APIName: "SQLExecute", Diag: []odbc.DiagRecord{{State: state, Message: "failed"}}}
}

func TestClassifyODBC(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect Kind
	}{
		{"integrity", odbcError("23000"), IntegrityError},
		{"syntax", odbcError("42000"), ProgrammingError},
		{"data", odbcError("22003"), DataError},
		{"link failure", odbcError("08S01"), OperationalError},
		{"timeout", odbcError("HYT00"), OperationalError},
		{"driver manager", odbcError("IM002"), InterfaceError},
		{"general", odbcError("HY000"), DatabaseError},
		{"no diagnostics", &odbc.Error{APIName: "SQLConnect"}, DatabaseError},
		{"wrapped", fmt.Errorf("failed to begin transaction: %w", odbcError("40001")), OperationalError},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := classify(test.err); got != test.expect {
				t.Errorf("classify(%v)\n= %s\nwant %s", test.err, got, test.expect)
			}
		})
	}
}

func TestODBCDriverRegistered(t *testing.T) {
	assert.Contains(t, session.Drivers(), session.DriverODBC)
}
