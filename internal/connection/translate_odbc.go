// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

//go:build odbc

package connection

import (
	"errors"

	"github.com/alexbrainman/odbc"
)

func init() {
	backendClassifiers = append(backendClassifiers, classifyODBC)
}

// classifyODBC maps the SQLSTATE of the first diagnostic record
func classifyODBC(err error) (Kind, bool) {
	var odbcErr *odbc.Error
	if !errors.As(err, &odbcErr) {
		return 0, false
	}
	if len(odbcErr.Diag) == 0 || len(odbcErr.Diag[0].State) < 2 {
		return DatabaseError, true
	}
	state := odbcErr.Diag[0].State
	switch {
	case state == "HYT00", state == "HYT01":
		return OperationalError, true
	case state[:2] == "IM":
		// raised by the driver manager, not the database
		return InterfaceError, true
	}
	return sqlstateKind(state[:2]), true
}
