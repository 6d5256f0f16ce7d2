// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"   // modernc.org/sqlite (pure Go)
	DriverPostgres = "postgres" // github.com/lib/pq
	DriverODBC     = "odbc"     // github.com/alexbrainman/odbc (cgo and unixODBC, build tag odbc)
)

var ErrUnsupportedDriver = errors.New("unsupported driver")

var drivers = []string{DriverSQLite3, DriverSQLite, DriverPostgres}

// Drivers lists the driver names registered in this build.
func Drivers() []string {
	return append([]string(nil), drivers...)
}

func checkDriver(name string) error {
	for _, d := range drivers {
		if d == name {
			return nil
		}
	}
	return fmt.Errorf("%w %q (supported: %v)", ErrUnsupportedDriver, name, drivers)
}

// IsSQLite reports whether the driver is one of the SQLite drivers.
func IsSQLite(name string) bool {
	return name == DriverSQLite3 || name == DriverSQLite
}
