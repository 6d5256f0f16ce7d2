// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

//go:build odbc

package session

import _ "github.com/alexbrainman/odbc"

func init() {
	drivers = append(drivers, DriverODBC)
}
