// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bufio"

	"github.com/nadrama-com/dbsession/internal/connection"
)

// WriteCursor writes the remaining rows of the cursor's active result set.
// Columns and RowsCount in header are taken from the cursor.
func WriteCursor(buffer *bufio.Writer, cur *connection.Cursor, header Header) (int64, error) {
	rows, err := cur.FetchAll()
	if err != nil {
		return 0, err
	}
	header.Columns = cur.Description()
	header.RowsCount = int64(len(rows))
	w, err := NewWriter(buffer, header)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return header.RowsCount, nil
}
