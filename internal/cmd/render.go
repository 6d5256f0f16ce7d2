// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/nadrama-com/dbsession/internal/connection"
	"github.com/olekukonko/tablewriter"
)

// renderResult prints the cursor's result set as a table, or the affected
// row count when the statement produced no result set.
func renderResult(out io.Writer, cur *connection.Cursor) error {
	columns := cur.Description()
	if columns == nil {
		_, err := fmt.Fprintf(out, "%d row(s) affected\n", cur.RowCount())
		return err
	}
	rows, err := cur.FetchAll()
	if err != nil {
		return err
	}

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Name
	}
	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		table.Append(cells)
	}
	table.Render()
	_, err = fmt.Fprintf(out, "(%d rows)\n", len(rows))
	return err
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
