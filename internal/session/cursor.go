// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrCursorClosed = errors.New("cursor closed")

// rowKeywords are the leading keywords of statements which return rows.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"VALUES":   true,
	"PRAGMA":   true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"TABLE":    true,
}

type sqlCursor struct {
	session   *SQLSession
	columns   []Column
	rows      [][]any
	pos       int
	hasResult bool
	rowCount  int64
	closed    bool
}

func (c *sqlCursor) reset() {
	c.columns = nil
	c.rows = nil
	c.pos = 0
	c.hasResult = false
	c.rowCount = -1
}

func (c *sqlCursor) Execute(ctx context.Context, query string, args []any) error {
	if c.closed {
		return ErrCursorClosed
	}
	c.reset()
	q, err := c.session.querier(ctx)
	if err != nil {
		return err
	}
	if returnsRows(query) {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		return c.buffer(rows)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	c.rowCount = rowsAffected(res)
	return nil
}

// ExecuteMany runs query once per argument set. Any rows the statement
// returns are discarded.
func (c *sqlCursor) ExecuteMany(ctx context.Context, query string, argSets [][]any) error {
	if c.closed {
		return ErrCursorClosed
	}
	c.reset()
	q, err := c.session.querier(ctx)
	if err != nil {
		return err
	}
	var total int64
	for i, args := range argSets {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("parameter set %d: %w", i, err)
		}
		n := rowsAffected(res)
		if n < 0 || total < 0 {
			total = -1
			continue
		}
		total += n
	}
	c.rowCount = total
	return nil
}

func (c *sqlCursor) buffer(rows *sql.Rows) error {
	defer rows.Close()
	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("failed to describe result set: %w", err)
	}
	columns := make([]Column, len(types))
	for i, t := range types {
		nullable, ok := t.Nullable()
		columns[i] = Column{
			Name:     t.Name(),
			TypeName: t.DatabaseTypeName(),
			Nullable: nullable || !ok,
		}
	}
	var buffered [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		for i, v := range values {
			// drivers may reuse byte slices between rows
			if b, ok := v.([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
		}
		buffered = append(buffered, values)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.columns = columns
	c.rows = buffered
	c.hasResult = true
	c.rowCount = int64(len(buffered))
	return nil
}

func (c *sqlCursor) Next() ([]any, bool) {
	if c.closed || c.pos >= len(c.rows) {
		return nil, false
	}
	row := c.rows[c.pos]
	c.pos++
	return row, true
}

func (c *sqlCursor) HasResultSet() bool {
	return !c.closed && c.hasResult
}

func (c *sqlCursor) Columns() []Column {
	return c.columns
}

func (c *sqlCursor) RowCount() int64 {
	return c.rowCount
}

func (c *sqlCursor) Close() error {
	if c.closed {
		return nil
	}
	c.reset()
	c.closed = true
	return nil
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return -1
	}
	return n
}

// returnsRows guesses from the statement text whether it produces a result
// set, skipping leading comments and parentheses.
func returnsRows(query string) bool {
	q := strings.TrimSpace(query)
	for {
		switch {
		case strings.HasPrefix(q, "--"):
			idx := strings.IndexByte(q, '\n')
			if idx < 0 {
				return false
			}
			q = strings.TrimSpace(q[idx+1:])
		case strings.HasPrefix(q, "/*"):
			idx := strings.Index(q, "*/")
			if idx < 0 {
				return false
			}
			q = strings.TrimSpace(q[idx+2:])
		case strings.HasPrefix(q, "("):
			q = strings.TrimSpace(q[1:])
		default:
			words := sqlWords(q)
			if len(words) == 0 {
				return false
			}
			if rowKeywords[strings.ToUpper(words[0])] {
				return true
			}
			for _, w := range words[1:] {
				if strings.EqualFold(w, "RETURNING") {
					return true
				}
			}
			return false
		}
	}
}

// sqlWords splits q into identifier-like words, skipping single-quoted
// literals.
func sqlWords(q string) []string {
	var words []string
	start := -1
	inLiteral := false
	for i, r := range q {
		switch {
		case inLiteral:
			if r == '\'' {
				inLiteral = false
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if start < 0 {
				start = i
			}
		default:
			if start >= 0 {
				words = append(words, q[start:i])
				start = -1
			}
			inLiteral = r == '\''
		}
	}
	if start >= 0 {
		words = append(words, q[start:])
	}
	return words
}
