// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/nadrama-com/dbsession/internal/session"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxExactInt is the largest magnitude a float64 holds without rounding
const maxExactInt = 1 << 53

// toValue converts a value scanned by database/sql. Text arriving as bytes
// is kept as a string; other bytes are base64 encoded by structpb. Integers
// beyond float64 precision are written as decimal strings.
func toValue(v any) (*structpb.Value, error) {
	switch x := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case int64:
		if x > maxExactInt || x < -maxExactInt {
			return structpb.NewStringValue(strconv.FormatInt(x, 10)), nil
		}
		return structpb.NewNumberValue(float64(x)), nil
	case int:
		return toValue(int64(x))
	case uint64:
		if x > maxExactInt {
			return structpb.NewStringValue(strconv.FormatUint(x, 10)), nil
		}
		return structpb.NewNumberValue(float64(x)), nil
	case uint:
		return toValue(uint64(x))
	case time.Time:
		return structpb.NewStringValue(x.UTC().Format(time.RFC3339Nano)), nil
	case []byte:
		if utf8.Valid(x) {
			return structpb.NewStringValue(string(x)), nil
		}
		return structpb.NewValue(x)
	}
	value, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported value of type %T: %w", v, err)
	}
	return value, nil
}

func rowToList(row []any) (*structpb.ListValue, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, len(row))}
	for i, v := range row {
		value, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		list.Values[i] = value
	}
	return list, nil
}

func columnsToList(columns []session.Column) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, len(columns))}
	for i, c := range columns {
		list.Values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":     structpb.NewStringValue(c.Name),
			"type":     structpb.NewStringValue(c.TypeName),
			"nullable": structpb.NewBoolValue(c.Nullable),
		}})
	}
	return list
}

func listToColumns(list *structpb.ListValue) []session.Column {
	columns := make([]session.Column, len(list.GetValues()))
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		columns[i] = session.Column{
			Name:     fields["name"].GetStringValue(),
			TypeName: fields["type"].GetStringValue(),
			Nullable: fields["nullable"].GetBoolValue(),
		}
	}
	return columns
}
