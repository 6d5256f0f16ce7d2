// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bufio"
	"fmt"
	"hash"
	"hash/crc64"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/nadrama-com/dbsession/internal/session"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"
)

const fileKind = "dbsession-export"

// FileExtension is used for export files written by the CLI.
const FileExtension = ".dbx"

type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// Header describes an export file. It is always written uncompressed.
type Header struct {
	Query       string
	Columns     []session.Column
	RowsCount   int64
	CreatedAt   time.Time
	InstanceID  string
	Compression Compression
}

// Writer writes a result set as a header, one message per row, and a
// footer carrying the CRC of all rows.
type Writer struct {
	buffer       *bufio.Writer
	compressor   *zstd.Encoder
	recordWriter io.Writer // Either compressor or buffer directly for rows/footer
	hasher       hash.Hash64
	columns      int
	rowsCount    int64
	lastCount    int64
}

func NewWriter(buffer *bufio.Writer, header Header) (*Writer, error) {
	switch header.Compression {
	case "":
		header.Compression = CompressionZstd
	case CompressionNone, CompressionZstd:
	default:
		return nil, fmt.Errorf("unknown compression %q", header.Compression)
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now()
	}

	w := &Writer{
		buffer:    buffer,
		hasher:    crc64.New(crcTable),
		columns:   len(header.Columns),
		rowsCount: header.RowsCount,
	}

	headerStruct := &structpb.Struct{Fields: map[string]*structpb.Value{
		"kind":        structpb.NewStringValue(fileKind),
		"query":       structpb.NewStringValue(header.Query),
		"columns":     structpb.NewListValue(columnsToList(header.Columns)),
		"rows_count":  structpb.NewNumberValue(float64(header.RowsCount)),
		"created_at":  structpb.NewStringValue(header.CreatedAt.UTC().Format(time.RFC3339Nano)),
		"instance_id": structpb.NewStringValue(header.InstanceID),
		"compression": structpb.NewStringValue(string(header.Compression)),
	}}
	crc, err := checksum(headerStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	headerStruct.Fields["crc"] = structpb.NewStringValue(formatCRC(crc))

	// Write header directly to buffer (always uncompressed)
	if _, err = protodelim.MarshalTo(buffer, headerStruct); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	w.recordWriter = buffer
	if header.Compression == CompressionZstd {
		compressor, err := zstd.NewWriter(buffer)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd compressor: %w", err)
		}
		w.compressor = compressor
		w.recordWriter = compressor
	}
	return w, nil
}

func (w *Writer) Write(row []any) error {
	if len(row) != w.columns {
		return fmt.Errorf("row %d has %d columns, expected %d", w.lastCount, len(row), w.columns)
	}
	list, err := rowToList(row)
	if err != nil {
		return fmt.Errorf("failed to convert row %d: %w", w.lastCount, err)
	}
	data, err := marshalOptions.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal row %d: %w", w.lastCount, err)
	}
	if _, err = protodelim.MarshalTo(w.recordWriter, list); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.lastCount, err)
	}
	if _, err = w.hasher.Write(data); err != nil {
		return fmt.Errorf("failed to add row to rows CRC: %w", err)
	}
	w.lastCount++
	return nil
}

func (w *Writer) Close() error {
	if w.lastCount != w.rowsCount {
		return fmt.Errorf("last count %d does not match expected count %d", w.lastCount, w.rowsCount)
	}

	footer := &structpb.Struct{Fields: map[string]*structpb.Value{
		"rows_count": structpb.NewNumberValue(float64(w.lastCount)),
		"rows_crc":   structpb.NewStringValue(formatCRC(w.hasher.Sum64())),
	}}
	crc, err := checksum(footer)
	if err != nil {
		return fmt.Errorf("failed to marshal footer: %w", err)
	}
	footer.Fields["crc"] = structpb.NewStringValue(formatCRC(crc))

	if _, err = protodelim.MarshalTo(w.recordWriter, footer); err != nil {
		return fmt.Errorf("failed to write footer: %w", err)
	}

	// Close compressor if it exists (flushes and finalizes compression)
	if w.compressor != nil {
		if err = w.compressor.Close(); err != nil {
			return fmt.Errorf("failed to close compressor: %w", err)
		}
	}
	return w.buffer.Flush()
}
