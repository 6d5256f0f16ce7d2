// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bufio"
	"errors"
	"fmt"
	"hash"
	"hash/crc64"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"
)

type Reader struct {
	buffer       *bufio.Reader
	decompressor *zstd.Decoder
	reader       *bufio.Reader // Either decompressed or raw buffer
	hasher       hash.Hash64
	header       Header
	lastCount    int64
}

type ReadResults struct {
	RowsCount int64
	RowsCRC   uint64
}

func NewReader(buffer *bufio.Reader) (*Reader, error) {
	// Always read header uncompressed first
	var headerStruct structpb.Struct
	if err := protodelim.UnmarshalFrom(buffer, &headerStruct); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	fields := headerStruct.GetFields()
	if kind := fields["kind"].GetStringValue(); kind != fileKind {
		return nil, fmt.Errorf("unexpected file kind %q", kind)
	}

	expectedCrc, err := parseCRC(fields["crc"])
	if err != nil {
		return nil, fmt.Errorf("invalid header CRC: %w", err)
	}
	actualCrc, err := checksum(&headerStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	if expectedCrc != actualCrc {
		return nil, fmt.Errorf("header CRC %d mismatch - expected %d", actualCrc, expectedCrc)
	}

	header := Header{
		Query:       fields["query"].GetStringValue(),
		Columns:     listToColumns(fields["columns"].GetListValue()),
		RowsCount:   int64(fields["rows_count"].GetNumberValue()),
		InstanceID:  fields["instance_id"].GetStringValue(),
		Compression: Compression(fields["compression"].GetStringValue()),
	}
	if header.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"].GetStringValue()); err != nil {
		return nil, fmt.Errorf("invalid header created_at: %w", err)
	}

	var decompressor *zstd.Decoder
	var recordReader io.Reader = buffer
	switch header.Compression {
	case CompressionZstd:
		decompressor, err = zstd.NewReader(buffer)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decompressor: %w", err)
		}
		recordReader = decompressor
	case CompressionNone:
	default:
		return nil, fmt.Errorf("unknown compression %q in header", header.Compression)
	}

	return &Reader{
		buffer:       buffer,
		decompressor: decompressor,
		reader:       bufio.NewReader(recordReader),
		hasher:       crc64.New(crcTable),
		header:       header,
	}, nil
}

func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) Count() int64 {
	return r.header.RowsCount
}

// Read returns the next row. Callers read exactly Count rows, then Close.
func (r *Reader) Read() (*structpb.ListValue, error) {
	row := &structpb.ListValue{}
	err := protodelim.UnmarshalFrom(r.reader, row)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected end of file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal row %d: %w", r.lastCount, err)
	}
	data, err := marshalOptions.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row %d: %w", r.lastCount, err)
	}
	if _, err = r.hasher.Write(data); err != nil {
		return nil, fmt.Errorf("failed to add row to CRC: %w", err)
	}
	r.lastCount++
	return row, nil
}

// Close verifies the footer against the rows read.
func (r *Reader) Close() (ReadResults, error) {
	if r.decompressor != nil {
		defer r.decompressor.Close()
	}
	if r.lastCount != r.header.RowsCount {
		return ReadResults{}, fmt.Errorf("last count %d does not match expected count %d", r.lastCount, r.header.RowsCount)
	}

	var footer structpb.Struct
	if err := protodelim.UnmarshalFrom(r.reader, &footer); err != nil {
		return ReadResults{}, fmt.Errorf("failed to unmarshal footer: %w", err)
	}
	fields := footer.GetFields()
	expectedCrc, err := parseCRC(fields["crc"])
	if err != nil {
		return ReadResults{}, fmt.Errorf("invalid footer CRC: %w", err)
	}
	actualCrc, err := checksum(&footer)
	if err != nil {
		return ReadResults{}, fmt.Errorf("failed to marshal footer: %w", err)
	}
	if expectedCrc != actualCrc {
		return ReadResults{}, fmt.Errorf("footer CRC %d mismatch - expected %d", actualCrc, expectedCrc)
	}

	expectedRowsCrc, err := parseCRC(fields["rows_crc"])
	if err != nil {
		return ReadResults{}, fmt.Errorf("invalid rows CRC: %w", err)
	}
	rowsCrc := r.hasher.Sum64()
	if expectedRowsCrc != rowsCrc {
		return ReadResults{}, fmt.Errorf("rows CRC %d mismatch - expected %d", rowsCrc, expectedRowsCrc)
	}
	if footerCount := int64(fields["rows_count"].GetNumberValue()); footerCount != r.lastCount {
		return ReadResults{}, fmt.Errorf("footer count %d does not match rows read %d", footerCount, r.lastCount)
	}

	return ReadResults{
		RowsCount: r.lastCount,
		RowsCRC:   rowsCrc,
	}, nil
}
