// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nadrama-com/dbsession/internal/export"
	"google.golang.org/protobuf/encoding/protojson"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <filename>\n", os.Args[0])
		os.Exit(1)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	reader, err := export.NewReader(bufio.NewReader(file))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	header := reader.Header()
	fmt.Fprintf(os.Stderr, "query: %s\ncreated: %s\nrows: %d\n", header.Query, header.CreatedAt, header.RowsCount)

	for i := int64(0); i < reader.Count(); i++ {
		row, err := reader.Read()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		data, _ := protojson.Marshal(row)
		fmt.Println(string(data))
	}

	if _, err := reader.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
