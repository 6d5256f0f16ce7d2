// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"hash/crc64"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// structpb fields are maps, so checksummed messages are always marshalled
// deterministically
var marshalOptions = proto.MarshalOptions{Deterministic: true}

// checksum returns the CRC of s with its "crc" field removed
func checksum(s *structpb.Struct) (uint64, error) {
	clone := proto.Clone(s).(*structpb.Struct)
	delete(clone.Fields, "crc")
	data, err := marshalOptions.Marshal(clone)
	if err != nil {
		return 0, err
	}
	return crc64.Checksum(data, crcTable), nil
}

// CRCs do not fit a structpb number, so they are stored as hex strings
func formatCRC(crc uint64) string {
	return strconv.FormatUint(crc, 16)
}

func parseCRC(v *structpb.Value) (uint64, error) {
	return strconv.ParseUint(v.GetStringValue(), 16, 64)
}
