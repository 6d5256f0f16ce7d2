// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"testing"

	"github.com/go-kit/log"
	"github.com/nadrama-com/dbsession/internal/config"
)

func TestExportKey(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		expect string
	}{
		{"", "daily.dbx", "exports/daily.dbx"},
		{"team", "daily.dbx", "team/exports/daily.dbx"},
		{"team/", "daily.dbx", "team/exports/daily.dbx"},
		{"", "", "exports"},
	}
	for _, test := range tests {
		if got := exportKey(test.prefix, test.name); got != test.expect {
			t.Errorf("exportKey(%q, %q) = %q, want %q", test.prefix, test.name, got, test.expect)
		}
	}
}

func TestNewRequiresS3Enabled(t *testing.T) {
	cfg, err := config.Init(log.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.S3Enabled() {
		t.Skip("S3 enabled in environment")
	}
	if _, err := New(context.Background(), cfg, log.NewNopLogger()); err == nil {
		t.Error("New() with S3 disabled = nil error, want error")
	}
}
