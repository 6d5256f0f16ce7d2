// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/nadrama-com/dbsession/internal/config"
	"github.com/nadrama-com/dbsession/internal/connection"
	"github.com/nadrama-com/dbsession/internal/export"
	"github.com/nadrama-com/dbsession/internal/s3client"
	"github.com/spf13/cobra"
)

func newExportCmd(logger log.Logger, c *config.Config) *cobra.Command {
	var query, name string
	var upload bool
	cmd := &cobra.Command{
		Use:          "export --query SQL --name NAME",
		Short:        "Write the result set of a query to an export file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if upload && !c.S3Enabled() {
				return errors.New("--upload requires DBSESSION_S3_ENABLED=true")
			}
			ctx, cancel := signalContext()
			defer cancel()

			conn, err := connect(ctx, c, logger)
			if err != nil {
				logFailure(logger, "failed to connect", err)
				return err
			}
			defer conn.Close()

			if err := os.MkdirAll(c.ExportsDir(), 0o755); err != nil {
				return fmt.Errorf("failed to create exports dir: %w", err)
			}
			path := filepath.Join(c.ExportsDir(), name+export.FileExtension)
			header := export.Header{
				Query:       query,
				InstanceID:  c.InstanceID(),
				Compression: export.Compression(c.ExportCompression()),
			}
			count, err := exportQuery(ctx, conn, path, header)
			if err != nil {
				logFailure(logger, "export failed", err)
				return err
			}
			level.Info(logger).Log("msg", "export written", "path", path, "rows", count)

			if upload {
				s3Client, err := s3client.New(ctx, c, logger)
				if err != nil {
					return err
				}
				if _, err := s3Client.UploadExport(ctx, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "Query whose result set is exported")
	cmd.Flags().StringVar(&name, "name", "", "Export file name, without extension")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the export file to S3")
	cmd.MarkFlagRequired("query")
	cmd.MarkFlagRequired("name")
	return cmd
}

// exportQuery runs query on a new cursor and writes its result set to path.
// A partially written file is removed.
func exportQuery(ctx context.Context, conn *connection.Connection, path string, header export.Header) (int64, error) {
	cur, err := conn.Cursor()
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	if err := cur.Execute(ctx, header.Query); err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	count, err := export.WriteCursor(bufio.NewWriter(file), cur, header)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return count, nil
}
