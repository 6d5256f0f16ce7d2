// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/go-kit/log"
	"github.com/nadrama-com/dbsession/internal/config"
	"github.com/nadrama-com/dbsession/internal/s3client"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newExportsCmd(logger log.Logger, c *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:          "exports",
		Short:        "List export files uploaded to S3",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.S3Enabled() {
				return errors.New("exports requires DBSESSION_S3_ENABLED=true")
			}
			ctx, cancel := signalContext()
			defer cancel()

			s3Client, err := s3client.New(ctx, c, logger)
			if err != nil {
				return err
			}
			files, err := s3Client.ListExports(ctx)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Name", "Key", "Size"})
			for _, f := range files {
				table.Append([]string{f.Name, f.Key, humanSize(f.Size)})
			}
			table.Render()
			return nil
		},
	}
}

// humanSize formats a byte count with a binary unit
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
