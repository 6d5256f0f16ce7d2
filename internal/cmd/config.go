// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/nadrama-com/dbsession/internal/config"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Describe config keys and environment variables",
		// runs without config validation
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Key", "Env", "Default", "Description"})
			table.SetAutoWrapText(false)
			for _, row := range config.Describe() {
				table.Append(row[:])
			}
			table.Render()
		},
	}
}
