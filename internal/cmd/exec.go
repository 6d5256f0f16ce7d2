// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/nadrama-com/dbsession/internal/config"
	"github.com/nadrama-com/dbsession/internal/connection"
	"github.com/spf13/cobra"
)

func newExecCmd(logger log.Logger, c *config.Config) *cobra.Command {
	var commit bool
	cmd := &cobra.Command{
		Use:   "exec [flags] [SQL...]",
		Short: "Execute statements, reading one from stdin when none are given",
		Long: `exec runs each argument as a statement on its own cursor and prints result sets as tables.
Work is rolled back on exit unless --commit is given.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			statements := args
			if len(statements) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				statements = []string{string(data)}
			}

			ctx, cancel := signalContext()
			defer cancel()

			conn, err := connect(ctx, c, logger)
			if err != nil {
				logFailure(logger, "failed to connect", err)
				return err
			}
			defer conn.Close()

			if err := runStatements(ctx, conn, statements, commit, cmd.OutOrStdout()); err != nil {
				logFailure(logger, "exec failed", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "Commit after all statements succeed")
	return cmd
}

// runStatements executes each statement on a new cursor of conn and renders
// its result to out. Blank statements are skipped.
func runStatements(ctx context.Context, conn *connection.Connection, statements []string, commit bool, out io.Writer) error {
	for _, statement := range statements {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		cur, err := conn.Cursor()
		if err != nil {
			return err
		}
		if err := cur.Execute(ctx, statement); err != nil {
			return err
		}
		if err := renderResult(out, cur); err != nil {
			return err
		}
		if err := cur.Close(); err != nil {
			return err
		}
	}
	if commit {
		if err := conn.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}
