// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/nadrama-com/dbsession/internal/buildvars"
	"github.com/nadrama-com/dbsession/internal/config"
	"github.com/nadrama-com/dbsession/internal/connection"
	"github.com/nadrama-com/dbsession/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dbsession",
	Short: "dbsession",
	Long:  `dbsession runs statements and exports result sets through a single managed database connection.`,
}

func init() {
	pflags := rootCmd.PersistentFlags()
	pflags.BoolP("verbose", "v", false, "Enable verbose output")
	pflags.Bool("version", false, "Show version information")
	pflags.Lookup("verbose").NoOptDefVal = "true"
	pflags.VisitAll(func(flag *pflag.Flag) {
		viper.BindPFlag(flag.Name, flag)
	})
}

func NewRootCmd() *cobra.Command {
	// Create logger
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	// Initialize config
	c, err := config.Init(logger)
	if err != nil {
		fmt.Println("Error initializing config:", err)
		os.Exit(1)
	}

	// Apply log level filtering based on verbose setting
	if !c.Verbose() {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	// Define root command
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		// check for version flag
		if viper.GetBool("version") {
			fmt.Printf("dbsession %s\n", buildvars.BuildVersion())
			if c.Verbose() {
				for _, detail := range buildvars.Details() {
					fmt.Printf("%s: %s\n", detail[0], detail[1])
				}
			}
			return
		}
		cmd.Help()
	}

	// validate config before any subcommand touches the database
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd == rootCmd {
			return nil
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config/environment variables: %w", err)
		}
		level.Debug(logger).Log("msg", "config validated", "environment", c.Environment(), "driver", c.Driver(), "command", cmd.Name())
		return nil
	}

	rootCmd.AddCommand(
		newExecCmd(logger, c),
		newExportCmd(logger, c),
		newExportsCmd(logger, c),
		newConfigCmd(),
	)
	return rootCmd
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// connect opens the configured database
func connect(ctx context.Context, c *config.Config, logger log.Logger) (*connection.Connection, error) {
	if session.IsSQLite(c.Driver()) {
		if err := os.MkdirAll(c.DataDir(), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	return connection.Connect(ctx, connection.Options{
		Driver:     c.Driver(),
		DSN:        c.DSN(),
		Autocommit: c.Autocommit(),
		Logger:     logger,
	})
}

// logFailure logs err with its error kind
func logFailure(logger log.Logger, msg string, err error) {
	level.Error(logger).Log("msg", msg, "kind", connection.KindOf(err), "err", err)
}
