// Package cli provides the sqlens command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/sqlens/sqlens/config"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	cfgFile string
	cfg     config.Config
)

// NewRootCmd creates and returns the root command. Running it without a
// subcommand serves MCP over stdio, which is how MCP clients launch the
// binary.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlens",
		Short: "Read-only SQL access for agents over MCP",
		Long: `sqlens exposes one or more SQL databases to MCP clients through
read-only tools: database listing, schema introspection, table
descriptions and gated SELECT queries.

Databases are declared in sqlens.yaml or through SQLENS_DB_<NAME>
environment variables. With no declaration at all, a local SQLite
database is served.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			return err
		},
		RunE: func(*cobra.Command, []string) error {
			return runServe()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sqlens.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newDoctorCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger writes to stderr; stdout is reserved for MCP framing and
// command output.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
}
