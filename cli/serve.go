package cli

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/sqlens/sqlens/databases"
	"github.com/sqlens/sqlens/handlers"
	"github.com/sqlens/sqlens/mcp"
	"github.com/sqlens/sqlens/registry"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio",
		Long: `Serve starts the MCP server on stdin/stdout. Running sqlens without a
subcommand does the same; this exists for explicit client configurations.`,
		RunE: func(*cobra.Command, []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger := newLogger(cfg.SlogLevel())

	reg := registry.Build(cfg, os.Environ(), logger)
	manager := databases.NewManager(reg, logger)
	defer func() { _ = manager.Close() }()

	router := handlers.NewRouter(manager, logger, cfg.DefaultLimit, cfg.SampleLimit)

	s := server.NewMCPServer(
		"sqlens",
		Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	mcp.RegisterTools(s, router, reg.Len() > 1)

	logger.Info("serving MCP over stdio", "databases", reg.Names())

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
