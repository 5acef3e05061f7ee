// Package mcp wires the router's operations into MCP tools.
package mcp

import (
	"context"
	"fmt"

	goMCP "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sqlens/sqlens/handlers"
)

// RegisterTools declares the five tools on the server. multi switches the
// `database` parameter hints for deployments with several databases.
func RegisterTools(s *server.MCPServer, router *handlers.Router, multi bool) {
	// Overview tool
	listDatabasesTool := goMCP.NewTool("list_databases",
		goMCP.WithDescription("List the configured databases with their descriptions"),
	)

	// Listing tool
	listTablesTool := goMCP.NewTool("list_tables",
		goMCP.WithDescription("List all tables in a database, grouped by schema"),
		goMCP.WithString("database",
			goMCP.Description(databaseHint(multi)),
		),
	)

	// Descriptor tool
	describeTableTool := goMCP.NewTool("describe_table",
		goMCP.WithDescription("Describe a table: columns, primary key and row count"),
		goMCP.WithString("table_name",
			goMCP.Required(),
			goMCP.Description("Name of the table to describe"),
		),
		goMCP.WithString("database",
			goMCP.Description(databaseHint(multi)),
		),
		goMCP.WithString("schema",
			goMCP.Description("Schema holding the table. Defaults to the engine's default schema"),
		),
	)

	// Query tool
	runQueryTool := goMCP.NewTool("run_sql_query",
		goMCP.WithDescription("Execute a read-only SQL query (SELECT statements only)"),
		goMCP.WithString("query",
			goMCP.Required(),
			goMCP.Description("SQL query to execute"),
		),
		goMCP.WithString("database",
			goMCP.Description(databaseHint(multi)),
		),
	)

	// Report tool
	introspectTool := goMCP.NewTool("introspect_schema",
		goMCP.WithDescription("Inspect database schema at runtime as markdown. Without table_name, lists all tables with row counts"),
		goMCP.WithString("table_name",
			goMCP.Description("Table to inspect. If empty, lists all tables"),
		),
		goMCP.WithString("schema",
			goMCP.Description("Restrict the listing to one schema, or locate the table in it"),
		),
		goMCP.WithBoolean("include_sample_data",
			goMCP.Description("Include sample rows in the report (default: false)"),
		),
		goMCP.WithNumber("sample_limit",
			goMCP.Description("Number of sample rows (default: 5, max: 100)"),
		),
		goMCP.WithString("database",
			goMCP.Description(databaseHint(multi)),
		),
	)

	s.AddTool(listDatabasesTool, listDatabasesHandler(router))
	s.AddTool(listTablesTool, listTablesHandler(router))
	s.AddTool(describeTableTool, describeTableHandler(router))
	s.AddTool(runQueryTool, runQueryHandler(router))
	s.AddTool(introspectTool, introspectHandler(router))
}

func databaseHint(multi bool) string {
	if multi {
		return "Logical database name. Required when several databases are configured"
	}
	return "Logical database name. Optional in single-database mode"
}

func listDatabasesHandler(router *handlers.Router) func(context.Context, goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
	return func(ctx context.Context, request goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
		return goMCP.NewToolResultText(router.ListDatabases()), nil
	}
}

func listTablesHandler(router *handlers.Router) func(context.Context, goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
	return func(ctx context.Context, request goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
		database := request.GetString("database", "")

		listing, err := router.ListTables(ctx, database)
		if err != nil {
			return goMCP.NewToolResultError(err.Error()), nil
		}

		return goMCP.NewToolResultText(listing), nil
	}
}

func describeTableHandler(router *handlers.Router) func(context.Context, goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
	return func(ctx context.Context, request goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
		table, err := request.RequireString("table_name")
		if err != nil {
			return goMCP.NewToolResultError(fmt.Sprintf("Missing table_name parameter: %v", err)), nil
		}

		database := request.GetString("database", "")
		schema := request.GetString("schema", "")

		desc, err := router.DescribeTable(ctx, table, database, schema)
		if err != nil {
			return goMCP.NewToolResultError(err.Error()), nil
		}

		return goMCP.NewToolResultText(desc), nil
	}
}

func runQueryHandler(router *handlers.Router) func(context.Context, goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
	return func(ctx context.Context, request goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return goMCP.NewToolResultError(fmt.Sprintf("Missing query parameter: %v", err)), nil
		}

		database := request.GetString("database", "")

		results, err := router.RunQuery(ctx, query, database)
		if err != nil {
			return goMCP.NewToolResultError(err.Error()), nil
		}

		return goMCP.NewToolResultText(results), nil
	}
}

func introspectHandler(router *handlers.Router) func(context.Context, goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
	return func(ctx context.Context, request goMCP.CallToolRequest) (*goMCP.CallToolResult, error) {
		table := request.GetString("table_name", "")
		schema := request.GetString("schema", "")
		database := request.GetString("database", "")
		includeSamples := request.GetBool("include_sample_data", false)
		sampleLimit := request.GetInt("sample_limit", 0)

		report, err := router.Introspect(ctx, table, schema, database, includeSamples, sampleLimit)
		if err != nil {
			return goMCP.NewToolResultError(err.Error()), nil
		}

		return goMCP.NewToolResultText(report), nil
	}
}
