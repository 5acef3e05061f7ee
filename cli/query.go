package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sqlens/sqlens/databases"
	"github.com/sqlens/sqlens/registry"
	"github.com/sqlens/sqlens/safety"
	"github.com/sqlens/sqlens/types"
)

type queryOptions struct {
	Database string
	Format   string
}

func newQueryCommand() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a read-only query against a configured database",
		Long: `Query executes one statement through the same safety gate the MCP tools
use and prints the result. SQL is taken from the arguments or, when
absent, from stdin. Advisory warnings go to stderr.`,
		Example: `  # Query the single configured database
  sqlens query "SELECT id, name FROM users LIMIT 10"

  # Pick a database and emit JSON
  sqlens query --database sales --format json "SELECT region FROM orders LIMIT 5"

  # Piped input
  echo "SELECT COUNT(*) AS n FROM events" | sqlens query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "logical database name")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "output format: table, md, json")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *queryOptions) error {
	query, err := readSQL(args)
	if err != nil {
		return err
	}

	if err := safety.Gate(query); err != nil {
		return err
	}
	for _, warning := range safety.Check(query).Warnings {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}

	logger := newLogger(cfg.SlogLevel())
	reg := registry.Build(cfg, os.Environ(), logger)
	manager := databases.NewManager(reg, logger)
	defer func() { _ = manager.Close() }()

	name, db, err := manager.Get(cmd.Context(), opts.Database)
	if err != nil {
		return err
	}

	result, err := db.Query(cmd.Context(), query)
	if err != nil {
		return &databases.QueryError{Database: name, Err: err}
	}

	return renderResult(cmd.OutOrStdout(), result, opts.Format)
}

// readSQL joins the arguments or falls back to piped stdin.
func readSQL(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if isTerminal(os.Stdin) {
		return "", fmt.Errorf("no SQL given: pass a statement or pipe it on stdin")
	}
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(content), nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func renderResult(w io.Writer, result *types.QueryResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "md", "markdown":
		return renderMarkdown(w, result)
	case "table":
		return renderTable(w, result)
	default:
		return fmt.Errorf("unknown format %q (expected table, md or json)", format)
	}
}

func renderTable(w io.Writer, result *types.QueryResult) error {
	if len(result.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, rowMap := range result.Rows {
		row := make(table.Row, len(result.Columns))
		for i, col := range result.Columns {
			row[i] = formatValue(rowMap[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", result.RowCount)
	return nil
}

func renderMarkdown(w io.Writer, result *types.QueryResult) error {
	if len(result.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(result.Columns, " | "))
	seps := make([]string, len(result.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, rowMap := range result.Rows {
		values := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			values[i] = formatValue(rowMap[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
