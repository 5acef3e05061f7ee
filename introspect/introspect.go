// Package introspect renders schema and table reports over the database
// capability surface. Reports are markdown shaped for tool consumers; row
// counts and sample rows degrade to placeholders instead of failing a
// report.
package introspect

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlens/sqlens/databases"
	"github.com/sqlens/sqlens/registry"
	"github.com/sqlens/sqlens/types"
)

// sampleCellMax bounds rendered sample cells, in runes.
const sampleCellMax = 30

type Introspector struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Introspector{logger: logger}
}

// Overview renders the configured databases as markdown. engines maps
// logical names to engine labels detected from their targets; names missing
// from the map render without one.
func (in *Introspector) Overview(reg *registry.Registry, engines map[string]string) string {
	lines := []string{"## Databases", ""}

	for _, entry := range reg.Entries() {
		line := fmt.Sprintf("- **%s**", entry.Name)
		if engine := engines[entry.Name]; engine != "" {
			line += fmt.Sprintf(" (%s)", engine)
		}
		if entry.Description != "" {
			line += ": " + entry.Description
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", "These databases are read-only.")
	if reg.Len() > 1 {
		lines = append(lines, "Pass `database` to list_tables, describe_table, run_sql_query or introspect_schema to pick one.")
	}

	return strings.Join(lines, "\n")
}

// ListSchemasAndTables maps each schema to its sorted tables. Engines keep
// system schemas out of the unfiltered listing; an explicit schemaFilter is
// queried as given, so naming a system schema works.
func (in *Introspector) ListSchemasAndTables(ctx context.Context, db databases.Database, schemaFilter string) (map[string][]string, error) {
	if schemaFilter != "" {
		tables, err := db.Tables(ctx, schemaFilter)
		if err != nil {
			return nil, err
		}
		if len(tables) == 0 {
			if err := in.verifySchema(ctx, db, schemaFilter); err != nil {
				return nil, err
			}
		}
		return map[string][]string{schemaFilter: tables}, nil
	}

	schemas, err := db.Schemas(ctx)
	if err != nil {
		return nil, err
	}

	listing := make(map[string][]string, len(schemas))
	for _, schema := range schemas {
		tables, err := db.Tables(ctx, schema)
		if err != nil {
			return nil, err
		}
		listing[schema] = tables
	}

	return listing, nil
}

// verifySchema turns a filter missing from the engine's schema listing into
// a SchemaNotFoundError. A schema listing that itself fails passes; the
// caller already has a result to return.
func (in *Introspector) verifySchema(ctx context.Context, db databases.Database, schema string) error {
	schemas, err := db.Schemas(ctx)
	if err != nil || slices.Contains(schemas, schema) {
		return nil
	}

	sort.Strings(schemas)
	return &SchemaNotFoundError{Schema: schema, Available: schemas}
}

// TableListing renders the tables of one schema (the engine default when
// empty) with best-effort row counts. A count that fails drops the count
// from that line and moves on.
func (in *Introspector) TableListing(ctx context.Context, db databases.Database, dbLabel, schema string) (string, error) {
	tables, err := db.Tables(ctx, schema)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 && schema != "" {
		if err := in.verifySchema(ctx, db, schema); err != nil {
			return "", err
		}
	}

	if len(tables) == 0 {
		if dbLabel != "" {
			return fmt.Sprintf("No tables found in '%s'.", dbLabel), nil
		}
		return "No tables found.", nil
	}

	var lines []string
	if dbLabel != "" {
		lines = []string{fmt.Sprintf("## Tables (%s)", dbLabel), ""}
	} else {
		lines = []string{"## Tables", ""}
	}

	for _, table := range tables {
		count, err := db.RowCount(ctx, schema, table)
		if err != nil {
			in.logger.Debug("row count unavailable", "table", table, "error", err)
			lines = append(lines, fmt.Sprintf("- **%s**", table))
			continue
		}
		lines = append(lines, fmt.Sprintf("- **%s** (%s rows)", table, groupDigits(count)))
	}

	return strings.Join(lines, "\n"), nil
}

// DescribeTable verifies the table exists in the schema before asking the
// engine to describe it, so a miss carries the available-table list.
func (in *Introspector) DescribeTable(ctx context.Context, db databases.Database, dbLabel, schema, table string) (*types.TableDescription, error) {
	tables, err := db.Tables(ctx, schema)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(tables, table) {
		available := append([]string(nil), tables...)
		sort.Strings(available)
		return nil, &TableNotFoundError{Table: table, Database: dbLabel, Available: available}
	}

	return db.DescribeTable(ctx, schema, table)
}

// TableReport renders one table as markdown: a columns table, the primary
// key when one exists and, on request, a bounded sample. Sample failures
// render as an error line inside the report.
func (in *Introspector) TableReport(ctx context.Context, db databases.Database, dbLabel, schema, table string, includeSamples bool, sampleLimit int) (string, error) {
	desc, err := in.DescribeTable(ctx, db, dbLabel, schema, table)
	if err != nil {
		return "", err
	}

	var lines []string
	if dbLabel != "" {
		lines = []string{fmt.Sprintf("## %s (%s)", table, dbLabel), ""}
	} else {
		lines = []string{fmt.Sprintf("## %s", table), ""}
	}

	if len(desc.Columns) > 0 {
		lines = append(lines, "### Columns", "", "| Column | Type | Nullable |", "| --- | --- | --- |")
		for _, col := range desc.Columns {
			nullable := "No"
			if col.Nullable {
				nullable = "Yes"
			}
			lines = append(lines, fmt.Sprintf("| %s | %s | %s |", col.Name, col.Type, nullable))
		}
		lines = append(lines, "")
	}

	if len(desc.PrimaryKeys) > 0 {
		lines = append(lines, fmt.Sprintf("**Primary Key:** %s", strings.Join(desc.PrimaryKeys, ", ")), "")
	}

	if includeSamples {
		lines = append(lines, "### Sample")
		lines = in.appendSample(ctx, lines, db, schema, table, sampleLimit)
	}

	return strings.Join(lines, "\n"), nil
}

func (in *Introspector) appendSample(ctx context.Context, lines []string, db databases.Database, schema, table string, limit int) []string {
	sample, err := db.Sample(ctx, schema, table, limit)
	if err != nil {
		in.logger.Debug("sample unavailable", "table", table, "error", err)
		return append(lines, fmt.Sprintf("_Error: %v_", err))
	}

	if len(sample.Rows) == 0 {
		return append(lines, "_No data_")
	}

	separators := make([]string, len(sample.Columns))
	for i := range separators {
		separators[i] = "---"
	}
	lines = append(lines,
		"| "+strings.Join(sample.Columns, " | ")+" |",
		"| "+strings.Join(separators, " | ")+" |")

	for _, row := range sample.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = renderCell(v)
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
	}

	return lines
}

// renderCell stringifies one sample value. SQL NULL renders as the literal
// NULL; everything else, zero values included, renders as itself truncated
// to sampleCellMax runes.
func renderCell(v any) string {
	if v == nil {
		return "NULL"
	}

	s := fmt.Sprintf("%v", v)
	runes := []rune(s)
	if len(runes) > sampleCellMax {
		return string(runes[:sampleCellMax])
	}
	return s
}

// groupDigits formats n with comma thousands separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	return sign + b.String()
}
