// Package handlers implements the tool operations behind the serving
// surface: database overview, table listing, table description, gated query
// execution and schema introspection. Every operation resolves its target
// database through the connection manager first.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sqlens/sqlens/databases"
	"github.com/sqlens/sqlens/introspect"
	"github.com/sqlens/sqlens/registry"
	"github.com/sqlens/sqlens/safety"
)

// maxSampleLimit caps caller-supplied sample sizes.
const maxSampleLimit = 100

// DatabaseProvider resolves logical names to live database handles.
// *databases.Manager is the production implementation.
type DatabaseProvider interface {
	Get(ctx context.Context, requested string) (string, databases.Database, error)
	Registry() *registry.Registry
}

// Router dispatches the tool operations. Typed domain errors (unknown or
// ambiguous database, rejected statement, missing table) reach the caller
// with their message intact; backend failures are wrapped and logged.
type Router struct {
	manager      DatabaseProvider
	introspector *introspect.Introspector
	logger       *slog.Logger
	maxRows      int
	sampleLimit  int
}

func NewRouter(manager DatabaseProvider, logger *slog.Logger, maxRows, sampleLimit int) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRows <= 0 {
		maxRows = 50
	}
	if sampleLimit <= 0 {
		sampleLimit = 5
	}

	return &Router{
		manager:      manager,
		introspector: introspect.New(logger),
		logger:       logger,
		maxRows:      maxRows,
		sampleLimit:  sampleLimit,
	}
}

// ListDatabases renders the configured databases as markdown without
// opening any connections; engines are detected from the targets alone.
func (r *Router) ListDatabases() string {
	reg := r.manager.Registry()

	engines := make(map[string]string, reg.Len())
	for _, entry := range reg.Entries() {
		engine, err := databases.DetectEngine(entry.URL)
		if err != nil {
			continue
		}
		engines[entry.Name] = engine
	}

	return r.introspector.Overview(reg, engines)
}

// ListTables returns a JSON object mapping each schema of the resolved
// database to its sorted tables.
func (r *Router) ListTables(ctx context.Context, database string) (string, error) {
	_, db, err := r.manager.Get(ctx, database)
	if err != nil {
		return "", err
	}

	listing, err := r.introspector.ListSchemasAndTables(ctx, db, "")
	if err != nil {
		return "", err
	}

	return marshal(listing)
}

// DescribeTable returns the table descriptor as JSON. Row count and a small
// sample are attached best-effort; their failures degrade the descriptor
// instead of failing the call.
func (r *Router) DescribeTable(ctx context.Context, table, database, schema string) (string, error) {
	name, db, err := r.manager.Get(ctx, database)
	if err != nil {
		return "", err
	}

	desc, err := r.introspector.DescribeTable(ctx, db, r.label(name), schema, table)
	if err != nil {
		return "", err
	}

	if count, err := db.RowCount(ctx, schema, table); err == nil {
		desc.RowCount = count
	} else {
		r.logger.Debug("row count unavailable", "database", name, "table", table, "error", err)
	}

	if sample, err := db.Sample(ctx, schema, table, r.sampleLimit); err == nil {
		desc.Sample = sample
	} else {
		r.logger.Debug("sample unavailable", "database", name, "table", table, "error", err)
	}

	desc.Database = r.label(name)

	return marshal(desc)
}

// RunQuery executes one read statement on the resolved database. The strict
// gate runs before any resolution or backend contact; advisory findings and
// a truncation note ride along as warnings in the result.
func (r *Router) RunQuery(ctx context.Context, query, database string) (string, error) {
	if err := safety.Gate(query); err != nil {
		return "", err
	}

	verdict := safety.Check(query)

	name, db, err := r.manager.Get(ctx, database)
	if err != nil {
		return "", err
	}

	result, err := db.Query(ctx, query)
	if err != nil {
		r.logger.Error("query failed", "database", name, "error", err)
		return "", &databases.QueryError{Database: name, Err: err}
	}

	warnings := append([]string{}, verdict.Warnings...)
	if len(result.Rows) > r.maxRows {
		result.Rows = result.Rows[:r.maxRows]
		result.RowCount = len(result.Rows)
		warnings = append(warnings, fmt.Sprintf("Result truncated to first %d rows.", r.maxRows))
	}
	result.Warnings = warnings

	return marshal(result)
}

// Introspect renders the markdown schema report: a table listing when table
// is empty, a single-table report otherwise.
func (r *Router) Introspect(ctx context.Context, table, schema, database string, includeSamples bool, sampleLimit int) (string, error) {
	if sampleLimit <= 0 {
		sampleLimit = r.sampleLimit
	}
	if sampleLimit > maxSampleLimit {
		sampleLimit = maxSampleLimit
	}

	name, db, err := r.manager.Get(ctx, database)
	if err != nil {
		return "", err
	}

	if table == "" {
		return r.introspector.TableListing(ctx, db, r.label(name), schema)
	}

	return r.introspector.TableReport(ctx, db, r.label(name), schema, table, includeSamples, sampleLimit)
}

// label returns the database name to include in rendered output, empty in
// single-database deployments.
func (r *Router) label(name string) string {
	if r.manager.Registry().Len() > 1 {
		return name
	}
	return ""
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(data), nil
}
