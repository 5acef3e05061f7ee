// Package sqlite implements the SQLite backend. A connection always exposes
// the single "main" schema.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sqlens/sqlens/types"
)

type SQLiteConnector struct {
	db *sqlx.DB
}

func NewSQLiteConnector(ctx context.Context, target string) (*SQLiteConnector, error) {
	db, err := sqlx.Open("sqlite3", databasePath(target))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	connector := &SQLiteConnector{db: db}

	if err := connector.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

// databasePath strips an optional sqlite scheme from the target. Plain
// paths, :memory: and file: URIs pass through unchanged.
func databasePath(target string) string {
	t := strings.TrimSpace(target)
	lower := strings.ToLower(t)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		return t[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		return t[len("sqlite:"):]
	}
	return t
}

func (c *SQLiteConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLiteConnector) Engine() string {
	return "sqlite"
}

func (c *SQLiteConnector) Schemas(ctx context.Context) ([]string, error) {
	return []string{"main"}, nil
}

func (c *SQLiteConnector) Tables(ctx context.Context, schema string) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	var tables []string
	if err := c.db.SelectContext(ctx, &tables, query); err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	return tables, nil
}

func (c *SQLiteConnector) DescribeTable(ctx context.Context, schema, table string) (*types.TableDescription, error) {
	columns, err := c.loadColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	primaryKeys, err := c.loadPrimaryKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	return &types.TableDescription{
		Name:        table,
		Schema:      "main",
		Columns:     columns,
		PrimaryKeys: primaryKeys,
		RowCount:    -1,
	}, nil
}

func (c *SQLiteConnector) RowCount(ctx context.Context, schema, table string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(table))

	var count int64
	if err := c.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}

	return count, nil
}

// Query runs directly on the pool; go-sqlite3 rejects read-only
// transactions, so statement screening happens before a query reaches this
// point.
func (c *SQLiteConnector) Query(ctx context.Context, sqlQuery string) (*types.QueryResult, error) {
	rows, err := c.db.QueryxContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to query db: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("unable to read columns: %w", err)
	}

	results := []map[string]any{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("unable to scan row: %w", err)
		}
		normalizeRow(row)
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read rows: %w", err)
	}

	return &types.QueryResult{
		Columns:  columns,
		Rows:     results,
		RowCount: len(results),
	}, nil
}

func (c *SQLiteConnector) Sample(ctx context.Context, schema, table string, limit int) (*types.SampleRows, error) {
	if limit <= 0 {
		limit = 5
	}

	query := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(table), limit)

	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sample table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("unable to read columns: %w", err)
	}

	sample := &types.SampleRows{
		Columns: columns,
		Rows:    [][]any{},
	}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("unable to scan row: %w", err)
		}
		sample.Rows = append(sample.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read rows: %w", err)
	}

	return sample, nil
}

func (c *SQLiteConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *SQLiteConnector) loadColumns(ctx context.Context, table string) ([]types.Column, error) {
	query := `
		SELECT name, type, "notnull"
		FROM pragma_table_info(?)
		ORDER BY cid
	`

	rows, err := c.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.Column
	for rows.Next() {
		var name, dataType string
		var notNull int
		if err := rows.Scan(&name, &dataType, &notNull); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		columns = append(columns, types.Column{
			Name:     name,
			Type:     dataType,
			Nullable: notNull == 0,
		})
	}

	return columns, rows.Err()
}

func (c *SQLiteConnector) loadPrimaryKeys(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT name
		FROM pragma_table_info(?)
		WHERE pk > 0
		ORDER BY pk
	`

	rows, err := c.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		keys = append(keys, column)
	}

	return keys, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func normalizeRow(row map[string]any) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
}

func normalizeValues(values []any) []any {
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values
}
