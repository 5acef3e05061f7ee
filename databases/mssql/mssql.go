// Package mssql implements the SQL Server backend.
package mssql

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/jmoiron/sqlx"

	"github.com/sqlens/sqlens/types"
)

const defaultSchema = "dbo"

type MSSQLConnector struct {
	db *sqlx.DB
}

func NewMSSQLConnector(ctx context.Context, target string) (*MSSQLConnector, error) {
	connString := strings.TrimSpace(target)
	if strings.HasPrefix(strings.ToLower(connString), "mssql://") {
		connString = "sqlserver://" + connString[len("mssql://"):]
	}

	db, err := sqlx.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	connector := &MSSQLConnector{db: db}

	if err := connector.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

func (c *MSSQLConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *MSSQLConnector) Engine() string {
	return "sqlserver"
}

func (c *MSSQLConnector) Schemas(ctx context.Context) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('INFORMATION_SCHEMA', 'sys', 'guest')
		AND schema_name NOT LIKE 'db[_]%'
		ORDER BY schema_name
	`

	var schemas []string
	if err := c.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, fmt.Errorf("failed to query schemas: %w", err)
	}

	return schemas, nil
}

func (c *MSSQLConnector) Tables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = defaultSchema
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = @p1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	var tables []string
	if err := c.db.SelectContext(ctx, &tables, query, schema); err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	return tables, nil
}

func (c *MSSQLConnector) DescribeTable(ctx context.Context, schema, table string) (*types.TableDescription, error) {
	if schema == "" {
		schema = defaultSchema
	}

	columns, err := c.loadColumns(ctx, schema, table)
	if err != nil {
		return nil, err
	}

	primaryKeys, err := c.loadPrimaryKeys(ctx, schema, table)
	if err != nil {
		return nil, err
	}

	return &types.TableDescription{
		Name:        table,
		Schema:      schema,
		Columns:     columns,
		PrimaryKeys: primaryKeys,
		RowCount:    -1,
	}, nil
}

func (c *MSSQLConnector) RowCount(ctx context.Context, schema, table string) (int64, error) {
	if schema == "" {
		schema = defaultSchema
	}

	query := fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s.%s", quoteIdent(schema), quoteIdent(table))

	var count int64
	if err := c.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}

	return count, nil
}

// Query runs directly on the pool; go-mssqldb rejects read-only
// transactions, so statement screening happens before a query reaches this
// point.
func (c *MSSQLConnector) Query(ctx context.Context, sqlQuery string) (*types.QueryResult, error) {
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

func (c *MSSQLConnector) Sample(ctx context.Context, schema, table string, limit int) (*types.SampleRows, error) {
	if schema == "" {
		schema = defaultSchema
	}
	if limit <= 0 {
		limit = 5
	}

	query := fmt.Sprintf("SELECT TOP %d * FROM %s.%s", limit, quoteIdent(schema), quoteIdent(table))

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

func (c *MSSQLConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *MSSQLConnector) loadColumns(ctx context.Context, schema, table string) ([]types.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = @p1 AND table_name = @p2
		ORDER BY ordinal_position
	`

	rows, err := c.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.Column
	for rows.Next() {
		var name, dataType, isNullable string
		if err := rows.Scan(&name, &dataType, &isNullable); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		columns = append(columns, types.Column{
			Name:     name,
			Type:     dataType,
			Nullable: isNullable == "YES",
		})
	}

	return columns, rows.Err()
}

func (c *MSSQLConnector) loadPrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = @p1
		  AND tc.table_name = @p2
		ORDER BY kcu.ordinal_position
	`

	rows, err := c.db.QueryContext(ctx, query, schema, table)
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
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
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
