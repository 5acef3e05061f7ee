package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sqlens/sqlens/types"
)

type MySQLConnector struct {
	db *sqlx.DB
	// dbName is the database selected by the connection string, used as the
	// default schema for catalog lookups.
	dbName string
}

// IsDSN reports whether target parses as a native MySQL DSN such as
// "user:pass@tcp(host:3306)/dbname". The driver accepts an empty DSN and
// fills in localhost defaults; an empty target is not treated as one here.
func IsDSN(target string) bool {
	if strings.TrimSpace(target) == "" {
		return false
	}
	_, err := mysql.ParseDSN(target)
	return err == nil
}

func NewMySQLConnector(ctx context.Context, target string) (*MySQLConnector, error) {
	dsn := target
	if strings.HasPrefix(strings.ToLower(target), "mysql://") {
		converted, err := dsnFromURL(target)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connection string: %w", err)
		}
		dsn = converted
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	connector := &MySQLConnector{
		db:     db,
		dbName: cfg.DBName,
	}

	if err := connector.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

// dsnFromURL converts a mysql:// URL into the driver's native DSN form.
func dsnFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}
	cfg.Addr = net.JoinHostPort(host, port)

	if u.User != nil {
		cfg.User = u.User.Username()
		if password, ok := u.User.Password(); ok {
			cfg.Passwd = password
		}
	}

	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	if params := u.Query(); len(params) > 0 {
		cfg.Params = make(map[string]string, len(params))
		for key, values := range params {
			if len(values) > 0 {
				cfg.Params[key] = values[0]
			}
		}
	}

	return cfg.FormatDSN(), nil
}

func (c *MySQLConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *MySQLConnector) Engine() string {
	return "mysql"
}

func (c *MySQLConnector) Schemas(ctx context.Context) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
		ORDER BY schema_name
	`

	var schemas []string
	if err := c.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, fmt.Errorf("failed to query schemas: %w", err)
	}

	return schemas, nil
}

func (c *MySQLConnector) Tables(ctx context.Context, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		AND table_schema = ?
		ORDER BY table_name
	`

	var tables []string
	if err := c.db.SelectContext(ctx, &tables, query, c.schemaOrDefault(schema)); err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	return tables, nil
}

func (c *MySQLConnector) DescribeTable(ctx context.Context, schema, table string) (*types.TableDescription, error) {
	schema = c.schemaOrDefault(schema)

	tx, err := c.db.BeginTxx(ctx, &sql.TxOptions{
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Commit()

	columns, err := c.loadColumns(ctx, tx, schema, table)
	if err != nil {
		return nil, err
	}

	primaryKeys, err := c.loadPrimaryKeys(ctx, tx, schema, table)
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

func (c *MySQLConnector) RowCount(ctx context.Context, schema, table string) (int64, error) {
	schema = c.schemaOrDefault(schema)

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", quoteIdent(schema), quoteIdent(table))

	var count int64
	if err := c.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}

	return count, nil
}

func (c *MySQLConnector) Query(ctx context.Context, sqlQuery string) (*types.QueryResult, error) {
	tx, err := c.db.BeginTxx(ctx, &sql.TxOptions{
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Commit()

	rows, err := tx.QueryxContext(ctx, sqlQuery)
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

func (c *MySQLConnector) Sample(ctx context.Context, schema, table string, limit int) (*types.SampleRows, error) {
	schema = c.schemaOrDefault(schema)
	if limit <= 0 {
		limit = 5
	}

	query := fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d", quoteIdent(schema), quoteIdent(table), limit)

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

func (c *MySQLConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *MySQLConnector) schemaOrDefault(schema string) string {
	if schema != "" {
		return schema
	}
	return c.dbName
}

func (c *MySQLConnector) loadColumns(ctx context.Context, tx *sqlx.Tx, schema, table string) ([]types.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := tx.QueryContext(ctx, query, schema, table)
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

func (c *MySQLConnector) loadPrimaryKeys(ctx context.Context, tx *sqlx.Tx, schema, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		AND table_name = ?
		AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := tx.QueryContext(ctx, query, schema, table)
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
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
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
