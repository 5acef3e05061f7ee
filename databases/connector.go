// Package databases defines the capability surface shared by all SQL
// engines, the factory that picks an engine from a connection target, and
// the connection manager that resolves logical names to live handles.
package databases

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqlens/sqlens/databases/mssql"
	"github.com/sqlens/sqlens/databases/mysql"
	"github.com/sqlens/sqlens/databases/postgres"
	"github.com/sqlens/sqlens/databases/sqlite"
	"github.com/sqlens/sqlens/types"
)

// Supported engines.
const (
	EnginePostgres  = "postgres"
	EngineMySQL     = "mysql"
	EngineSQLite    = "sqlite"
	EngineSQLServer = "sqlserver"
)

// Database is the capability surface every engine implements. The
// introspector and the query router depend only on this interface, never on
// a concrete engine. An empty schema argument means the engine's default
// schema. Schemas never returns the engine's system schemas.
type Database interface {
	Ping(ctx context.Context) error
	Engine() string
	Schemas(ctx context.Context) ([]string, error)
	Tables(ctx context.Context, schema string) ([]string, error)
	DescribeTable(ctx context.Context, schema, table string) (*types.TableDescription, error)
	RowCount(ctx context.Context, schema, table string) (int64, error)
	Query(ctx context.Context, query string) (*types.QueryResult, error)
	Sample(ctx context.Context, schema, table string, limit int) (*types.SampleRows, error)
	Close() error
}

// DetectEngine picks the engine for a connection target from its scheme.
// Native MySQL DSNs without a scheme are recognized too.
func DetectEngine(target string) (string, error) {
	t := strings.TrimSpace(target)
	lower := strings.ToLower(t)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return EnginePostgres, nil
	case strings.HasPrefix(lower, "mysql://"):
		return EngineMySQL, nil
	case strings.HasPrefix(lower, "sqlserver://"), strings.HasPrefix(lower, "mssql://"):
		return EngineSQLServer, nil
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		lower == ":memory:",
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return EngineSQLite, nil
	}
	if !strings.Contains(t, "://") && mysql.IsDSN(t) {
		return EngineMySQL, nil
	}
	return "", fmt.Errorf("unsupported database target %q: cannot detect engine", target)
}

// NewConnector opens and pings a handle for the target, picking the engine
// from the connection string.
func NewConnector(ctx context.Context, target string) (Database, error) {
	engine, err := DetectEngine(target)
	if err != nil {
		return nil, err
	}
	switch engine {
	case EnginePostgres:
		return postgres.NewPostgresConnector(ctx, target)
	case EngineMySQL:
		return mysql.NewMySQLConnector(ctx, target)
	case EngineSQLite:
		return sqlite.NewSQLiteConnector(ctx, target)
	case EngineSQLServer:
		return mssql.NewMSSQLConnector(ctx, target)
	default:
		return nil, fmt.Errorf("unsupported database engine: %s", engine)
	}
}
