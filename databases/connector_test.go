package databases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEngine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   string
	}{
		{"postgres://ro:pw@localhost:5432/f1", EnginePostgres},
		{"postgresql://ro@localhost/f1?sslmode=disable", EnginePostgres},
		{"POSTGRES://RO@LOCALHOST/F1", EnginePostgres},
		{"mysql://ro:pw@localhost:3306/sales", EngineMySQL},
		{"ro:pw@tcp(localhost:3306)/sales", EngineMySQL},
		{"sqlserver://sa:pw@localhost:1433?database=warehouse", EngineSQLServer},
		{"mssql://sa:pw@localhost:1433?database=warehouse", EngineSQLServer},
		{"sqlite://analytics.db", EngineSQLite},
		{"file:analytics.db?cache=shared", EngineSQLite},
		{":memory:", EngineSQLite},
		{"analytics.db", EngineSQLite},
		{"analytics.sqlite", EngineSQLite},
		{"analytics.sqlite3", EngineSQLite},
		{"  sqlite://padded.db  ", EngineSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			engine, err := DetectEngine(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, engine)
		})
	}
}

func TestDetectEngineUnsupported(t *testing.T) {
	t.Parallel()

	for _, target := range []string{
		"redis://localhost:6379",
		"mongodb://localhost/db",
		"not a target",
		"",
	} {
		_, err := DetectEngine(target)
		require.Error(t, err, "target %q", target)
		assert.Contains(t, err.Error(), "unsupported database target")
	}
}
