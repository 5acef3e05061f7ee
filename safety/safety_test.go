package safety

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEmpty(t *testing.T) {
	t.Parallel()

	for _, sql := range []string{"", "   ", "\n\t  "} {
		verdict := Check(sql)
		assert.False(t, verdict.OK)
		assert.Equal(t, []string{"SQL is empty."}, verdict.Errors)
		assert.Empty(t, verdict.Warnings)
	}
}

func TestCheckWriteKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"drop", "DROP TABLE x", "Destructive or write operations detected: drop."},
		{"insert", "insert into x values (1)", "Destructive or write operations detected: insert."},
		{"update with leading space", "  Update x set y=1", "Destructive or write operations detected: update."},
		{"sorted and deduplicated", "DROP TABLE a; CREATE TABLE b; DROP TABLE c", "Destructive or write operations detected: create, drop."},
		{"keyword mid statement", "SELECT 1; DELETE FROM x", "Destructive or write operations detected: delete."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Check(tt.sql)
			assert.False(t, verdict.OK)
			require.NotEmpty(t, verdict.Errors)
			assert.Equal(t, tt.want, verdict.Errors[0])
		})
	}
}

func TestCheckWholeWordMatching(t *testing.T) {
	t.Parallel()

	// Substrings of write verbs are not write verbs.
	verdict := Check("SELECT updated_at, created_at FROM audit_log LIMIT 10")
	assert.True(t, verdict.OK)
	assert.Empty(t, verdict.Errors)
	assert.Empty(t, verdict.Warnings)
}

func TestCheckWarnings(t *testing.T) {
	t.Parallel()

	t.Run("clean select", func(t *testing.T) {
		verdict := Check("SELECT id FROM x LIMIT 10")
		assert.True(t, verdict.OK)
		assert.Empty(t, verdict.Errors)
		assert.Empty(t, verdict.Warnings)
	})

	t.Run("missing limit", func(t *testing.T) {
		verdict := Check("SELECT id FROM x")
		assert.True(t, verdict.OK)
		assert.Equal(t, []string{"Missing LIMIT clause. Add LIMIT 50 by default."}, verdict.Warnings)
	})

	t.Run("select star", func(t *testing.T) {
		verdict := Check("SELECT * FROM x")
		assert.True(t, verdict.OK)
		assert.Contains(t, verdict.Warnings, "Avoid SELECT *; specify explicit columns.")
		assert.Contains(t, verdict.Warnings, "Missing LIMIT clause. Add LIMIT 50 by default.")
	})

	t.Run("select star with limit", func(t *testing.T) {
		verdict := Check("SELECT * FROM x LIMIT 5")
		assert.True(t, verdict.OK)
		assert.Equal(t, []string{"Avoid SELECT *; specify explicit columns."}, verdict.Warnings)
	})

	t.Run("multiple statements", func(t *testing.T) {
		verdict := Check("SELECT 1 LIMIT 1; SELECT 2 LIMIT 1")
		assert.True(t, verdict.OK)
		assert.Equal(t, []string{"Multiple SQL statements detected; prefer a single statement."}, verdict.Warnings)
	})

	t.Run("trailing semicolon is not a second statement", func(t *testing.T) {
		verdict := Check("SELECT id FROM x LIMIT 5;")
		assert.True(t, verdict.OK)
		assert.Empty(t, verdict.Warnings)
	})

	t.Run("limit warning only applies to selects", func(t *testing.T) {
		verdict := Check("EXPLAIN ANALYZE SELECT id FROM x")
		assert.True(t, verdict.OK)
		assert.Empty(t, verdict.Warnings)
	})
}

func TestCheckJSONShape(t *testing.T) {
	t.Parallel()

	// Empty slices must marshal as [], not null.
	data, err := json.Marshal(Check("SELECT id FROM x LIMIT 10"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"errors":[],"warnings":[]}`, string(data))
}

func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("rejects write verbs", func(t *testing.T) {
		for _, sql := range []string{
			"update x set y=1",
			"  DROP TABLE x",
			"Insert into x values (1)",
			"TRUNCATE x",
			"create table y (id int)",
		} {
			err := Gate(sql)
			require.Error(t, err, sql)

			var rejected *WriteRejectedError
			require.ErrorAs(t, err, &rejected, sql)
			assert.NotEmpty(t, rejected.Keyword)
		}
	})

	t.Run("carries the matched keyword", func(t *testing.T) {
		var rejected *WriteRejectedError
		require.ErrorAs(t, Gate("UPDATE x SET y=1"), &rejected)
		assert.Equal(t, "update", rejected.Keyword)
		assert.Contains(t, rejected.Error(), "'update'")
	})

	t.Run("keyword glued to punctuation still matches", func(t *testing.T) {
		var rejected *WriteRejectedError
		require.ErrorAs(t, Gate("DELETE;FROM x"), &rejected)
		assert.Equal(t, "delete", rejected.Keyword)
	})

	t.Run("passes reads", func(t *testing.T) {
		for _, sql := range []string{
			"SELECT * FROM t",
			"WITH c AS (SELECT 1) SELECT * FROM c",
			"EXPLAIN SELECT 1",
			"show tables",
			"select id from t where note = 'drop table'",
		} {
			assert.NoError(t, Gate(sql), sql)
		}
	})

	t.Run("fails closed on empty", func(t *testing.T) {
		assert.ErrorIs(t, Gate(""), ErrEmptyQuery)
		assert.ErrorIs(t, Gate("   \n"), ErrEmptyQuery)
	})
}
