package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlens/sqlens/types"
)

func sampleResult() *types.QueryResult {
	return &types.QueryResult{
		Columns: []string{"id", "name"},
		Rows: []map[string]any{
			{"id": int64(1), "name": "alice"},
			{"id": int64(2), "name": nil},
		},
		RowCount: 2,
	}
}

func TestReadSQLJoinsArguments(t *testing.T) {
	query, err := readSQL([]string{"SELECT", "id", "FROM", "users"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users", query)
}

func TestRenderTable(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, renderTable(buf, sampleResult()))

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "alice")
	assert.Contains(t, output, "NULL")
	assert.Contains(t, output, "(2 rows)")
}

func TestRenderTableEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, renderTable(buf, &types.QueryResult{Columns: []string{"id"}}))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestRenderMarkdown(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, renderMarkdown(buf, sampleResult()))

	assert.Equal(t, "| id | name |\n| --- | --- |\n| 1 | alice |\n| 2 | NULL |\n", buf.String())
}

func TestRenderResultJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, renderResult(buf, sampleResult(), "json"))

	var decoded types.QueryResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"id", "name"}, decoded.Columns)
	assert.Equal(t, 2, decoded.RowCount)
}

func TestRenderResultUnknownFormat(t *testing.T) {
	err := renderResult(new(bytes.Buffer), sampleResult(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "0", formatValue(0))
	assert.Equal(t, "3.14", formatValue(3.14))
	assert.Equal(t, "hi", formatValue("hi"))
}
