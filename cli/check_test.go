package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlens/sqlens/safety"
)

func executeCheck(t *testing.T, sql string) (string, error) {
	t.Helper()

	rootCmd := NewRootCmd()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"check", sql})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheckCommandAcceptsSelect(t *testing.T) {
	output, err := executeCheck(t, "SELECT id FROM users LIMIT 10")
	require.NoError(t, err)

	var verdict safety.Verdict
	require.NoError(t, json.Unmarshal([]byte(output), &verdict))
	assert.True(t, verdict.OK)
	assert.Empty(t, verdict.Errors)
}

func TestCheckCommandRejectsWrites(t *testing.T) {
	output, err := executeCheck(t, "DELETE FROM users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement rejected")

	var verdict safety.Verdict
	require.NoError(t, json.Unmarshal([]byte(output), &verdict))
	assert.False(t, verdict.OK)
	assert.NotEmpty(t, verdict.Errors)
}

func TestCheckCommandReportsWarnings(t *testing.T) {
	output, err := executeCheck(t, "SELECT * FROM users")
	require.NoError(t, err)

	var verdict safety.Verdict
	require.NoError(t, json.Unmarshal([]byte(output), &verdict))
	assert.True(t, verdict.OK)
	assert.Contains(t, verdict.Warnings, "Avoid SELECT *; specify explicit columns.")
	assert.Contains(t, verdict.Warnings, "Missing LIMIT clause. Add LIMIT 50 by default.")
}
