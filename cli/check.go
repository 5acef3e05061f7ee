package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlens/sqlens/safety"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [SQL]",
		Short: "Classify a SQL statement without executing it",
		Long: `Check runs the advisory safety rules over a statement and prints the
verdict as JSON. The exit status is nonzero when the statement would be
rejected by the execution gate.`,
		Example: `  sqlens check "SELECT id FROM users LIMIT 10"
  sqlens check "DELETE FROM users"
  cat report.sql | sqlens check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	query, err := readSQL(args)
	if err != nil {
		return err
	}

	verdict := safety.Check(query)

	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if !verdict.OK {
		return fmt.Errorf("statement rejected: %s", strings.Join(verdict.Errors, "; "))
	}
	return nil
}
