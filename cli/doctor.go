package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sqlens/sqlens/databases"
	"github.com/sqlens/sqlens/registry"
)

type doctorOptions struct {
	Timeout time.Duration
	Retries uint64
}

func newDoctorCommand() *cobra.Command {
	opts := &doctorOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity for every configured database",
		Long: `Doctor opens each configured database, pings it and reports the outcome.
Transient failures are retried with exponential backoff. Targets are not
printed since they may carry credentials.`,
		Example: `  sqlens doctor
  sqlens doctor --timeout 30s --retries 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "time budget per database")
	cmd.Flags().Uint64Var(&opts.Retries, "retries", 3, "retries per database after the first attempt")

	return cmd
}

type doctorStatus struct {
	Name   string
	Engine string
	Status string
	Detail string
}

func runDoctor(cmd *cobra.Command, opts *doctorOptions) error {
	logger := newLogger(cfg.SlogLevel())
	reg := registry.Build(cfg, os.Environ(), logger)

	failures := 0
	statuses := make([]doctorStatus, 0, reg.Len())
	for _, entry := range reg.Entries() {
		status := checkDatabase(cmd.Context(), entry, opts)
		if status.Status != "ok" {
			failures++
		}
		statuses = append(statuses, status)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Database", "Engine", "Status", "Detail"})
	for _, status := range statuses {
		t.AppendRow(table.Row{status.Name, status.Engine, status.Status, status.Detail})
	}
	t.Render()

	if failures > 0 {
		return fmt.Errorf("%d of %d databases failed", failures, reg.Len())
	}
	return nil
}

func checkDatabase(ctx context.Context, entry registry.Entry, opts *doctorOptions) doctorStatus {
	status := doctorStatus{Name: entry.Name, Status: "ok"}

	engine, err := databases.DetectEngine(entry.URL)
	if err != nil {
		status.Status = "failed"
		status.Detail = err.Error()
		return status
	}
	status.Engine = engine

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	// NewConnector pings before returning, so open and close is the whole
	// health check.
	operation := func() error {
		db, err := databases.NewConnector(ctx, entry.URL)
		if err != nil {
			return err
		}
		return db.Close()
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), opts.Retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		status.Status = "failed"
		status.Detail = err.Error()
	}
	return status
}
