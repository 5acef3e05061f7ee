package databases

import (
	"fmt"
	"strings"
)

// UnknownDatabaseError reports a requested logical name that is not in the
// registry. Available is sorted.
type UnknownDatabaseError struct {
	Name      string
	Available []string
}

func (e *UnknownDatabaseError) Error() string {
	return fmt.Sprintf("Unknown database '%s'. Available: %s", e.Name, strings.Join(e.Available, ", "))
}

// AmbiguousDatabaseError reports a missing database argument when several
// databases are registered. Available is sorted.
type AmbiguousDatabaseError struct {
	Available []string
}

func (e *AmbiguousDatabaseError) Error() string {
	return fmt.Sprintf("Multiple databases configured. Pass `database`. Available: %s", strings.Join(e.Available, ", "))
}

// ConnectionError wraps a failure to open or reach a backend.
type ConnectionError struct {
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed for '%s': %v", e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError wraps a backend rejecting a statement that passed the safety
// gate, e.g. a bad column name.
type QueryError struct {
	Database string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed on '%s': %v", e.Database, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
