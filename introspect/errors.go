package introspect

import (
	"fmt"
	"strings"
)

// TableNotFoundError reports a table the schema does not contain.
// Available is sorted.
type TableNotFoundError struct {
	Table     string
	Database  string // logical label, empty in single-database deployments
	Available []string
}

func (e *TableNotFoundError) Error() string {
	available := strings.Join(e.Available, ", ")
	if e.Database != "" {
		return fmt.Sprintf("Table '%s' not found in '%s'. Available: %s", e.Table, e.Database, available)
	}
	return fmt.Sprintf("Table '%s' not found. Available: %s", e.Table, available)
}

// SchemaNotFoundError reports an explicit schema filter that matched
// nothing. Available is sorted and excludes system schemas.
type SchemaNotFoundError struct {
	Schema    string
	Available []string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("Schema '%s' not found. Available: %s", e.Schema, strings.Join(e.Available, ", "))
}
