package types

// Column describes a single table column as reported by the backend catalog.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableDescription is the normalized shape returned by describe operations.
// RowCount is -1 when the count is unavailable.
type TableDescription struct {
	Name        string      `json:"name"`
	Schema      string      `json:"schema,omitempty"`
	Database    string      `json:"database,omitempty"`
	Columns     []Column    `json:"columns"`
	PrimaryKeys []string    `json:"primary_keys,omitempty"`
	RowCount    int64       `json:"row_count"`
	Sample      *SampleRows `json:"sample,omitempty"`
}

// QueryResult holds the rows returned by a read query, with columns in
// select order.
type QueryResult struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	Warnings []string         `json:"warnings,omitempty"`
}

// SampleRows is a bounded sample of table rows in column order.
type SampleRows struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
