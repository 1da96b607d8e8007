package output

import (
	"context"
	"time"
)

// AuditEntry is one append-only record of a repair-tool execution.
// Entries are written once and never mutated afterwards. Audit-class
// tools never produce entries.
type AuditEntry struct {
	ID        string
	CaseID    string
	ToolName  string
	Input     map[string]any
	Output    string
	Success   bool
	Timestamp time.Time
}

// AuditSink receives one entry per repair-tool execution
type AuditSink interface {
	// Record appends an entry to the trail
	Record(ctx context.Context, entry AuditEntry) error

	// List returns the most recent entries, newest first
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}
