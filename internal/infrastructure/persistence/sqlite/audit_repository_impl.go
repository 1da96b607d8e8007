package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opsmedic/opsmedic/internal/application/port/output"
)

// AuditRepositoryImpl implements output.AuditSink with SQLite
type AuditRepositoryImpl struct {
	db *sql.DB
}

// NewAuditRepository creates a new SQLite-based audit sink
func NewAuditRepository(db *sql.DB) *AuditRepositoryImpl {
	return &AuditRepositoryImpl{db: db}
}

// Record inserts one audit entry
func (r *AuditRepositoryImpl) Record(ctx context.Context, entry output.AuditEntry) error {
	inputJSON, err := json.Marshal(entry.Input)
	if err != nil {
		return fmt.Errorf("marshal audit input: %w", err)
	}

	query := `
		INSERT INTO audit_entries (id, case_id, tool_name, input, output, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.CaseID,
		entry.ToolName,
		string(inputJSON),
		entry.Output,
		entry.Success,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns all entries.
func (r *AuditRepositoryImpl) List(ctx context.Context, limit int) ([]output.AuditEntry, error) {
	query := `
		SELECT id, case_id, tool_name, input, output, success, created_at
		FROM audit_entries
		ORDER BY created_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []output.AuditEntry
	for rows.Next() {
		var entry output.AuditEntry
		var inputJSON, createdAt string
		if err := rows.Scan(&entry.ID, &entry.CaseID, &entry.ToolName, &inputJSON, &entry.Output, &entry.Success, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal([]byte(inputJSON), &entry.Input); err != nil {
			return nil, fmt.Errorf("unmarshal audit input: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse audit timestamp: %w", err)
		}
		entry.Timestamp = ts
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
