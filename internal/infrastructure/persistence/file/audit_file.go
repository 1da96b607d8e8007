// Package file persists the repair audit trail as append-only JSON
// Lines, one object per executed repair action.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/opsmedic/opsmedic/internal/application/port/output"
)

// auditRecord is the serialized form of one audit entry
type auditRecord struct {
	ID        string         `json:"id"`
	CaseID    string         `json:"case_id"`
	ToolName  string         `json:"tool_name"`
	Input     map[string]any `json:"input"`
	Output    string         `json:"output"`
	Success   bool           `json:"success"`
	Timestamp time.Time      `json:"timestamp"`
}

// AuditSink appends audit entries to a JSONL file
type AuditSink struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewAuditSink creates a JSONL audit sink at path, creating the parent
// directory if needed.
func NewAuditSink(fs afero.Fs, path string) (*AuditSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}
	return &AuditSink{fs: fs, path: path}, nil
}

// Record appends one entry as a single JSON line
func (s *AuditSink) Record(_ context.Context, entry output.AuditEntry) error {
	line, err := json.Marshal(auditRecord{
		ID:        entry.ID,
		CaseID:    entry.CaseID,
		ToolName:  entry.ToolName,
		Input:     entry.Input,
		Output:    entry.Output,
		Success:   entry.Success,
		Timestamp: entry.Timestamp.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns all entries. A missing file is an empty trail, not an error.
func (s *AuditSink) List(_ context.Context, limit int) ([]output.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	var records []auditRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec auditRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse audit line: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit file: %w", err)
	}

	n := len(records)
	if limit <= 0 || limit > n {
		limit = n
	}
	entries := make([]output.AuditEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		rec := records[i]
		entries = append(entries, output.AuditEntry{
			ID:        rec.ID,
			CaseID:    rec.CaseID,
			ToolName:  rec.ToolName,
			Input:     rec.Input,
			Output:    rec.Output,
			Success:   rec.Success,
			Timestamp: rec.Timestamp,
		})
	}
	return entries, nil
}
