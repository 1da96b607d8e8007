// Package memory provides an in-memory audit sink for tests and for
// running without any persistence configured.
package memory

import (
	"context"
	"sync"

	"github.com/opsmedic/opsmedic/internal/application/port/output"
)

// AuditSink keeps audit entries in memory, newest last
type AuditSink struct {
	mu      sync.Mutex
	entries []output.AuditEntry
}

// NewAuditSink creates an empty in-memory audit sink
func NewAuditSink() *AuditSink {
	return &AuditSink{}
}

// Record appends an entry
func (s *AuditSink) Record(_ context.Context, entry output.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns up to limit entries, newest first
func (s *AuditSink) List(_ context.Context, limit int) ([]output.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]output.AuditEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Len returns the number of recorded entries
func (s *AuditSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
