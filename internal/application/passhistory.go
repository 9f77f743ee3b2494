package application

import (
	"context"
	"sync"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PassStore = (*MemoryPassStore)(nil)

// DefaultPassHistory is how many passes MemoryPassStore keeps.
const DefaultPassHistory = 50

// MemoryPassStore keeps the most recent pass summaries in memory. It backs
// the pass history API when state is not stored in SQLite.
type MemoryPassStore struct {
	mu     sync.Mutex
	passes []model.PassSummary
	limit  int
}

// NewMemoryPassStore creates a store retaining at most limit summaries.
func NewMemoryPassStore(limit int) *MemoryPassStore {
	if limit <= 0 {
		limit = DefaultPassHistory
	}
	return &MemoryPassStore{limit: limit}
}

// Record appends a summary, evicting the oldest beyond the limit.
func (m *MemoryPassStore) Record(_ context.Context, s model.PassSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passes = append(m.passes, s)
	if over := len(m.passes) - m.limit; over > 0 {
		m.passes = append([]model.PassSummary(nil), m.passes[over:]...)
	}
	return nil
}

// ListRecent returns up to limit summaries, newest first.
func (m *MemoryPassStore) ListRecent(_ context.Context, limit int) ([]model.PassSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.passes)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]model.PassSummary, 0, n)
	for i := len(m.passes) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.passes[i])
	}
	return out, nil
}
