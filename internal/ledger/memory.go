package ledger

import (
	"context"
	"sync"
)

// Memory is an ephemeral, thread-safe ledger. It is the default when no
// ledger path is configured.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends an entry.
func (m *Memory) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the sweep's entries.
func (m *Memory) Entries(ctx context.Context, sweepID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for _, e := range m.entries {
		if e.SweepID == sweepID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
