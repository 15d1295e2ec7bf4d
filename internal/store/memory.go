package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps artifacts in process memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	order   []string // insertion order, oldest first

	now func() time.Time
}

type memoryEntry struct {
	meta    Artifact
	content []byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, a NewArtifact) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	meta := Artifact{
		ID:          uuid.New().String(),
		Name:        a.Name,
		ContentType: a.ContentType,
		Operation:   a.Operation,
		Size:        int64(len(a.Content)),
		CreatedAt:   m.now().UTC(),
	}
	content := make([]byte, len(a.Content))
	copy(content, a.Content)

	m.mu.Lock()
	m.entries[meta.ID] = memoryEntry{meta: meta, content: content}
	m.order = append(m.order, meta.ID)
	m.mu.Unlock()

	return meta, nil
}

// Open implements Store.
func (m *MemoryStore) Open(ctx context.Context, id string) (Artifact, []byte, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return Artifact{}, nil, ErrNotFound
	}
	return e.meta, e.content, nil
}

// Recent implements Store.
func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Artifact, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[m.order[i]].meta)
	}
	return out, nil
}

// DeleteBefore implements Store.
func (m *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	kept := m.order[:0]
	for _, id := range m.order {
		if m.entries[id].meta.CreatedAt.Before(cutoff) {
			delete(m.entries, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed, nil
}
