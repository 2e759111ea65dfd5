package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serroba/design-studio/internal/canvas"
)

// savedRecord is one stored version of a design.
type savedRecord struct {
	id     string
	record canvas.Record
}

// designData holds all persisted data for a single design.
type designData struct {
	versions []savedRecord // oldest first
}

// MemoryStore is an in-memory implementation of the Store interface.
// Useful for testing and development.
type MemoryStore struct {
	mu      sync.RWMutex
	designs map[string]*designData
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		designs: make(map[string]*designData),
		now:     time.Now,
	}
}

// CreateDesign registers a new design with the given ID.
func (m *MemoryStore) CreateDesign(_ context.Context, designID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.designs[designID]; exists {
		return ErrDesignExists
	}

	m.designs[designID] = &designData{}

	return nil
}

// DesignExists checks if a design exists.
func (m *MemoryStore) DesignExists(_ context.Context, designID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.designs[designID]

	return exists, nil
}

// SaveRecord stores a copy of rec as the newest version.
func (m *MemoryStore) SaveRecord(ctx context.Context, designID string, rec canvas.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	design, exists := m.designs[designID]
	if !exists {
		return "", ErrDesignNotFound
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now().UTC()
	}

	saved := savedRecord{id: uuid.New().String(), record: copyRecord(rec)}
	design.versions = append(design.versions, saved)

	return saved.id, nil
}

// LatestRecord returns a copy of the newest version.
func (m *MemoryStore) LatestRecord(ctx context.Context, designID string) (canvas.Record, error) {
	if err := ctx.Err(); err != nil {
		return canvas.Record{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	design, exists := m.designs[designID]
	if !exists {
		return canvas.Record{}, ErrDesignNotFound
	}

	if len(design.versions) == 0 {
		return canvas.Record{}, ErrRecordNotFound
	}

	return copyRecord(design.versions[len(design.versions)-1].record), nil
}

// ListVersions returns the saved versions, newest first.
func (m *MemoryStore) ListVersions(_ context.Context, designID string) ([]Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	design, exists := m.designs[designID]
	if !exists {
		return nil, ErrDesignNotFound
	}

	result := make([]Version, 0, len(design.versions))
	for i := len(design.versions) - 1; i >= 0; i-- {
		v := design.versions[i]
		result = append(result, Version{
			ID:        v.id,
			DesignID:  designID,
			Elements:  len(v.record.Elements),
			CreatedAt: v.record.CreatedAt,
		})
	}

	return result, nil
}

// DeleteDesign removes a design and its versions.
func (m *MemoryStore) DeleteDesign(_ context.Context, designID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.designs[designID]; !exists {
		return ErrDesignNotFound
	}

	delete(m.designs, designID)

	return nil
}

// copyRecord returns rec with its own copy of every element.
func copyRecord(rec canvas.Record) canvas.Record {
	rec.Elements = canvas.Snapshot(rec.Elements).Clone()

	return rec
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
