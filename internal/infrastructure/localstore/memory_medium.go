package localstore

import (
	"context"
	"errors"
	"sync"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// MemoryMedium is a non-durable medium for tests and QUEUE_BACKEND=memory
// demos. It follows the same upsert and ordering rules as the real ones.
type MemoryMedium struct {
	mu          sync.Mutex
	collections map[string][]domain.StoredRecord
}

func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{collections: make(map[string][]domain.StoredRecord)}
}

func (m *MemoryMedium) Add(_ context.Context, collection string, rec domain.StoredRecord) error {
	if rec.ID == "" {
		return errors.New("record id is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Data = append([]byte(nil), rec.Data...)
	records := m.collections[collection]
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec
			return nil
		}
	}
	m.collections[collection] = append(records, rec)
	return nil
}

func (m *MemoryMedium) ListAll(_ context.Context, collection string) ([]domain.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.collections[collection]
	out := make([]domain.StoredRecord, len(records))
	for i, r := range records {
		r.Data = append([]byte(nil), r.Data...)
		out[i] = r
	}
	return out, nil
}

func (m *MemoryMedium) DeleteByID(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.collections[collection]
	for i := range records {
		if records[i].ID == id {
			m.collections[collection] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryMedium) Clear(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}
