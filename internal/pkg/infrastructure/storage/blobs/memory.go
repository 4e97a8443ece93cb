package blobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/railstats/admin-console/pkg/errors"
)

type blob struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

type memoryStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
	now   func() time.Time
}

// NewMemoryStore returns a Store that keeps every blob in memory. It is
// used when no database has been configured and in tests.
func NewMemoryStore() Store {
	return &memoryStore{
		blobs: map[string]blob{},
		now:   time.Now,
	}
}

func (m *memoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[path]
	if !ok {
		return nil, errors.NewNotFoundError("no blob found at " + path)
	}

	data := make([]byte, len(b.data))
	copy(data, b.data)

	return data, nil
}

func (m *memoryStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if path == "" {
		return errors.NewBadRequestError("blob path must not be empty")
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[path] = blob{
		data:        stored,
		contentType: contentType,
		updatedAt:   m.now().UTC(),
	}

	return nil
}

func (m *memoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[path]; !ok {
		return errors.NewNotFoundError("no blob found at " + path)
	}

	delete(m.blobs, path)

	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := []BlobInfo{}

	for p, b := range m.blobs {
		if !inFolder(p, prefix) {
			continue
		}

		infos = append(infos, BlobInfo{
			Name:        Name(p),
			Path:        p,
			Size:        int64(len(b.data)),
			ContentType: b.contentType,
			UpdatedAt:   b.updatedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})

	return infos, nil
}
