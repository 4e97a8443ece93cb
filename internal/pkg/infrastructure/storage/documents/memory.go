package documents

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/railstats/admin-console/pkg/errors"
)

type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemoryStore returns a Store that keeps all collections in memory
func NewMemoryStore() Store {
	return &memoryStore{
		collections: map[string]map[string]map[string]any{},
	}
}

func (m *memoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, errors.NewNotFoundError("no document " + id + " in " + collection)
	}

	return Document{ID: id, Data: deepCopy(data)}, nil
}

func (m *memoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if !validCollection(collection) {
		return "", errors.NewBadRequestError("invalid collection name " + collection)
	}

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collection(collection)[id] = deepCopy(data)

	return id, nil
}

func (m *memoryStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if !validCollection(collection) || id == "" {
		return errors.NewBadRequestError("invalid document reference")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collection(collection)[id] = deepCopy(data)

	return nil
}

func (m *memoryStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.collections[collection][id]
	if !ok {
		return errors.NewNotFoundError("no document " + id + " in " + collection)
	}

	for k, v := range deepCopy(data) {
		existing[k] = v
	}

	return nil
}

func (m *memoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return errors.NewNotFoundError("no document " + id + " in " + collection)
	}

	delete(m.collections[collection], id)

	return nil
}

func (m *memoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	where := make([]Filter, 0, len(q.Where))
	for _, f := range q.Where {
		where = append(where, Filter{Field: f.Field, Value: normalize(f.Value)})
	}

	matches := []Document{}

	for id, data := range m.collections[collection] {
		if !matchesAll(data, where) {
			continue
		}
		if q.OrderBy != "" {
			if _, ok := data[q.OrderBy]; !ok {
				continue
			}
		}
		matches = append(matches, Document{ID: id, Data: data})
	}

	sort.Slice(matches, func(i, j int) bool {
		c := 0
		if q.OrderBy != "" {
			c = compare(matches[i].Data[q.OrderBy], matches[j].Data[q.OrderBy])
		}
		if c == 0 {
			c = compare(matches[i].ID, matches[j].ID)
		}
		if q.Descending {
			c = -c
		}
		return c < 0
	})

	if q.StartAfter != "" {
		pos := -1
		for i := range matches {
			if matches[i].ID == q.StartAfter {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil, errors.NewBadRequestError("cursor " + q.StartAfter + " is not part of the result")
		}
		matches = matches[pos+1:]
	}

	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}

	result := make([]Document, 0, len(matches))
	for _, d := range matches {
		result = append(result, Document{ID: d.ID, Data: deepCopy(d.Data)})
	}

	return result, nil
}

func (m *memoryStore) Count(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.collections[collection]), nil
}

func (m *memoryStore) collection(name string) map[string]map[string]any {
	c, ok := m.collections[name]
	if !ok {
		c = map[string]map[string]any{}
		m.collections[name] = c
	}
	return c
}

func matchesAll(data map[string]any, where []Filter) bool {
	for _, f := range where {
		v, ok := data[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

// compare orders values null < bool < number < string < anything else
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		} else if !av {
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		if av < bv {
			return -1
		} else if av > bv {
			return 1
		}
		return 0
	case string:
		bv := b.(string)
		if av < bv {
			return -1
		} else if av > bv {
			return 1
		}
		return 0
	}

	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

// normalize makes a Go value comparable with decoded JSON data
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}

	return out
}

func deepCopy(data map[string]any) map[string]any {
	copied, ok := normalize(data).(map[string]any)
	if !ok || copied == nil {
		return map[string]any{}
	}
	return copied
}
