package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/riyahid/travel-go/internal/domain"
)

// Memory is an in-process Store. Documents are normalized through a JSON
// round-trip on the way in and on the way out, so callers see the same value
// shapes (float64 numbers, []any arrays) a real JSON store would return and
// can never alias stored state.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]map[string]any)}
}

func (m *Memory) NewID(_ context.Context, _ string) (string, error) {
	return uuid.NewString(), nil
}

func (m *Memory) Query(_ context.Context, q Query) ([]Document, error) {
	for _, f := range q.Filters {
		if !validField(f.Field) || !validOp(f.Op) {
			return nil, fmt.Errorf("docstore.Memory.Query: invalid filter %q %q", f.Field, f.Op)
		}
	}
	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("docstore.Memory.Query: %w", err)
		}
		filters[i] = Filter{Field: f.Field, Op: f.Op, Value: v}
	}

	m.mu.RLock()
	var docs []Document
	for id, data := range m.collections[q.Collection] {
		if matches(data, filters) {
			docs = append(docs, Document{ID: id, Data: data})
		}
	}
	m.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		for _, o := range q.OrderBy {
			c := compareForSort(docs[i].Data[o.Field], docs[j].Data[o.Field], o.Desc)
			if c != 0 {
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	out := make([]Document, len(docs))
	for i, d := range docs {
		data, err := normalize(d.Data)
		if err != nil {
			return nil, fmt.Errorf("docstore.Memory.Query: %w", err)
		}
		out[i] = Document{ID: d.ID, Data: data}
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	data, ok := m.collections[collection][id]
	m.mu.RUnlock()
	if !ok {
		return Document{}, fmt.Errorf("docstore.Memory.Get: %w", domain.ErrNotFound)
	}
	out, err := normalize(data)
	if err != nil {
		return Document{}, fmt.Errorf("docstore.Memory.Get: %w", err)
	}
	return Document{ID: id, Data: out}, nil
}

func (m *Memory) Insert(_ context.Context, collection, id string, data map[string]any) (string, error) {
	stored, err := normalize(data)
	if err != nil {
		return "", fmt.Errorf("docstore.Memory.Insert: %w", err)
	}
	delete(stored, "id")
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return "", fmt.Errorf("docstore.Memory.Insert: document %s/%s already exists", collection, id)
	}
	coll[id] = stored
	return id, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	patch, err := normalize(fields)
	if err != nil {
		return fmt.Errorf("docstore.Memory.Update: %w", err)
	}
	delete(patch, "id")

	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("docstore.Memory.Update: %w", domain.ErrNotFound)
	}
	m.collections[collection][id] = Merge(data, patch)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection][id]; !ok {
		return fmt.Errorf("docstore.Memory.Delete: %w", domain.ErrNotFound)
	}
	delete(m.collections[collection], id)
	return nil
}

func normalize(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		got := data[f.Field]
		if f.Value == nil {
			if f.Op != Eq || got != nil {
				return false
			}
			continue
		}
		c, ok := compare(got, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case Eq:
			ok = c == 0
		case Gt:
			ok = c > 0
		case Gte:
			ok = c >= 0
		case Lt:
			ok = c < 0
		case Lte:
			ok = c <= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

// compare orders two scalar JSON values of the same kind. ok is false when the
// kinds differ or either value is not a scalar.
func compare(a, b any) (c int, ok bool) {
	switch av := a.(type) {
	case string:
		bv, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, isNum := b.(float64)
		if !isNum {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case bool:
		bv, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// compareForSort puts missing and null values last in either direction and
// otherwise falls back to compare.
func compareForSort(a, b any, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c, ok := compare(a, b)
	if !ok {
		return 0
	}
	if desc {
		return -c
	}
	return c
}
