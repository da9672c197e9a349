package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"sort"
	"sync"
)

// Memory is an in-process Client. Fields are round-tripped through JSON so callers see the same
// value shapes a remote store returns.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{cols: make(map[string]map[string]map[string]any)}
}

// GetDocument returns nil without an error when the document does not exist.
func (m *Memory) GetDocument(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.cols[collection][id]
	if !ok {
		return nil, nil
	}

	return &Document{ID: id, Fields: maps.Clone(f)}, nil
}

func (m *Memory) SetDocument(_ context.Context, collection, id string, fields map[string]any) error {
	f, err := normalize(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cols[collection] == nil {
		m.cols[collection] = make(map[string]map[string]any)
	}
	m.cols[collection][id] = f
	return nil
}

func (m *Memory) UpdateDocument(_ context.Context, collection, id string, fields map[string]any) error {
	f, err := normalize(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.cols[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	maps.Copy(cur, f)
	return nil
}

func (m *Memory) QueryDocuments(_ context.Context, collection string, q Query) ([]Document, error) {
	filters, err := normalize(q.Filters)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	var docs []Document
	for id, f := range m.cols[collection] {
		if matches(f, filters) {
			docs = append(docs, Document{ID: id, Fields: maps.Clone(f)})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		if q.OrderBy == "" {
			return docs[i].ID < docs[j].ID
		}
		a, b := fmt.Sprint(docs[i].Fields[q.OrderBy]), fmt.Sprint(docs[j].Fields[q.OrderBy])
		if q.Desc {
			return a > b
		}
		return a < b
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	return docs, nil
}

func matches(f, filters map[string]any) bool {
	for k, v := range filters {
		if !reflect.DeepEqual(f[k], v) {
			return false
		}
	}
	return true
}

func normalize(fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return map[string]any{}, nil
	}

	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode fields: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode fields: %w", err)
	}

	return out, nil
}
