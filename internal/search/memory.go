package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"realestate-backend/internal/models"
	"realestate-backend/internal/query"
)

const defaultSize = 10

// MemoryIndex keeps documents in process and evaluates queries with the same
// bool/match/term/range semantics the OpenSearch backend relies on. It backs
// SEARCH_BACKEND=memory and the tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	indices map[string]map[string]models.Document
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{indices: map[string]map[string]models.Document{}}
}

// Upsert stores a JSON round-tripped copy, so numbers read back as float64
// exactly as they do from _source.
func (m *MemoryIndex) Upsert(_ context.Context, index, id string, doc models.Document) error {
	stored, err := roundTrip(doc)
	if err != nil {
		return fmt.Errorf("index %s/%s: %w", index, id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.indices[index]
	if !ok {
		docs = map[string]models.Document{}
		m.indices[index] = docs
	}
	docs[id] = stored
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, index, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indices[index], id)
	return nil
}

// Get returns the stored document, if any.
func (m *MemoryIndex) Get(index, id string) (models.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.indices[index][id]
	return doc, ok
}

func (m *MemoryIndex) Search(_ context.Context, index string, req query.Request) (*Result, error) {
	m.mu.RLock()
	docs, ok := m.indices[index]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("search %s: no such index", index)
	}
	q := req.Query
	if q == nil {
		q = query.MatchAll{}
	}
	hits := make([]Hit, 0)
	for id, doc := range docs {
		if ok, score := evaluate(q, doc); ok {
			hits = append(hits, Hit{ID: id, Score: score, Document: doc})
		}
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	total := int64(len(hits))
	size := req.Size
	if size <= 0 {
		size = defaultSize
	}
	if len(hits) > size {
		hits = hits[:size]
	}
	return &Result{Total: total, Hits: hits}, nil
}

func (m *MemoryIndex) Count(_ context.Context, index string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, ok := m.indices[index]
	if !ok {
		return 0, fmt.Errorf("count %s: no such index", index)
	}
	return int64(len(docs)), nil
}

func (m *MemoryIndex) Exists(_ context.Context, index string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.indices[index]
	return ok, nil
}

func (m *MemoryIndex) EnsureIndex(_ context.Context, index string, _ models.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indices[index]; !ok {
		m.indices[index] = map[string]models.Document{}
	}
	return nil
}

func (m *MemoryIndex) Ping(context.Context) error { return nil }

func roundTrip(doc models.Document) (models.Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out models.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
