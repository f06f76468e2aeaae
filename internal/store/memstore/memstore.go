// Package memstore is an in-process DocumentStore used by tests and
// single-node deployments. All collections live in one map guarded by one
// mutex, so transactions never conflict and never retry.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"wordclash/internal/ports"
	"wordclash/internal/store/watch"
)

// Store implements ports.DocumentStore in memory.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]ports.Document
	hub         *watch.Hub
}

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]ports.Document),
		hub:         watch.NewHub(),
	}
}

var _ ports.DocumentStore = (*Store)(nil)

func (s *Store) Create(ctx context.Context, collection, id string, doc ports.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]ports.Document)
		s.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return ports.ErrAlreadyExists
	}
	coll[id] = deepCopy(doc)
	s.notifyLocked(collection, id)
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (ports.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return deepCopy(doc), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(collection, id, fields)
}

func (s *Store) updateLocked(collection, id string, fields map[string]interface{}) error {
	doc, ok := s.collections[collection][id]
	if !ok {
		return ports.ErrNotFound
	}
	for path, value := range fields {
		ports.SetField(doc, path, deepCopyValue(value))
	}
	s.notifyLocked(collection, id)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collection]
	if _, ok := coll[id]; !ok {
		return ports.ErrNotFound
	}
	delete(coll, id)
	s.notifyLocked(collection, id)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q ports.Query) ([]ports.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []ports.QueryResult
	for id, doc := range s.collections[collection] {
		if matches(doc, q.Filters) {
			hits = append(hits, ports.QueryResult{ID: id, Doc: doc})
		}
	}

	if q.OrderBy != "" {
		sort.Slice(hits, func(i, j int) bool {
			less := fieldLess(hits[i].Doc, hits[j].Doc, q.OrderBy)
			if q.Asc {
				return less
			}
			return !less && !fieldLess(hits[j].Doc, hits[i].Doc, q.OrderBy)
		})
	} else {
		sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	}
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	for i := range hits {
		hits[i].Doc = deepCopy(hits[i].Doc)
	}
	return hits, nil
}

// Transact runs fn with the store lock held. Reads see committed state,
// writes are buffered and applied only when fn returns nil.
func (s *Store) Transact(ctx context.Context, fn func(tx ports.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s}
	if err := fn(t); err != nil {
		return err
	}
	for _, op := range t.ops {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, collection, id string, fn func(ports.Change)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel := s.hub.Subscribe(collection, id, func() ports.Document {
		// Initial snapshot, nil when the document does not exist yet.
		if doc, ok := s.collections[collection][id]; ok {
			return deepCopy(doc)
		}
		return nil
	}, fn)
	return cancel, nil
}

func (s *Store) notifyLocked(collection, id string) {
	var doc ports.Document
	if cur, ok := s.collections[collection][id]; ok {
		doc = deepCopy(cur)
	}
	s.hub.Notify(collection, id, doc)
}

type tx struct {
	store *Store
	ops   []func() error
}

func (t *tx) Get(collection, id string) (ports.Document, error) {
	doc, ok := t.store.collections[collection][id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return deepCopy(doc), nil
}

func (t *tx) Create(collection, id string, doc ports.Document) error {
	copied := deepCopy(doc)
	t.ops = append(t.ops, func() error {
		coll := t.store.collections[collection]
		if coll == nil {
			coll = make(map[string]ports.Document)
			t.store.collections[collection] = coll
		}
		if _, exists := coll[id]; exists {
			return ports.ErrAlreadyExists
		}
		coll[id] = copied
		t.store.notifyLocked(collection, id)
		return nil
	})
	return nil
}

func (t *tx) Update(collection, id string, fields map[string]interface{}) error {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = deepCopyValue(v)
	}
	t.ops = append(t.ops, func() error {
		return t.store.updateLocked(collection, id, copied)
	})
	return nil
}

func (t *tx) Delete(collection, id string) error {
	t.ops = append(t.ops, func() error {
		coll := t.store.collections[collection]
		if _, ok := coll[id]; !ok {
			return ports.ErrNotFound
		}
		delete(coll, id)
		t.store.notifyLocked(collection, id)
		return nil
	})
	return nil
}

func matches(doc ports.Document, filters []ports.Filter) bool {
	for _, f := range filters {
		v, ok := ports.GetField(doc, f.Field)
		if !ok || !ports.Equal(v, f.Value) {
			return false
		}
	}
	return true
}

func fieldLess(a, b ports.Document, field string) bool {
	av, _ := ports.GetField(a, field)
	bv, _ := ports.GetField(b, field)
	if af, aok := toFloat(av); aok {
		if bf, bok := toFloat(bv); bok {
			return af < bf
		}
	}
	as, _ := av.(string)
	bs, _ := bv.(string)
	return strings.Compare(as, bs) < 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func deepCopy(doc ports.Document) ports.Document {
	if doc == nil {
		return nil
	}
	out := make(ports.Document, len(doc))
	for k, v := range doc {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[k] = deepCopyValue(inner)
		}
		return out
	case ports.Document:
		return map[string]interface{}(deepCopy(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = deepCopyValue(inner)
		}
		return out
	default:
		return v
	}
}
