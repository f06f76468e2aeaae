package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Store error sentinels. Adapters translate backend failures into these so
// callers can branch without knowing the backend.
var (
	// ErrNotFound is returned when a document id does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrConflict is returned when a transaction loses a write race and has
	// exhausted its retries.
	ErrConflict = errors.New("transaction conflict")
)

// Document is the schemaless unit the store persists. Values are what
// encoding/json produces for map[string]interface{}: numbers arrive as
// float64 regardless of how they were written.
type Document map[string]interface{}

// Filter is one equality condition for Query. Field may be a dotted path.
type Filter struct {
	Field string
	Value interface{}
}

// Query narrows and orders a collection scan. A zero Limit means no limit.
type Query struct {
	Filters []Filter
	OrderBy string
	Asc     bool
	Limit   int
}

// QueryResult is one matched document, in the query's order.
type QueryResult struct {
	ID  string
	Doc Document
}

// Change is one subscription notification. Doc is nil when the document was
// deleted.
type Change struct {
	ID  string
	Doc Document
}

// Tx is the view a transaction callback operates through. Reads observe
// committed state; writes are buffered and applied atomically when the
// callback returns nil.
type Tx interface {
	Get(collection, id string) (Document, error)
	Create(collection, id string, doc Document) error
	Update(collection, id string, fields map[string]interface{}) error
	Delete(collection, id string) error
}

// DocumentStore is the persistence contract the game services run on. Update
// and the Tx variant treat dotted field names as paths into nested maps, so
// concurrent writers touching different branches do not clobber each other.
type DocumentStore interface {
	Create(ctx context.Context, collection, id string, doc Document) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]QueryResult, error)

	// Transact runs fn atomically. The callback may run more than once when
	// the backend detects contention; it must be side-effect free apart from
	// its Tx writes.
	Transact(ctx context.Context, fn func(tx Tx) error) error

	// Subscribe delivers the current document immediately (nil Doc if it does
	// not exist yet) and every subsequent change until cancel is called.
	// Deliveries for one subscription are in commit order.
	Subscribe(ctx context.Context, collection, id string, fn func(Change)) (cancel func(), err error)
}

// Encode converts a typed value into a Document via its JSON form.
func Encode(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode converts a Document back into a typed value via its JSON form.
func Decode(doc Document, v interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// GetField resolves a dotted path inside a document. The second return is
// false when any path segment is missing or not a map.
func GetField(doc Document, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = map[string]interface{}(doc)
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetField writes a dotted path inside a document, creating intermediate
// maps. A non-map intermediate value is replaced.
func SetField(doc Document, path string, value interface{}) {
	parts := strings.Split(path, ".")
	current := map[string]interface{}(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// DeleteField removes a dotted path from a document; missing paths are a
// no-op.
func DeleteField(doc Document, path string) {
	parts := strings.Split(path, ".")
	current := map[string]interface{}(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}
	delete(current, parts[len(parts)-1])
}

// Equal compares a stored value against a filter value with JSON numeric
// semantics: ints and float64s representing the same number match.
func Equal(stored, want interface{}) bool {
	if stored == want {
		return true
	}
	sf, sok := asFloat(stored)
	wf, wok := asFloat(want)
	return sok && wok && sf == wf
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
