package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/ports"
	"wordclash/internal/store/watch"
)

// txRetries bounds how often a write races a concurrent version bump before
// the operation gives up with ErrConflict.
const txRetries = 5

// listPageSize is the StorageList page size used by Query.
const listPageSize = 100

// StorageAdapter implements ports.DocumentStore on Nakama's storage engine.
// Documents are system-owned objects; optimistic concurrency rides on the
// per-object version string, with "*" meaning create-only. Change fan-out
// uses the same in-process hub as the other backends, so subscriptions only
// see writes that went through this adapter instance.
type StorageAdapter struct {
	nk     runtime.NakamaModule
	logger runtime.Logger
	hub    *watch.Hub
}

// NewStorageAdapter builds a store over the given Nakama runtime module.
func NewStorageAdapter(nk runtime.NakamaModule, logger runtime.Logger) *StorageAdapter {
	return &StorageAdapter{nk: nk, logger: logger, hub: watch.NewHub()}
}

func (s *StorageAdapter) Create(ctx context.Context, collection, id string, doc ports.Document) error {
	if err := s.write(ctx, collection, id, doc, "*"); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return ports.ErrAlreadyExists
		}
		return err
	}
	s.hub.Notify(collection, id, doc)
	return nil
}

func (s *StorageAdapter) Get(ctx context.Context, collection, id string) (ports.Document, error) {
	doc, _, err := s.read(ctx, collection, id)
	return doc, err
}

func (s *StorageAdapter) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	for attempt := 0; attempt < txRetries; attempt++ {
		doc, version, err := s.read(ctx, collection, id)
		if err != nil {
			return err
		}
		for path, value := range fields {
			ports.SetField(doc, path, value)
		}
		err = s.write(ctx, collection, id, doc, version)
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			continue
		}
		if err != nil {
			return err
		}
		s.hub.Notify(collection, id, doc)
		return nil
	}
	return ports.ErrConflict
}

func (s *StorageAdapter) Delete(ctx context.Context, collection, id string) error {
	if _, _, err := s.read(ctx, collection, id); err != nil {
		return err
	}
	err := s.nk.StorageDelete(ctx, []*runtime.StorageDelete{{
		Collection: collection,
		Key:        id,
	}})
	if err != nil {
		return fmt.Errorf("storage delete %s/%s: %w", collection, id, err)
	}
	s.hub.Notify(collection, id, nil)
	return nil
}

// Query lists the whole collection and filters in memory. Nakama's storage
// listing has no server-side predicates, and the game's collections stay
// small: a queue only holds players currently waiting.
func (s *StorageAdapter) Query(ctx context.Context, collection string, q ports.Query) ([]ports.QueryResult, error) {
	var hits []ports.QueryResult
	cursor := ""
	for {
		objects, next, err := s.nk.StorageList(ctx, "", "", collection, listPageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("storage list %s: %w", collection, err)
		}
		for _, obj := range objects {
			var doc ports.Document
			if err := json.Unmarshal([]byte(obj.GetValue()), &doc); err != nil {
				s.logger.Warn("skipping unreadable document %s/%s: %v", collection, obj.GetKey(), err)
				continue
			}
			if !matchesFilters(doc, q.Filters) {
				continue
			}
			hits = append(hits, ports.QueryResult{ID: obj.GetKey(), Doc: doc})
		}
		if next == "" {
			break
		}
		cursor = next
	}

	if q.OrderBy != "" {
		sort.Slice(hits, func(i, j int) bool {
			if q.Asc {
				return docLess(hits[i].Doc, hits[j].Doc, q.OrderBy)
			}
			return docLess(hits[j].Doc, hits[i].Doc, q.OrderBy)
		})
	} else {
		sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	}

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

// Transact replays fn against fresh reads until the commit batch lands with
// every version check intact. All buffered creates and updates go out in one
// StorageWrite call, which Nakama applies atomically; deletes follow once the
// writes are in.
func (s *StorageAdapter) Transact(ctx context.Context, fn func(tx ports.Tx) error) error {
	for attempt := 0; attempt < txRetries; attempt++ {
		t := &storageTx{ctx: ctx, store: s, pending: make(map[string]*pendingDoc)}
		if err := fn(t); err != nil {
			return err
		}
		err := t.commit()
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			continue
		}
		return err
	}
	return ports.ErrConflict
}

func (s *StorageAdapter) Subscribe(ctx context.Context, collection, id string, fn func(ports.Change)) (func(), error) {
	cancel := s.hub.Subscribe(collection, id, func() ports.Document {
		doc, _, err := s.read(ctx, collection, id)
		if err != nil {
			return nil
		}
		return doc
	}, fn)
	return cancel, nil
}

func (s *StorageAdapter) read(ctx context.Context, collection, id string) (ports.Document, string, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: collection,
		Key:        id,
	}})
	if err != nil {
		return nil, "", fmt.Errorf("storage read %s/%s: %w", collection, id, err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrNotFound
	}
	var doc ports.Document
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &doc); err != nil {
		return nil, "", fmt.Errorf("storage decode %s/%s: %w", collection, id, err)
	}
	return doc, objects[0].GetVersion(), nil
}

func (s *StorageAdapter) write(ctx context.Context, collection, id string, doc ports.Document, version string) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage encode %s/%s: %w", collection, id, err)
	}
	_, err = s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      collection,
		Key:             id,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return err
		}
		return fmt.Errorf("storage write %s/%s: %w", collection, id, err)
	}
	return nil
}

// pendingDoc is one document's buffered state inside a transaction.
type pendingDoc struct {
	collection string
	id         string
	doc        ports.Document
	// version guards the commit write; "*" marks a create.
	version string
	deleted bool
	dirty   bool
}

type storageTx struct {
	ctx     context.Context
	store   *StorageAdapter
	pending map[string]*pendingDoc
	order   []string
}

func (t *storageTx) track(collection, id string) (*pendingDoc, error) {
	key := collection + "/" + id
	if p, ok := t.pending[key]; ok {
		return p, nil
	}
	p := &pendingDoc{collection: collection, id: id}
	doc, version, err := t.store.read(t.ctx, collection, id)
	switch {
	case err == nil:
		p.doc = doc
		p.version = version
	case errors.Is(err, ports.ErrNotFound):
		p.version = "*"
	default:
		return nil, err
	}
	t.pending[key] = p
	t.order = append(t.order, key)
	return p, nil
}

func (t *storageTx) Get(collection, id string) (ports.Document, error) {
	p, err := t.track(collection, id)
	if err != nil {
		return nil, err
	}
	if p.doc == nil || p.deleted {
		return nil, ports.ErrNotFound
	}
	return p.doc, nil
}

func (t *storageTx) Create(collection, id string, doc ports.Document) error {
	p, err := t.track(collection, id)
	if err != nil {
		return err
	}
	if p.doc != nil && !p.deleted {
		return ports.ErrAlreadyExists
	}
	p.doc = doc
	p.deleted = false
	p.dirty = true
	return nil
}

func (t *storageTx) Update(collection, id string, fields map[string]interface{}) error {
	p, err := t.track(collection, id)
	if err != nil {
		return err
	}
	if p.doc == nil || p.deleted {
		return ports.ErrNotFound
	}
	for path, value := range fields {
		ports.SetField(p.doc, path, value)
	}
	p.dirty = true
	return nil
}

func (t *storageTx) Delete(collection, id string) error {
	p, err := t.track(collection, id)
	if err != nil {
		return err
	}
	if p.doc == nil || p.deleted {
		return ports.ErrNotFound
	}
	p.deleted = true
	p.dirty = true
	return nil
}

func (t *storageTx) commit() error {
	var writes []*runtime.StorageWrite
	var deletes []*runtime.StorageDelete

	for _, key := range t.order {
		p := t.pending[key]
		if !p.dirty {
			continue
		}
		if p.deleted {
			deletes = append(deletes, &runtime.StorageDelete{
				Collection: p.collection,
				Key:        p.id,
				Version:    p.version,
			})
			continue
		}
		value, err := json.Marshal(p.doc)
		if err != nil {
			return fmt.Errorf("storage encode %s/%s: %w", p.collection, p.id, err)
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      p.collection,
			Key:             p.id,
			Value:           string(value),
			Version:         p.version,
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}

	if len(writes) > 0 {
		if _, err := t.store.nk.StorageWrite(t.ctx, writes); err != nil {
			return err
		}
	}
	if len(deletes) > 0 {
		if err := t.store.nk.StorageDelete(t.ctx, deletes); err != nil {
			return err
		}
	}

	for _, key := range t.order {
		p := t.pending[key]
		if !p.dirty {
			continue
		}
		if p.deleted {
			t.store.hub.Notify(p.collection, p.id, nil)
		} else {
			t.store.hub.Notify(p.collection, p.id, p.doc)
		}
	}
	return nil
}

func matchesFilters(doc ports.Document, filters []ports.Filter) bool {
	for _, f := range filters {
		value, ok := ports.GetField(doc, f.Field)
		if !ok || !ports.Equal(value, f.Value) {
			return false
		}
	}
	return true
}

func docLess(a, b ports.Document, field string) bool {
	av, _ := ports.GetField(a, field)
	bv, _ := ports.GetField(b, field)
	af, aok := numeric(av)
	bf, bok := numeric(bv)
	if aok && bok {
		return af < bf
	}
	as, _ := av.(string)
	bs, _ := bv.(string)
	return as < bs
}

func numeric(v interface{}) (float64, bool) {
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
