// Package watch is the in-process change-notification hub shared by the
// store backends. SQLite and the memory store have no native listen
// primitive, so writers publish committed changes here.
package watch

import (
	"sync"

	"wordclash/internal/ports"
)

// Hub fans committed document changes out to per-document subscribers.
// Callers must invoke Notify in commit order; deliveries to one subscriber
// then follow that order.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]*subscriber
	next int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]*subscriber)}
}

// Subscribe registers fn for one document. snapshot is called under the hub
// lock to produce the initial delivery, so no change published after
// Subscribe returns can be missed or reordered against it. The returned
// cancel is idempotent and safe to call from inside fn.
func (h *Hub) Subscribe(collection, id string, snapshot func() ports.Document, fn func(ports.Change)) func() {
	key := collection + "/" + id

	h.mu.Lock()
	byKey := h.subs[key]
	if byKey == nil {
		byKey = make(map[int]*subscriber)
		h.subs[key] = byKey
	}
	h.next++
	n := h.next
	sub := newSubscriber(fn)
	byKey[n] = sub
	sub.push(ports.Change{ID: id, Doc: snapshot()})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		if cur, ok := h.subs[key][n]; ok && cur == sub {
			delete(h.subs[key], n)
		}
		h.mu.Unlock()
		sub.close()
	}
}

// Notify publishes a committed change. doc is nil for deletions. The hub
// takes ownership of doc; callers must pass a copy not mutated afterwards.
func (h *Hub) Notify(collection, id string, doc ports.Document) {
	key := collection + "/" + id
	h.mu.Lock()
	for _, sub := range h.subs[key] {
		sub.push(ports.Change{ID: id, Doc: doc})
	}
	h.mu.Unlock()
}

// subscriber decouples notification from delivery: pushes append to an
// unbounded queue, a dedicated goroutine drains it in order. Callbacks may
// therefore call back into the store freely.
type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []ports.Change
	closed bool
}

func newSubscriber(fn func(ports.Change)) *subscriber {
	s := &subscriber{}
	s.cond = sync.NewCond(&s.mu)
	go s.run(fn)
	return s
}

func (s *subscriber) push(c ports.Change) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, c)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) run(fn func(ports.Change)) {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn(next)
	}
}

// close drops undelivered changes and stops the worker. A callback already in
// flight may finish after close returns.
func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.cond.Signal()
	s.mu.Unlock()
}
