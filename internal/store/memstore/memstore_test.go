package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wordclash/internal/ports"
)

func TestCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	doc := ports.Document{"status": "waiting", "betAmount": float64(100)}
	if err := s.Create(ctx, "queue", "p1", doc); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, "queue", "p1", doc); !errors.Is(err, ports.ErrAlreadyExists) {
		t.Errorf("second create: %v", err)
	}

	got, err := s.Get(ctx, "queue", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got["status"] != "waiting" {
		t.Errorf("status = %v", got["status"])
	}

	// Mutating the returned copy must not leak into the store.
	got["status"] = "mutated"
	again, _ := s.Get(ctx, "queue", "p1")
	if again["status"] != "waiting" {
		t.Error("Get returned an aliased document")
	}

	if err := s.Update(ctx, "queue", "p1", map[string]interface{}{
		"status":          "matched",
		"gameState.stage": "dice_roll",
	}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(ctx, "queue", "p1")
	if got["status"] != "matched" {
		t.Errorf("status = %v", got["status"])
	}
	if v, ok := ports.GetField(got, "gameState.stage"); !ok || v != "dice_roll" {
		t.Errorf("nested update lost: %v, %v", v, ok)
	}

	if err := s.Update(ctx, "queue", "ghost", map[string]interface{}{"x": 1}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("update missing: %v", err)
	}

	if err := s.Delete(ctx, "queue", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "queue", "p1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("get after delete: %v", err)
	}
	if err := s.Delete(ctx, "queue", "p1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("double delete: %v", err)
	}
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s := New()

	entries := []struct {
		id        string
		status    string
		stake     int
		createdAt int
	}{
		{"a", "waiting", 100, 30},
		{"b", "waiting", 100, 10},
		{"c", "waiting", 500, 20},
		{"d", "matched", 100, 5},
	}
	for _, e := range entries {
		err := s.Create(ctx, "queue", e.id, ports.Document{
			"status": e.status, "betAmount": e.stake, "createdAt": e.createdAt,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Query(ctx, "queue", ports.Query{
		Filters: []ports.Filter{
			{Field: "status", Value: "waiting"},
			{Field: "betAmount", Value: int64(100)},
		},
		OrderBy: "createdAt",
		Asc:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	// Ascending creation order: b (10) before a (30).
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("order = %s, %s", got[0].ID, got[1].ID)
	}

	limited, err := s.Query(ctx, "queue", ports.Query{
		Filters: []ports.Filter{{Field: "status", Value: "waiting"}},
		OrderBy: "createdAt",
		Asc:     true,
		Limit:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != "b" {
		t.Fatalf("limit or order wrong: %v", limited)
	}

	empty, err := s.Query(ctx, "nothing", ports.Query{})
	if err != nil || len(empty) != 0 {
		t.Errorf("empty collection query: %v, %v", empty, err)
	}
}

func TestTransactBuffersWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, "queue", "p1", ports.Document{"status": "waiting"}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.Transact(ctx, func(tx ports.Tx) error {
		if err := tx.Update("queue", "p1", map[string]interface{}{"status": "matched"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("transact: %v", err)
	}
	doc, _ := s.Get(ctx, "queue", "p1")
	if doc["status"] != "waiting" {
		t.Error("failed transaction leaked a write")
	}

	err = s.Transact(ctx, func(tx ports.Tx) error {
		doc, err := tx.Get("queue", "p1")
		if err != nil {
			return err
		}
		if doc["status"] != "waiting" {
			t.Errorf("tx read: %v", doc["status"])
		}
		if err := tx.Update("queue", "p1", map[string]interface{}{"status": "matched"}); err != nil {
			return err
		}
		return tx.Create("sessions", "s1", ports.Document{"status": "active"})
	})
	if err != nil {
		t.Fatal(err)
	}
	doc, _ = s.Get(ctx, "queue", "p1")
	if doc["status"] != "matched" {
		t.Error("committed update lost")
	}
	if _, err := s.Get(ctx, "sessions", "s1"); err != nil {
		t.Errorf("committed create lost: %v", err)
	}
}

// Two goroutines each try to claim the other, the way the matchmaking
// transaction does. Exactly one pairing must win per entry.
func TestTransactConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"p1", "p2"} {
		if err := s.Create(ctx, "queue", id, ports.Document{"status": "waiting"}); err != nil {
			t.Fatal(err)
		}
	}

	claim := func(self, other string) error {
		return s.Transact(ctx, func(tx ports.Tx) error {
			mine, err := tx.Get("queue", self)
			if err != nil {
				return err
			}
			theirs, err := tx.Get("queue", other)
			if err != nil {
				return err
			}
			if mine["status"] != "waiting" || theirs["status"] != "waiting" {
				return ports.ErrConflict
			}
			for _, id := range []string{self, other} {
				if err := tx.Update("queue", id, map[string]interface{}{
					"status": "matched", "claimedBy": self,
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0] = claim("p1", "p2") }()
	go func() { defer wg.Done(); results[1] = claim("p2", "p1") }()
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, ports.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning claim, got %d", wins)
	}

	p1, _ := s.Get(ctx, "queue", "p1")
	p2, _ := s.Get(ctx, "queue", "p2")
	if p1["claimedBy"] != p2["claimedBy"] {
		t.Errorf("split claim: %v vs %v", p1["claimedBy"], p2["claimedBy"])
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := New()

	changes := make(chan ports.Change, 16)
	cancel, err := s.Subscribe(ctx, "sessions", "s1", func(c ports.Change) {
		changes <- c
	})
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	// Initial delivery for a missing document is a nil Doc.
	first := waitChange(t, changes)
	if first.Doc != nil {
		t.Errorf("initial snapshot = %v, want nil", first.Doc)
	}

	if err := s.Create(ctx, "sessions", "s1", ports.Document{"status": "active"}); err != nil {
		t.Fatal(err)
	}
	if c := waitChange(t, changes); c.Doc["status"] != "active" {
		t.Errorf("create change: %v", c.Doc)
	}

	if err := s.Update(ctx, "sessions", "s1", map[string]interface{}{"status": "completed"}); err != nil {
		t.Fatal(err)
	}
	if c := waitChange(t, changes); c.Doc["status"] != "completed" {
		t.Errorf("update change: %v", c.Doc)
	}

	if err := s.Delete(ctx, "sessions", "s1"); err != nil {
		t.Fatal(err)
	}
	if c := waitChange(t, changes); c.Doc != nil {
		t.Errorf("delete change: %v", c.Doc)
	}

	cancel()
	if err := s.Create(ctx, "sessions", "s1", ports.Document{"status": "again"}); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		t.Errorf("delivery after cancel: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, "sessions", "s1", ports.Document{"n": 0}); err != nil {
		t.Fatal(err)
	}

	const updates = 50
	changes := make(chan ports.Change, updates+2)
	cancel, err := s.Subscribe(ctx, "sessions", "s1", func(c ports.Change) {
		changes <- c
	})
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	for i := 1; i <= updates; i++ {
		if err := s.Update(ctx, "sessions", "s1", map[string]interface{}{"n": i}); err != nil {
			t.Fatal(err)
		}
	}

	last := -1
	for i := 0; i <= updates; i++ {
		c := waitChange(t, changes)
		n := c.Doc["n"].(int)
		if n < last {
			t.Fatalf("out of order delivery: %d after %d", n, last)
		}
		last = n
	}
	if last != updates {
		t.Errorf("final value %d, want %d", last, updates)
	}
}

func waitChange(t *testing.T, ch <-chan ports.Change) ports.Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return ports.Change{}
	}
}
