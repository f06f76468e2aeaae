package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wordclash/internal/ports"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	err := s.Create(ctx, "queue", "p1", ports.Document{
		"status":    "waiting",
		"betAmount": 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, "queue", "p1", ports.Document{}); !errors.Is(err, ports.ErrAlreadyExists) {
		t.Errorf("second create: %v", err)
	}

	got, err := s.Get(ctx, "queue", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got["status"] != "waiting" {
		t.Errorf("status = %v", got["status"])
	}
	// JSON round-trip: numbers come back as float64.
	if !ports.Equal(got["betAmount"], int64(100)) {
		t.Errorf("betAmount = %T(%v)", got["betAmount"], got["betAmount"])
	}

	err = s.Update(ctx, "queue", "p1", map[string]interface{}{
		"status":          "matched",
		"gameState.stage": "dice_roll",
	})
	if err != nil {
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

func TestQueryFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

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
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(got), got)
	}
	ids := map[string]bool{got[0].ID: true, got[1].ID: true}
	if !ids["a"] || !ids["b"] {
		t.Errorf("wrong entries: %v", ids)
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

	// Other collections stay invisible.
	if err := s.Create(ctx, "sessions", "s1", ports.Document{"status": "waiting"}); err != nil {
		t.Fatal(err)
	}
	all, err := s.Query(ctx, "queue", ports.Query{})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range all {
		if r.ID == "s1" {
			t.Error("query crossed collections")
		}
	}
}

func TestTransactRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	if err := s.Create(ctx, "queue", "p1", ports.Document{"status": "waiting"}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.Transact(ctx, func(tx ports.Tx) error {
		if err := tx.Update("queue", "p1", map[string]interface{}{"status": "matched"}); err != nil {
			return err
		}
		if err := tx.Create("sessions", "s1", ports.Document{"status": "active"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("transact: %v", err)
	}

	doc, _ := s.Get(ctx, "queue", "p1")
	if doc["status"] != "waiting" {
		t.Error("rolled-back update leaked")
	}
	if _, err := s.Get(ctx, "sessions", "s1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("rolled-back create leaked: %v", err)
	}
}

func TestTransactCommitsAtomically(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	for _, id := range []string{"p1", "p2"} {
		if err := s.Create(ctx, "queue", id, ports.Document{"status": "waiting"}); err != nil {
			t.Fatal(err)
		}
	}

	err := s.Transact(ctx, func(tx ports.Tx) error {
		for _, id := range []string{"p1", "p2"} {
			doc, err := tx.Get("queue", id)
			if err != nil {
				return err
			}
			if doc["status"] != "waiting" {
				return ports.ErrConflict
			}
		}
		for _, id := range []string{"p1", "p2"} {
			if err := tx.Update("queue", id, map[string]interface{}{"status": "matched"}); err != nil {
				return err
			}
		}
		return tx.Create("sessions", "s1", ports.Document{"status": "active", "playerIds": []interface{}{"p1", "p2"}})
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"p1", "p2"} {
		doc, _ := s.Get(ctx, "queue", id)
		if doc["status"] != "matched" {
			t.Errorf("%s not matched", id)
		}
	}
	if _, err := s.Get(ctx, "sessions", "s1"); err != nil {
		t.Errorf("session missing: %v", err)
	}
}

func TestSubscribeDeliversCommittedChanges(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	changes := make(chan ports.Change, 16)
	cancel, err := s.Subscribe(ctx, "sessions", "s1", func(c ports.Change) {
		changes <- c
	})
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if c := waitChange(t, changes); c.Doc != nil {
		t.Errorf("initial snapshot = %v, want nil", c.Doc)
	}

	if err := s.Create(ctx, "sessions", "s1", ports.Document{"status": "active"}); err != nil {
		t.Fatal(err)
	}
	if c := waitChange(t, changes); c.Doc["status"] != "active" {
		t.Errorf("create change: %v", c.Doc)
	}

	// A transaction write notifies once, after commit.
	err = s.Transact(ctx, func(tx ports.Tx) error {
		return tx.Update("sessions", "s1", map[string]interface{}{"status": "completed"})
	})
	if err != nil {
		t.Fatal(err)
	}
	if c := waitChange(t, changes); c.Doc["status"] != "completed" {
		t.Errorf("transact change: %v", c.Doc)
	}

	if err := s.Delete(ctx, "sessions", "s1"); err != nil {
		t.Fatal(err)
	}
	if c := waitChange(t, changes); c.Doc != nil {
		t.Errorf("delete change: %v", c.Doc)
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
