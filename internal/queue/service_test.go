package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/config"
	"wordclash/internal/domain"
	"wordclash/internal/ports"
	"wordclash/internal/store/memstore"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

func fastConfig() *config.GameConfig {
	cfg := config.Default()
	cfg.MatchAttempts = 5
	cfg.MatchAttemptIntervalMs = 10
	cfg.MatchTimeoutMs = 200
	return cfg
}

func newService(store ports.DocumentStore) *Service {
	return NewService(store, fastConfig(), noopLogger{}, "en")
}

func TestTwoPlayersMatch(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	s := newService(store)

	aliceEntry, err := s.JoinQueue(ctx, "alice", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}
	bobEntry, err := s.JoinQueue(ctx, "bob", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	sessions := make([]string, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessions[0], _ = s.WaitForMatch(ctx, aliceEntry, time.Second)
	}()
	go func() {
		defer wg.Done()
		sessions[1], _ = s.WaitForMatch(ctx, bobEntry, time.Second)
	}()
	wg.Wait()

	if sessions[0] == "" || sessions[0] != sessions[1] {
		t.Fatalf("players landed in different sessions: %q vs %q", sessions[0], sessions[1])
	}

	doc, err := store.Get(ctx, s.sessionsCollection(), sessions[0])
	if err != nil {
		t.Fatal(err)
	}
	var session domain.Session
	if err := ports.Decode(doc, &session); err != nil {
		t.Fatal(err)
	}
	if len(session.PlayerIDs) != 2 {
		t.Fatalf("playerIds = %v", session.PlayerIDs)
	}
	players := map[string]bool{session.PlayerIDs[0]: true, session.PlayerIDs[1]: true}
	if !players["alice"] || !players["bob"] {
		t.Errorf("wrong players: %v", session.PlayerIDs)
	}
	if session.GameState.Stage != domain.StageDiceRoll {
		t.Errorf("stage = %s", session.GameState.Stage)
	}
	if session.GameState.CurrentRound != 1 || session.GameState.CurrentTurn != 1 {
		t.Errorf("initial state: round %d turn %d", session.GameState.CurrentRound, session.GameState.CurrentTurn)
	}
	if session.PrizePool != 200 {
		t.Errorf("prize pool = %d", session.PrizePool)
	}

	// Exactly one session was created despite both loops running.
	all, err := store.Query(ctx, s.sessionsCollection(), ports.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("%d sessions created", len(all))
	}
}

func TestNoMatchAcrossModeOrStake(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	s := newService(store)

	a, err := s.JoinQueue(ctx, "alice", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.JoinQueue(ctx, "bob", domain.ModeTwoPlayer, 500); err != nil {
		t.Fatal(err)
	}

	sessionID, err := s.WaitForMatch(ctx, a, 150*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if sessionID != "" {
		t.Fatalf("players with different stakes matched into %s", sessionID)
	}
}

func TestWaitForMatchTimeoutIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s := newService(memstore.New())

	entry, err := s.JoinQueue(ctx, "alice", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	sessionID, err := s.WaitForMatch(ctx, entry, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if sessionID != "" {
		t.Fatalf("unexpected match: %s", sessionID)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("returned before the timeout")
	}
}

func TestWaitForMatchSeesEarlierMatch(t *testing.T) {
	// The pairing can land before WaitForMatch subscribes; the initial
	// snapshot must still resolve the wait.
	ctx := context.Background()
	store := memstore.New()
	s := newService(store)

	a, err := s.JoinQueue(ctx, "alice", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.JoinQueue(ctx, "bob", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}

	// Let the background loops finish the pairing first.
	first, err := s.WaitForMatch(ctx, a, time.Second)
	if err != nil || first == "" {
		t.Fatalf("first wait: %q, %v", first, err)
	}

	second, err := s.WaitForMatch(ctx, b, time.Second)
	if err != nil || second != first {
		t.Fatalf("late wait: %q, %v", second, err)
	}
}

func TestLeaveQueue(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	s := newService(store)

	entry, err := s.JoinQueue(ctx, "alice", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.LeaveQueue(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, s.queueCollection(), entry); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("entry still present: %v", err)
	}
	// Idempotent.
	if err := s.LeaveQueue(ctx, entry); err != nil {
		t.Errorf("second leave: %v", err)
	}
}

func TestCancelledContextStopsMatching(t *testing.T) {
	store := memstore.New()
	s := newService(store)

	joinCtx, cancel := context.WithCancel(context.Background())
	a, err := s.JoinQueue(joinCtx, "alice", domain.ModeTwoPlayer, 100)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	// Give the cancelled loop a chance to run if it were going to.
	time.Sleep(30 * time.Millisecond)

	ctx := context.Background()
	if _, err := s.JoinQueue(ctx, "bob", domain.ModeTwoPlayer, 100); err != nil {
		t.Fatal(err)
	}

	// Bob's own loop may still match with Alice's entry, which is fine; the
	// point is the cancelled loop must not panic or resurrect after its
	// context died. Alice's entry is removed to leave nothing to match.
	if err := s.LeaveQueue(ctx, a); err != nil {
		t.Fatal(err)
	}
}

func TestTournamentGroupsFour(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	s := newService(store)

	players := []string{"p0", "p1", "p2", "p3"}
	entries := make([]string, len(players))
	for i, p := range players {
		id, err := s.JoinTournamentQueue(ctx, p, 100)
		if err != nil {
			t.Fatal(err)
		}
		entries[i] = id
	}

	sessions := make([]string, len(players))
	var wg sync.WaitGroup
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], _ = s.WaitForTournament(ctx, entries[i], 2*time.Second)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(sessions); i++ {
		if sessions[i] == "" || sessions[i] != sessions[0] {
			t.Fatalf("session ids diverge: %v", sessions)
		}
	}

	doc, err := store.Get(ctx, s.sessionsCollection(), sessions[0])
	if err != nil {
		t.Fatal(err)
	}
	var session domain.Session
	if err := ports.Decode(doc, &session); err != nil {
		t.Fatal(err)
	}
	if len(session.PlayerIDs) != TournamentSize {
		t.Fatalf("playerIds = %v", session.PlayerIDs)
	}
	if session.Mode != domain.ModeTournament {
		t.Errorf("mode = %s", session.Mode)
	}
	if session.PrizePool != 400 {
		t.Errorf("prize pool = %d", session.PrizePool)
	}

	all, err := store.Query(ctx, s.sessionsCollection(), ports.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("%d sessions created for one quorum", len(all))
	}
}

func TestTournamentTimeoutWithTooFewPlayers(t *testing.T) {
	ctx := context.Background()
	s := newService(memstore.New())

	a, err := s.JoinTournamentQueue(ctx, "alice", 100)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.JoinTournamentQueue(ctx, "bob", 100); err != nil {
		t.Fatal(err)
	}

	sessionID, err := s.WaitForTournament(ctx, a, 150*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if sessionID != "" {
		t.Fatalf("two players must not form a bracket: %s", sessionID)
	}
	if err := s.LeaveTournamentQueue(ctx, a); err != nil {
		t.Fatal(err)
	}
}
