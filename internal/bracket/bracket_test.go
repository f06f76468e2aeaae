package bracket

import (
	"math/rand"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/config"
)

type noopLogger struct{}

func (noopLogger) Debug(format string, v ...interface{})                   {}
func (noopLogger) Info(format string, v ...interface{})                    {}
func (noopLogger) Warn(format string, v ...interface{})                    {}
func (noopLogger) Error(format string, v ...interface{})                   {}
func (l noopLogger) WithField(key string, v interface{}) runtime.Logger    { return l }
func (l noopLogger) WithFields(fields map[string]interface{}) runtime.Logger { return l }
func (noopLogger) Fields() map[string]interface{}                          { return nil }

func fastConfig() *config.GameConfig {
	return &config.GameConfig{
		AIMatchMinDelayMs: 10,
		AIMatchMaxDelayMs: 25,
		AIPollIntervalMs:  5,
	}
}

var seeds = []string{"alice", "bot-1", "bot-2", "bot-3"}

func newBracket(t *testing.T, userID string) (*Bracket, chan Event) {
	t.Helper()
	events := make(chan Event, 64)
	b := New(fastConfig(), noopLogger{}, seeds, userID, 100, Options{
		Notify: func(ev Event) { events <- ev },
		Rng:    rand.New(rand.NewSource(7)),
	})
	t.Cleanup(b.Stop)
	return b, events
}

func waitEvent[T Event](t *testing.T, events chan Event, timeout time.Duration) T {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if want, ok := ev.(T); ok {
				return want
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestSeedsAndUserMatch(t *testing.T) {
	b, _ := newBracket(t, "alice")

	key, opponent, ok := b.UserMatch()
	if !ok || key != MatchTop || opponent != "bot-1" {
		t.Fatalf("UserMatch() = %q, %q, %v", key, opponent, ok)
	}

	b2, _ := newBracket(t, "bot-3")
	key, opponent, ok = b2.UserMatch()
	if !ok || key != MatchBottom || opponent != "bot-2" {
		t.Fatalf("bottom seed UserMatch() = %q, %q, %v", key, opponent, ok)
	}

	snap := b.Snapshot()
	if snap.Top.P1 != "alice" || snap.Top.P2 != "bot-1" || snap.Bottom.P1 != "bot-2" || snap.Bottom.P2 != "bot-3" {
		t.Fatalf("unexpected seeding: %+v", snap)
	}
	if snap.PrizePool != 400 {
		t.Fatalf("PrizePool = %d, want 400", snap.PrizePool)
	}
}

func TestAutoResolveSkipsUserMatch(t *testing.T) {
	b, events := newBracket(t, "alice")
	b.Start()

	resolved := waitEvent[MatchResolved](t, events, 2*time.Second)
	if resolved.Key != MatchBottom {
		t.Fatalf("auto-resolved %q, want the match without the user", resolved.Key)
	}
	if resolved.WinnerID != "bot-2" && resolved.WinnerID != "bot-3" {
		t.Fatalf("winner %q is not a bottom seed", resolved.WinnerID)
	}

	// The user's own match never times out.
	time.Sleep(100 * time.Millisecond)
	snap := b.Snapshot()
	if snap.Top.WinnerID != "" {
		t.Fatalf("user match auto-resolved to %q", snap.Top.WinnerID)
	}
	if !snap.Top.InProgress {
		t.Fatal("user match should still be in progress")
	}
}

func TestFullTournamentFlow(t *testing.T) {
	b, events := newBracket(t, "alice")
	b.Start()

	if stage := waitEvent[StageChanged](t, events, time.Second).Stage; stage != StageSemisPlaying {
		t.Fatalf("first stage %q, want semis_playing", stage)
	}

	waitEvent[MatchResolved](t, events, 2*time.Second)
	if err := b.ReportResult(MatchTop, "alice"); err != nil {
		t.Fatalf("ReportResult: %v", err)
	}
	if b.Stage() != StageFinalsReady {
		t.Fatalf("stage after both semis = %q", b.Stage())
	}

	p1, p2, err := b.StartFinal()
	if err != nil {
		t.Fatalf("StartFinal: %v", err)
	}
	if p1 != "alice" {
		t.Fatalf("finalists %q vs %q, want alice on top", p1, p2)
	}
	if b.Stage() != StageFinalPlaying {
		t.Fatalf("stage after StartFinal = %q", b.Stage())
	}

	if err := b.ReportResult(MatchFinal, "alice"); err != nil {
		t.Fatalf("final ReportResult: %v", err)
	}
	champ := waitEvent[ChampionDecided](t, events, time.Second)
	if champ.WinnerID != "alice" || champ.Prize != 400 {
		t.Fatalf("champion %q prize %d", champ.WinnerID, champ.Prize)
	}

	snap := b.Snapshot()
	if snap.VisualStage != StageChampion {
		t.Fatalf("final stage %q", snap.VisualStage)
	}
	if len(snap.Eliminated) != 3 {
		t.Fatalf("eliminated = %v, want 3 entries", snap.Eliminated)
	}
}

func TestDuplicateResultRejected(t *testing.T) {
	b, _ := newBracket(t, "alice")
	b.Start()

	if err := b.ReportResult(MatchTop, "alice"); err != nil {
		t.Fatalf("first result: %v", err)
	}
	if err := b.ReportResult(MatchTop, "bot-1"); err != ErrMatchResolved {
		t.Fatalf("second result err = %v, want ErrMatchResolved", err)
	}
	if snap := b.Snapshot(); snap.Top.WinnerID != "alice" {
		t.Fatalf("winner overwritten to %q", snap.Top.WinnerID)
	}
	if err := b.ReportResult(MatchBottom, "alice"); err != ErrNotParticipant {
		t.Fatalf("foreign winner err = %v, want ErrNotParticipant", err)
	}
}

func TestStartFinalBeforeSemisDone(t *testing.T) {
	b, _ := newBracket(t, "alice")
	b.Start()

	if _, _, err := b.StartFinal(); err != ErrNotReady {
		t.Fatalf("StartFinal err = %v, want ErrNotReady", err)
	}
}

func TestEliminatedUserWatchesAIFinal(t *testing.T) {
	b, events := newBracket(t, "alice")
	b.Start()

	if err := b.ReportResult(MatchTop, "bot-1"); err != nil {
		t.Fatalf("ReportResult: %v", err)
	}
	waitEvent[MatchResolved](t, events, 2*time.Second)

	p1, p2, err := b.StartFinal()
	if err != nil {
		t.Fatalf("StartFinal: %v", err)
	}
	if p1 == "alice" || p2 == "alice" {
		t.Fatal("eliminated user seeded into the final")
	}

	champ := waitEvent[ChampionDecided](t, events, 2*time.Second)
	if champ.WinnerID != p1 && champ.WinnerID != p2 {
		t.Fatalf("champion %q is not a finalist", champ.WinnerID)
	}
}

func TestResumeRepairsWaitingStage(t *testing.T) {
	saved := State{
		PlayerIDs:   seeds,
		Stake:       100,
		PrizePool:   400,
		Top:         MatchState{P1: "alice", P2: "bot-1", InProgress: true},
		Bottom:      MatchState{P1: "bot-2", P2: "bot-3", WinnerID: "bot-2"},
		VisualStage: StageWaiting,
		Eliminated:  []string{"bot-3"},
	}
	b := Resume(fastConfig(), noopLogger{}, saved, "alice", Options{Rng: rand.New(rand.NewSource(1))})
	defer b.Stop()

	if b.Stage() != StageSemisPlaying {
		t.Fatalf("resumed stage %q, want semis_playing repair", b.Stage())
	}
	snap := b.Snapshot()
	if snap.Bottom.WinnerID != "bot-2" || len(snap.Eliminated) != 1 {
		t.Fatalf("resume lost state: %+v", snap)
	}
}

func TestSpectateTargetPicksUnresolvedMatch(t *testing.T) {
	b, events := newBracket(t, "alice")
	b.Start()

	key, p1, p2, ok := b.SpectateTarget()
	if !ok || key != MatchBottom || p1 != "bot-2" || p2 != "bot-3" {
		t.Fatalf("SpectateTarget() = %q %q %q %v", key, p1, p2, ok)
	}

	waitEvent[MatchResolved](t, events, 2*time.Second)
	if _, _, _, ok := b.SpectateTarget(); ok {
		t.Fatal("nothing left to spectate in the semis")
	}

	if err := b.ReportResult(MatchTop, "bot-1"); err != nil {
		t.Fatalf("ReportResult: %v", err)
	}
	key, p1, p2, ok = b.SpectateTarget()
	if !ok || key != MatchFinal || p1 != "bot-1" {
		t.Fatalf("finals SpectateTarget() = %q %q %q %v", key, p1, p2, ok)
	}
}
