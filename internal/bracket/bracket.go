// Package bracket runs a 4-player single-elimination tournament: two
// semifinals feeding one final. Real results arrive through ReportResult;
// matches the local user is not part of resolve themselves on a timer, the
// way a busy server full of parallel games would look from one seat.
package bracket

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/config"
)

// MatchKey names one of the three bracket matches.
type MatchKey string

const (
	MatchTop    MatchKey = "top"
	MatchBottom MatchKey = "bottom"
	MatchFinal  MatchKey = "final"
)

// VisualStage is the bracket's display stage. It only ever moves forward.
type VisualStage string

const (
	StageWaiting      VisualStage = "waiting"
	StageSemisPlaying VisualStage = "semis_playing"
	StageFinalsReady  VisualStage = "finals_ready"
	StageFinalPlaying VisualStage = "final_playing"
	StageChampion     VisualStage = "champion"
)

var stageRank = map[VisualStage]int{
	StageWaiting:      0,
	StageSemisPlaying: 1,
	StageFinalsReady:  2,
	StageFinalPlaying: 3,
	StageChampion:     4,
}

var (
	// ErrMatchResolved is returned when a result arrives for a match that
	// already has a winner.
	ErrMatchResolved = errors.New("match already resolved")
	// ErrNotParticipant is returned when the reported winner is not in the
	// match.
	ErrNotParticipant = errors.New("winner is not in this match")
	// ErrNotReady is returned by StartFinal before both semifinals are done.
	ErrNotReady = errors.New("final is not ready")
)

// MatchState is one match's snapshot form.
type MatchState struct {
	P1         string `json:"p1"`
	P2         string `json:"p2"`
	WinnerID   string `json:"winnerId,omitempty"`
	InProgress bool   `json:"inProgress"`
	// DeadlineUnixMs is when an unattended match auto-resolves; 0 means no
	// auto-resolution.
	DeadlineUnixMs int64 `json:"deadlineMs,omitempty"`
}

// State is the full bracket snapshot. It round-trips through Resume so a
// player can leave for a match and come back to an identical bracket.
type State struct {
	PlayerIDs   []string    `json:"playerIds"`
	Stake       int64       `json:"betAmount"`
	PrizePool   int64       `json:"prizePool"`
	Top         MatchState  `json:"top"`
	Bottom      MatchState  `json:"bottom"`
	Final       MatchState  `json:"final"`
	VisualStage VisualStage `json:"visualStage"`
	Eliminated  []string    `json:"eliminated"`
}

// Event is the closed set of bracket notifications.
type Event interface {
	isEvent()
}

// StageChanged fires on every forward visual-stage move.
type StageChanged struct {
	Stage VisualStage
}

// MatchResolved fires when a semifinal or the final gets its winner.
type MatchResolved struct {
	Key      MatchKey
	WinnerID string
	LoserID  string
}

// ChampionDecided fires once, with the whole prize pool.
type ChampionDecided struct {
	WinnerID string
	Prize    int64
}

func (StageChanged) isEvent()    {}
func (MatchResolved) isEvent()   {}
func (ChampionDecided) isEvent() {}

// Options configures a bracket.
type Options struct {
	// Notify receives bracket events; nil means run silently. Callbacks run
	// with the bracket lock released.
	Notify func(Event)
	Rng    *rand.Rand
}

// Bracket is one local user's view of a 4-player tournament. Seeds 0 and 1
// play the top semifinal, 2 and 3 the bottom one.
type Bracket struct {
	cfg    *config.GameConfig
	logger runtime.Logger
	notify func(Event)

	userID  string
	players [4]string
	stake   int64
	prize   int64

	mu         sync.Mutex
	rng        *rand.Rand
	top        MatchState
	bottom     MatchState
	final      MatchState
	stage      VisualStage
	eliminated []string

	pollStop chan struct{}
	stopOnce sync.Once
}

// New builds a fresh bracket from the session's seed order.
func New(cfg *config.GameConfig, logger runtime.Logger, playerIDs []string, userID string, stake int64, opts Options) *Bracket {
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(Event) {}
	}
	b := &Bracket{
		cfg:      cfg,
		logger:   logger,
		notify:   notify,
		userID:   userID,
		stake:    stake,
		prize:    stake * 4,
		rng:      rng,
		stage:    StageWaiting,
		pollStop: make(chan struct{}),
	}
	copy(b.players[:], playerIDs)
	b.top = MatchState{P1: b.players[0], P2: b.players[1]}
	b.bottom = MatchState{P1: b.players[2], P2: b.players[3]}
	return b
}

// Resume rebuilds a bracket from a snapshot. A snapshot stuck at waiting
// while its matches already ran is repaired to semis_playing before anything
// else happens.
func Resume(cfg *config.GameConfig, logger runtime.Logger, saved State, userID string, opts Options) *Bracket {
	b := New(cfg, logger, saved.PlayerIDs, userID, saved.Stake, opts)
	b.top = saved.Top
	b.bottom = saved.Bottom
	b.final = saved.Final
	b.stage = saved.VisualStage
	b.eliminated = append([]string(nil), saved.Eliminated...)
	if saved.PrizePool > 0 {
		b.prize = saved.PrizePool
	}

	active := saved.Top.InProgress || saved.Bottom.InProgress ||
		saved.Top.WinnerID != "" || saved.Bottom.WinnerID != ""
	if b.stage == StageWaiting && active {
		b.stage = StageSemisPlaying
	}
	return b
}

// Start opens the semifinals and launches the auto-resolution poll. Matches
// the local user is not in get a jittered completion deadline.
func (b *Bracket) Start() {
	var events []Event
	b.mu.Lock()
	if b.advanceStageLocked(StageSemisPlaying) {
		events = append(events, StageChanged{Stage: StageSemisPlaying})
	}
	if b.top.WinnerID == "" {
		b.top.InProgress = true
		if !b.userIn(MatchTop) {
			b.top.DeadlineUnixMs = b.aiDeadlineLocked()
		}
	}
	if b.bottom.WinnerID == "" {
		b.bottom.InProgress = true
		if !b.userIn(MatchBottom) {
			b.bottom.DeadlineUnixMs = b.aiDeadlineLocked()
		}
	}
	b.mu.Unlock()
	b.emit(events)

	go b.poll()
}

// Stop cancels the poll task. Safe to call more than once.
func (b *Bracket) Stop() {
	b.stopOnce.Do(func() { close(b.pollStop) })
}

// UserMatch returns the semifinal the local user plays in and the opponent,
// or ok=false when the user is not seeded.
func (b *Bracket) UserMatch() (key MatchKey, opponent string, ok bool) {
	for i, id := range b.players {
		if id != b.userID {
			continue
		}
		if i < 2 {
			return MatchTop, b.players[1-i], true
		}
		return MatchBottom, b.players[5-i], true
	}
	return "", "", false
}

// ReportResult records a match winner. Each match resolves exactly once; a
// second result for the same match is rejected, which is what settles races
// between a real result and an auto-resolution.
func (b *Bracket) ReportResult(key MatchKey, winnerID string) error {
	b.mu.Lock()
	events, err := b.resolveLocked(key, winnerID)
	b.mu.Unlock()
	b.emit(events)
	return err
}

// StartFinal moves the bracket to final_playing and returns the finalists.
// When the local user is not one of them the final gets an auto-resolution
// deadline like any other unattended match.
func (b *Bracket) StartFinal() (p1, p2 string, err error) {
	var events []Event
	b.mu.Lock()
	defer func() {
		b.mu.Unlock()
		b.emit(events)
	}()

	if b.top.WinnerID == "" || b.bottom.WinnerID == "" {
		return "", "", ErrNotReady
	}
	p1, p2 = b.top.WinnerID, b.bottom.WinnerID
	if b.final.WinnerID != "" {
		return p1, p2, ErrMatchResolved
	}
	if !b.final.InProgress {
		b.final.P1, b.final.P2 = p1, p2
		b.final.InProgress = true
		if p1 != b.userID && p2 != b.userID {
			b.final.DeadlineUnixMs = b.aiDeadlineLocked()
		}
	}
	if b.advanceStageLocked(StageFinalPlaying) {
		events = append(events, StageChanged{Stage: StageFinalPlaying})
	}
	return p1, p2, nil
}

// SpectateTarget picks the match an eliminated user should watch: the
// unresolved semifinal they were not part of, or the final.
func (b *Bracket) SpectateTarget() (key MatchKey, p1, p2 string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stage {
	case StageSemisPlaying:
		userKey := MatchBottom
		if b.players[0] == b.userID || b.players[1] == b.userID {
			userKey = MatchTop
		}
		if userKey == MatchTop && b.bottom.WinnerID == "" {
			return MatchBottom, b.players[2], b.players[3], true
		}
		if userKey == MatchBottom && b.top.WinnerID == "" {
			return MatchTop, b.players[0], b.players[1], true
		}
	case StageFinalsReady, StageFinalPlaying:
		if b.top.WinnerID != "" && b.bottom.WinnerID != "" && b.final.WinnerID == "" {
			return MatchFinal, b.top.WinnerID, b.bottom.WinnerID, true
		}
	}
	return "", "", "", false
}

// Snapshot returns a copy of the whole bracket state.
func (b *Bracket) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		PlayerIDs:   append([]string(nil), b.players[:]...),
		Stake:       b.stake,
		PrizePool:   b.prize,
		Top:         b.top,
		Bottom:      b.bottom,
		Final:       b.final,
		VisualStage: b.stage,
		Eliminated:  append([]string(nil), b.eliminated...),
	}
}

// Stage returns the current visual stage.
func (b *Bracket) Stage() VisualStage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage
}

func (b *Bracket) matchLocked(key MatchKey) *MatchState {
	switch key {
	case MatchTop:
		return &b.top
	case MatchBottom:
		return &b.bottom
	default:
		return &b.final
	}
}

func (b *Bracket) userIn(key MatchKey) bool {
	m := b.matchLocked(key)
	return m.P1 == b.userID || m.P2 == b.userID
}

func (b *Bracket) aiDeadlineLocked() int64 {
	min := b.cfg.AIMatchMinDelayMs
	span := b.cfg.AIMatchMaxDelayMs - min
	if span < 1 {
		span = 1
	}
	return time.Now().UnixMilli() + int64(min+b.rng.Intn(span))
}

func (b *Bracket) advanceStageLocked(to VisualStage) bool {
	if stageRank[to] <= stageRank[b.stage] {
		return false
	}
	b.stage = to
	return true
}

func (b *Bracket) eliminateLocked(uid string) {
	for _, e := range b.eliminated {
		if e == uid {
			return
		}
	}
	b.eliminated = append(b.eliminated, uid)
}

func (b *Bracket) resolveLocked(key MatchKey, winnerID string) ([]Event, error) {
	m := b.matchLocked(key)
	if m.WinnerID != "" {
		return nil, ErrMatchResolved
	}
	if winnerID == "" || (winnerID != m.P1 && winnerID != m.P2) {
		return nil, ErrNotParticipant
	}
	loser := m.P1
	if winnerID == m.P1 {
		loser = m.P2
	}
	m.WinnerID = winnerID
	m.InProgress = false
	m.DeadlineUnixMs = 0
	b.eliminateLocked(loser)

	events := []Event{MatchResolved{Key: key, WinnerID: winnerID, LoserID: loser}}
	if key == MatchFinal {
		if b.advanceStageLocked(StageChampion) {
			events = append(events, StageChanged{Stage: StageChampion})
		}
		events = append(events, ChampionDecided{WinnerID: winnerID, Prize: b.prize})
		return events, nil
	}
	if b.top.WinnerID != "" && b.bottom.WinnerID != "" && b.advanceStageLocked(StageFinalsReady) {
		events = append(events, StageChanged{Stage: StageFinalsReady})
	}
	return events, nil
}

// poll is the single background task that finishes unattended matches. A
// match with no deadline that somehow ended up in progress without the user
// is treated as overdue rather than left stuck.
func (b *Bracket) poll() {
	interval := time.Duration(b.cfg.AIPollIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.pollStop:
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

func (b *Bracket) sweep() {
	now := time.Now().UnixMilli()
	var events []Event
	b.mu.Lock()
	for _, key := range []MatchKey{MatchTop, MatchBottom, MatchFinal} {
		m := b.matchLocked(key)
		if !m.InProgress || m.WinnerID != "" || b.userIn(key) || m.P1 == "" || m.P2 == "" {
			continue
		}
		if m.DeadlineUnixMs > now {
			continue
		}
		winner := m.P1
		if b.rng.Intn(2) == 1 {
			winner = m.P2
		}
		evs, err := b.resolveLocked(key, winner)
		if err != nil {
			continue
		}
		b.logger.Info("bracket: %s auto-resolved, %s beats the clock", key, winner)
		events = append(events, evs...)
	}
	b.mu.Unlock()
	b.emit(events)

	if b.Stage() == StageChampion {
		b.Stop()
	}
}

func (b *Bracket) emit(events []Event) {
	for _, ev := range events {
		b.notify(ev)
	}
}
