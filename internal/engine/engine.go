// Package engine runs the per-client round machine for one game session. A
// single goroutine consumes one event stream fed by store snapshots, timers
// and local inputs, so every transition happens in one place. The shared
// session document stays authoritative: whenever a snapshot disagrees with
// locally inferred state, the snapshot wins.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/answers"
	"wordclash/internal/bot"
	"wordclash/internal/config"
	"wordclash/internal/domain"
	"wordclash/internal/session"
)

// Options configures one engine instance.
type Options struct {
	SessionID string
	// PlayerID is the local seat; empty for spectators.
	PlayerID string
	// Spectator suppresses local input and withholds private answers from
	// snapshot notifications until comparison.
	Spectator bool
	// Bots maps simulated seat ids to their skill level. The engine rolls,
	// picks letters, fills cards and presses STOP for these seats.
	Bots map[string]int
	// Notify receives ordered notifications from the engine goroutine. Nil
	// means run silently.
	Notify func(Notification)
	// Rng is injectable for tests; nil seeds from the clock.
	Rng *rand.Rand
}

// Engine drives one session for one client (or spectator).
type Engine struct {
	sessions *session.Service
	words    *answers.Store
	cfg      *config.GameConfig
	logger   runtime.Logger

	sessionID string
	playerID  string
	spectator bool
	bots      map[string]int
	notify    func(Notification)
	rng       *rand.Rand

	ctx       context.Context
	events    chan event
	quit      chan struct{}
	stopOnce  sync.Once
	cancelSub func()

	// Everything below is confined to the run goroutine.
	snap          domain.Session
	phase         Phase
	epoch         int
	round         int
	letter        string
	stopSeen      bool
	compared      bool
	letterPending bool
	rolled        map[string]bool
	rollPending   map[string]bool
	fillsStarted  map[string]bool
	roundWinners  []string
	scores        [2]int
}

// New builds an engine; Start launches it.
func New(sessions *session.Service, words *answers.Store, cfg *config.GameConfig, logger runtime.Logger, opts Options) *Engine {
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(Notification) {}
	}
	return &Engine{
		sessions:     sessions,
		words:        words,
		cfg:          cfg,
		logger:       logger,
		sessionID:    opts.SessionID,
		playerID:     opts.PlayerID,
		spectator:    opts.Spectator,
		bots:         opts.Bots,
		notify:       notify,
		rng:          rng,
		events:       make(chan event, 128),
		quit:         make(chan struct{}),
		rolled:       map[string]bool{},
		rollPending:  map[string]bool{},
		fillsStarted: map[string]bool{},
	}
}

// Start loads the session, subscribes to it and launches the run goroutine.
// Resuming a session in progress is fine: the first snapshot pulls the
// machine to wherever the shared state already is.
func (e *Engine) Start(ctx context.Context) error {
	snap, err := e.sessions.Get(ctx, e.sessionID)
	if err != nil {
		return err
	}
	e.ctx = ctx
	e.snap = snap
	e.round = snap.GameState.CurrentRound
	if e.round < 1 {
		e.round = 1
	}
	e.scores = [2]int{snap.GameState.Player1Score, snap.GameState.Player2Score}
	for _, w := range []string{snap.GameState.Round1Winner, snap.GameState.Round2Winner, snap.GameState.Round3Winner} {
		if w != "" {
			e.roundWinners = append(e.roundWinners, w)
		}
	}

	cancel, err := e.sessions.Subscribe(ctx, e.sessionID, func(s domain.Session, exists bool) {
		e.post(snapshotEvent{session: s, exists: exists})
	})
	if err != nil {
		return err
	}
	e.cancelSub = cancel

	go e.run(ctx)
	return nil
}

// Stop tears the engine down. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		if e.cancelSub != nil {
			e.cancelSub()
		}
		close(e.quit)
	})
}

// Roll, ChooseLetter, FillCard and PressStop feed local inputs into the event
// stream. Inputs that arrive out of phase or out of turn are dropped.
func (e *Engine) Roll()                 { e.post(inputEvent{RollInput{}}) }
func (e *Engine) ChooseLetter(l string) { e.post(inputEvent{LetterInput{Letter: l}}) }
func (e *Engine) FillCard(c domain.Category, answer string) {
	e.post(inputEvent{FillInput{Category: c, Answer: answer}})
}
func (e *Engine) PressStop() { e.post(inputEvent{StopInput{}}) }

func (e *Engine) post(ev event) {
	select {
	case e.events <- ev:
	case <-e.quit:
	}
}

func (e *Engine) run(ctx context.Context) {
	e.setPhase(PhaseRoundAnnouncement)
	e.schedule(e.ms(e.cfg.RoundAnnouncementMs), timerEvent{kind: timerAnnouncementOver})

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.quit:
			return
		case ev := <-e.events:
			switch v := ev.(type) {
			case snapshotEvent:
				e.handleSnapshot(v)
			case timerEvent:
				e.handleTimer(v)
			case inputEvent:
				e.handleInput(v.input)
			}
		}
	}
}

func (e *Engine) ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (e *Engine) schedule(d time.Duration, tv timerEvent) {
	tv.epoch = e.epoch
	time.AfterFunc(d, func() { e.post(tv) })
}

func (e *Engine) setPhase(p Phase) {
	e.phase = p
	e.notify(PhaseChange{Phase: p, Round: e.round})
}

func (e *Engine) seats() [2]string {
	var s [2]string
	copy(s[:], e.snap.PlayerIDs)
	return s
}

// controls reports whether the engine simulates this seat.
func (e *Engine) controls(seat string) bool {
	_, ok := e.bots[seat]
	return ok && seat != ""
}

// publishes reports whether this engine writes the seat's score to the
// session: simulated seats plus the local player's own seat.
func (e *Engine) publishes(seat string) bool {
	return e.controls(seat) || (seat != "" && seat == e.playerID)
}

// primarySeat is the seat used for shared writes that only need to happen
// once per engine (round winner, next round, game end).
func (e *Engine) primarySeat() string {
	if e.playerID != "" {
		return e.playerID
	}
	for _, seat := range e.seats() {
		if e.controls(seat) {
			return seat
		}
	}
	return ""
}

func (e *Engine) level(seat string) int {
	if lvl, ok := e.bots[seat]; ok && lvl > 0 {
		return lvl
	}
	return bot.Level(seat)
}

func (e *Engine) applyAs(seat string, act session.Action) {
	if err := e.sessions.Apply(e.ctx, e.sessionID, seat, act); err != nil {
		e.logger.Warn("session %s: %T as %s rejected: %v", e.sessionID, act, seat, err)
	}
}

func (e *Engine) resetRound(n int) {
	e.epoch++
	e.round = n
	e.letter = ""
	e.stopSeen = false
	e.compared = false
	e.letterPending = false
	e.rolled = map[string]bool{}
	e.rollPending = map[string]bool{}
	e.fillsStarted = map[string]bool{}
}

func (e *Engine) handleSnapshot(sv snapshotEvent) {
	if !sv.exists {
		if e.phase != PhaseGameWinner {
			e.logger.Warn("session %s: document gone mid-game", e.sessionID)
		}
		return
	}
	e.snap = sv.session
	e.notifySnapshot()

	gs := e.snap.GameState
	if e.snap.Status == domain.SessionCompleted && e.snap.WinnerID != "" {
		if e.phase != PhaseGameWinner {
			e.setPhase(PhaseGameWinner)
			e.notify(GameDecided{WinnerID: e.snap.WinnerID})
		}
		return
	}

	// The other side already started the next round.
	if gs.CurrentRound > e.round {
		e.resetRound(gs.CurrentRound)
		e.setPhase(PhaseRoundAnnouncement)
		e.schedule(e.ms(e.cfg.RoundAnnouncementMs), timerEvent{kind: timerAnnouncementOver})
		return
	}

	// A seat whose die is clear and not mid-animation may roll again; this
	// is how tie resets re-arm both seats.
	seats := e.seats()
	if gs.Player1Dice == 0 && !gs.Player1Rolling {
		delete(e.rolled, seats[0])
	}
	if gs.Player2Dice == 0 && !gs.Player2Rolling {
		delete(e.rolled, seats[1])
	}

	e.reconcile()
}

// reconcile pulls the local phase toward whatever the last snapshot says.
// Runs after every snapshot and after the announcement overlay, so a late
// joiner catches up even when nobody else is acting.
func (e *Engine) reconcile() {
	gs := e.snap.GameState

	if e.phase == PhaseDiceRoll {
		if gs.Stage == domain.StageLetterSelection || gs.DiceWinner != "" {
			e.setPhase(PhaseLetterSelect)
		} else {
			e.maybeBotRoll()
		}
	}
	if e.phase == PhaseLetterSelect {
		e.maybeBotLetter()
	}

	if gs.ChosenLetter != "" && gs.ChosenLetter != e.letter &&
		(e.phase == PhaseDiceRoll || e.phase == PhaseLetterSelect || e.phase == PhaseLetterAnnounce) {
		e.letter = gs.ChosenLetter
		if e.spectator {
			e.enterPlaying()
		} else if e.phase != PhaseLetterAnnounce {
			e.setPhase(PhaseLetterAnnounce)
			e.schedule(e.ms(e.cfg.LetterAnnouncementMs), timerEvent{kind: timerLetterAnnounceOver})
		}
	}

	if gs.RoundEnded && e.phase == PhasePlaying && !e.stopSeen {
		e.stopSeen = true
		e.notify(StopAnnounced{StopperID: gs.StoppedBy})
		e.schedule(e.ms(e.cfg.ComparisonRevealMs), timerEvent{kind: timerStopOverlayOver})
	}
}

func (e *Engine) handleTimer(tv timerEvent) {
	if tv.epoch != e.epoch {
		return
	}
	switch tv.kind {
	case timerAnnouncementOver:
		if e.phase == PhaseRoundAnnouncement {
			e.setPhase(PhaseDiceRoll)
			e.reconcile()
		}
	case timerBotRoll:
		e.rollPending[tv.seat] = false
		e.fireBotRoll(tv.seat)
	case timerBotLetter:
		e.letterPending = false
		e.fireBotLetter(tv.seat)
	case timerLetterAnnounceOver:
		if e.phase == PhaseLetterAnnounce {
			e.enterPlaying()
		}
	case timerBotFill:
		e.fireBotFill(tv.seat, tv.card)
	case timerBotStop:
		if e.phase == PhasePlaying && !e.stopSeen {
			e.applyAs(tv.seat, session.StopPressed{})
		}
	case timerStopOverlayOver:
		if !e.compared {
			e.enterComparison()
		}
	case timerRoundWinnerOver:
		e.advance()
	}
}

func (e *Engine) handleInput(in Input) {
	if e.spectator || e.playerID == "" {
		return
	}
	gs := e.snap.GameState
	role := e.snap.RoleOf(e.playerID)
	if role == 0 {
		return
	}
	switch v := in.(type) {
	case RollInput:
		if e.phase != PhaseDiceRoll || gs.CurrentTurn != role || e.rolled[e.playerID] {
			return
		}
		if (role == 1 && gs.Player1Dice != 0) || (role == 2 && gs.Player2Dice != 0) {
			return
		}
		e.applyAs(e.playerID, session.StartRolling{})
		e.applyAs(e.playerID, session.DiceRolled{Value: 1 + e.rng.Intn(domain.DiceSides)})
		e.rolled[e.playerID] = true
	case LetterInput:
		if e.phase != PhaseLetterSelect || gs.DiceWinner != e.playerID || gs.ChosenLetter != "" {
			return
		}
		e.applyAs(e.playerID, session.LetterChosen{Letter: v.Letter})
	case FillInput:
		if e.phase != PhasePlaying || e.stopSeen {
			return
		}
		e.applyAs(e.playerID, session.CardFilled{Category: v.Category, Answer: v.Answer})
	case StopInput:
		if e.phase != PhasePlaying || e.stopSeen {
			return
		}
		e.applyAs(e.playerID, session.StopPressed{})
	}
}

func (e *Engine) maybeBotRoll() {
	gs := e.snap.GameState
	if e.phase != PhaseDiceRoll || gs.CurrentTurn < 1 || gs.CurrentTurn > 2 {
		return
	}
	seat := e.seats()[gs.CurrentTurn-1]
	if !e.controls(seat) || e.rolled[seat] || e.rollPending[seat] {
		return
	}
	if (gs.CurrentTurn == 1 && gs.Player1Dice != 0) || (gs.CurrentTurn == 2 && gs.Player2Dice != 0) {
		return
	}
	e.rollPending[seat] = true
	e.schedule(e.ms(e.cfg.BotRollDelayMs), timerEvent{kind: timerBotRoll, seat: seat})
}

func (e *Engine) fireBotRoll(seat string) {
	gs := e.snap.GameState
	if e.phase != PhaseDiceRoll || e.rolled[seat] {
		return
	}
	role := e.snap.RoleOf(seat)
	if role == 0 || gs.CurrentTurn != role {
		return
	}
	if (role == 1 && gs.Player1Dice != 0) || (role == 2 && gs.Player2Dice != 0) {
		return
	}
	e.applyAs(seat, session.StartRolling{})
	e.applyAs(seat, session.DiceRolled{Value: 1 + e.rng.Intn(domain.DiceSides)})
	e.rolled[seat] = true
}

func (e *Engine) maybeBotLetter() {
	gs := e.snap.GameState
	if e.phase != PhaseLetterSelect || gs.ChosenLetter != "" || e.letterPending {
		return
	}
	if !e.controls(gs.DiceWinner) {
		return
	}
	e.letterPending = true
	e.schedule(e.ms(e.cfg.BotLetterDelayMs), timerEvent{kind: timerBotLetter, seat: gs.DiceWinner})
}

func (e *Engine) fireBotLetter(seat string) {
	gs := e.snap.GameState
	if e.phase != PhaseLetterSelect || gs.ChosenLetter != "" || gs.DiceWinner != seat {
		return
	}
	e.applyAs(seat, session.LetterChosen{Letter: bot.PickLetter(e.words, e.rng)})
}

func (e *Engine) enterPlaying() {
	e.setPhase(PhasePlaying)
	for _, seat := range e.seats() {
		if !e.controls(seat) || e.fillsStarted[seat] {
			continue
		}
		e.fillsStarted[seat] = true
		sched := bot.FillSchedule(e.cfg, e.level(seat), e.rng)
		for i, d := range sched {
			e.schedule(d, timerEvent{kind: timerBotFill, seat: seat, card: i})
		}
	}
}

func (e *Engine) fireBotFill(seat string, card int) {
	if e.phase != PhasePlaying || e.stopSeen || card < 0 || card >= len(domain.CardSequence) {
		return
	}
	category := domain.CardSequence[card]
	answer := e.words.Pick(e.letter, category)
	e.applyAs(seat, session.CardFilled{Category: category, Answer: answer})
	if card == len(domain.CardSequence)-1 {
		e.schedule(e.ms(e.cfg.BotStopDelayMs), timerEvent{kind: timerBotStop, seat: seat})
	}
}

func (e *Engine) enterComparison() {
	e.compared = true
	e.setPhase(PhaseComparison)

	seats := e.seats()
	a1 := e.snap.Answers[seats[0]]
	a2 := e.snap.Answers[seats[1]]
	var p1, p2 int
	for _, category := range domain.CardSequence {
		out := e.words.Compare(e.letter, category, a1[string(category)], a2[string(category)])
		e.notify(CategoryResult{Category: category, Outcome: out})
		p1 += out.P1Points
		p2 += out.P2Points
	}
	e.scores[0] += p1
	e.scores[1] += p2
	winner := domain.RoundWinner(p1, p2)
	e.roundWinners = append(e.roundWinners, winner)
	e.notify(RoundDecided{
		Round:        e.round,
		Winner:       winner,
		Player1Score: e.scores[0],
		Player2Score: e.scores[1],
	})

	for i, seat := range seats {
		if e.publishes(seat) {
			e.applyAs(seat, session.ScoreUpdate{Score: e.scores[i]})
		}
	}
	if primary := e.primarySeat(); primary != "" {
		e.applyAs(primary, session.RoundWinner{Winner: winner})
	}

	e.setPhase(PhaseRoundWinner)
	e.schedule(e.ms(e.cfg.RoundWinnerMs), timerEvent{kind: timerRoundWinnerOver})
}

// advance ends the game or starts the next round after the winner overlay.
func (e *Engine) advance() {
	if e.phase != PhaseRoundWinner {
		return
	}
	outcome := domain.ResolveGame(e.roundWinners)
	if outcome.Decided {
		seats := e.seats()
		winnerID := seats[0]
		if outcome.WinnerRole == domain.RoundWinnerPlayer2 {
			winnerID = seats[1]
		}
		if e.primarySeat() != "" {
			if err := e.sessions.End(e.ctx, e.sessionID, winnerID); err != nil {
				e.logger.Error("session %s: end failed: %v", e.sessionID, err)
			}
		}
		e.setPhase(PhaseGameWinner)
		e.notify(GameDecided{WinnerID: winnerID})
		return
	}

	next := outcome.NextRound
	if primary := e.primarySeat(); primary != "" {
		e.applyAs(primary, session.NextRoundStarted{Round: next})
	}
	e.resetRound(next)
	e.setPhase(PhaseRoundAnnouncement)
	e.schedule(e.ms(e.cfg.RoundAnnouncementMs), timerEvent{kind: timerAnnouncementOver})
}

func (e *Engine) notifySnapshot() {
	s := e.snap
	if e.spectator && !e.compared {
		s.Answers = nil
	}
	e.notify(SnapshotSync{Session: s})
}
