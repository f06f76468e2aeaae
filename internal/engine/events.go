package engine

import (
	"wordclash/internal/answers"
	"wordclash/internal/domain"
)

// Phase is the engine's local view of where the round is. It tracks the
// shared session stage but adds the overlay phases that only exist on this
// side of the wire.
type Phase string

const (
	PhaseRoundAnnouncement Phase = "round_announcement"
	PhaseDiceRoll          Phase = "dice_roll"
	PhaseLetterSelect      Phase = "letter_select"
	PhaseLetterAnnounce    Phase = "letter_announce"
	PhasePlaying           Phase = "playing"
	PhaseComparison        Phase = "comparison"
	PhaseRoundWinner       Phase = "round_winner"
	PhaseGameWinner        Phase = "game_winner"
)

// Input is the closed set of local player inputs the engine accepts. Inputs
// that do not fit the current phase or turn are dropped, never queued.
type Input interface {
	isInput()
}

// RollInput asks the engine to roll this player's die.
type RollInput struct{}

// LetterInput is this player's letter pick.
type LetterInput struct {
	Letter string
}

// FillInput is this player filling one category card.
type FillInput struct {
	Category domain.Category
	Answer   string
}

// StopInput is this player pressing STOP.
type StopInput struct{}

func (RollInput) isInput()   {}
func (LetterInput) isInput() {}
func (FillInput) isInput()   {}
func (StopInput) isInput()   {}

// Notification is what the engine reports back to its consumer. All
// notifications are delivered from the engine goroutine, in order.
type Notification interface {
	isNotification()
}

// PhaseChange announces a local phase transition.
type PhaseChange struct {
	Phase Phase
	Round int
}

// SnapshotSync forwards an authoritative session snapshot. For spectators the
// private answers are withheld until the comparison phase.
type SnapshotSync struct {
	Session domain.Session
}

// StopAnnounced fires when someone ends the round; the stop overlay shows
// until the comparison phase begins.
type StopAnnounced struct {
	StopperID string
}

// CategoryResult is one category's scoring outcome during comparison.
type CategoryResult struct {
	Category domain.Category
	Outcome  answers.Comparison
}

// RoundDecided reports a finished round. Winner is a role key or none.
type RoundDecided struct {
	Round        int
	Winner       string
	Player1Score int
	Player2Score int
}

// GameDecided reports the final winner.
type GameDecided struct {
	WinnerID string
}

func (PhaseChange) isNotification()    {}
func (SnapshotSync) isNotification()   {}
func (StopAnnounced) isNotification()  {}
func (CategoryResult) isNotification() {}
func (RoundDecided) isNotification()   {}
func (GameDecided) isNotification()    {}

// event is the single channel's payload: snapshots, timers and local inputs
// all funnel through one stream so the transition function never races with
// itself.
type event interface {
	isEvent()
}

type snapshotEvent struct {
	session domain.Session
	exists  bool
}

type timerKind int

const (
	timerAnnouncementOver timerKind = iota
	timerLetterAnnounceOver
	timerStopOverlayOver
	timerRoundWinnerOver
	timerBotRoll
	timerBotLetter
	timerBotFill
	timerBotStop
)

// timerEvent fires a scheduled transition. epoch fences out timers that were
// scheduled for an earlier round.
type timerEvent struct {
	epoch int
	kind  timerKind
	seat  string
	card  int
}

type inputEvent struct {
	input Input
}

func (snapshotEvent) isEvent() {}
func (timerEvent) isEvent()    {}
func (inputEvent) isEvent()    {}
