package domain

// Stage represents the lifecycle phase of a single game-session round.
type Stage string

const (
	// StageWaiting is the pre-game state before the first dice roll.
	StageWaiting Stage = "waiting"
	// StageDiceRoll is the sequential dice-rolling phase that decides letter rights.
	StageDiceRoll Stage = "dice_roll"
	// StageLetterSelection is the phase where the roll winner picks a letter.
	StageLetterSelection Stage = "letter_selection"
	// StageCardFilling is the active phase where both players fill category cards.
	StageCardFilling Stage = "card_filling"
	// StageComparison is the phase after STOP where answers are scored.
	StageComparison Stage = "comparison"
	// StageRoundEnd is the short phase between a scored round and the next one.
	StageRoundEnd Stage = "round_end"
	// StageGameEnd is terminal; a game winner has been recorded.
	StageGameEnd Stage = "game_end"
)

// Mode identifies how a session was formed.
type Mode string

const (
	ModeTwoPlayer  Mode = "2player"
	ModeTournament Mode = "tournament"
)

// SessionStatus tracks whether a session document is still live.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// QueueStatus tracks a matchmaking queue entry.
type QueueStatus string

const (
	QueueWaiting QueueStatus = "waiting"
	QueueMatched QueueStatus = "matched"
)

// QueueEntry is one player's presence in a matchmaking queue. It is created on
// join and mutated only by the matching transaction (waiting -> matched).
type QueueEntry struct {
	PlayerID   string      `json:"playerId"`
	Mode       Mode        `json:"gameMode"`
	Stake      int64       `json:"betAmount"`
	Status     QueueStatus `json:"status"`
	CreatedAt  int64       `json:"createdAt"` // unix milliseconds
	SessionID  string      `json:"sessionId,omitempty"`
	OpponentID string      `json:"opponentId,omitempty"`
}

// GameState is the broadcast portion of a session. Per-player answers are NOT
// part of it; only fill counts are visible to the opponent during play.
type GameState struct {
	Stage        Stage `json:"stage"`
	CurrentRound int   `json:"currentRound"`

	Player1Dice    int  `json:"player1Dice"` // 0 means not rolled
	Player2Dice    int  `json:"player2Dice"`
	Player1Rolling bool `json:"player1Rolling"`
	Player2Rolling bool `json:"player2Rolling"`

	ChosenLetter string `json:"chosenLetter"`
	DiceWinner   string `json:"diceWinner"`
	CurrentTurn  int    `json:"currentTurn"` // 1 or 2; player 1 rolls first

	Player1CardsFilled int `json:"player1CardsFilled"`
	Player2CardsFilled int `json:"player2CardsFilled"`

	RoundEnded bool   `json:"roundEnded"`
	StoppedBy  string `json:"stoppedBy"`

	Player1Score int `json:"player1Score"`
	Player2Score int `json:"player2Score"`

	Round1Winner string `json:"round1Winner"`
	Round2Winner string `json:"round2Winner"`
	Round3Winner string `json:"round3Winner"`
	GameWinner   string `json:"gameWinner"`
}

// Session is the authoritative shared state of one match. PlayerIDs order is
// significant: index 0/1 map to the player1/player2 roles; for tournaments,
// indices 0-3 are the bracket seed positions.
type Session struct {
	ID        string        `json:"sessionId"`
	PlayerIDs []string      `json:"playerIds"`
	Mode      Mode          `json:"gameMode"`
	Stake     int64         `json:"betAmount"`
	PrizePool int64         `json:"prizePool,omitempty"`
	Status    SessionStatus `json:"status"`
	CreatedAt int64         `json:"createdAt"`
	GameState GameState     `json:"gameState"`

	// Answers holds each player's private per-category words, keyed by player
	// id then category. Clients must not read an opponent's entries before the
	// comparison stage.
	Answers map[string]map[string]string `json:"answers,omitempty"`

	Disconnected map[string]bool `json:"disconnected,omitempty"`
	WinnerID     string          `json:"winnerId,omitempty"`
}

// NewGameState returns the initial state for a fresh round sequence.
func NewGameState() GameState {
	return GameState{
		Stage:        StageDiceRoll,
		CurrentRound: 1,
		CurrentTurn:  1,
	}
}

// RoleOf returns the 1-based role for a player id, or 0 if the player is not
// a participant.
func (s *Session) RoleOf(playerID string) int {
	for i, id := range s.PlayerIDs {
		if id == playerID {
			return i + 1
		}
	}
	return 0
}

// RoleKey maps a 1-based role to its broadcast field prefix.
func RoleKey(role int) string {
	if role == 2 {
		return "player2"
	}
	return "player1"
}

// Base collection names, partitioned per language via Collection.
const (
	QueueCollection      = "matchmaking_queue"
	SessionsCollection   = "game_sessions"
	TournamentCollection = "tournament_queue"
)

// Collection partitions a base collection name per language, so that queue and
// session documents for different regions are never matched against each
// other.
func Collection(base, language string) string {
	return base + "_" + language
}
