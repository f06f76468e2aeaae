package session

import "wordclash/internal/domain"

// Action is the closed set of things a participant can do to a session. Every
// variant is applied inside one transaction by Service.Apply; there is no
// generic escape hatch.
type Action interface {
	isAction()
}

// StartRolling marks the player's dice animation as running so the opponent
// sees it live.
type StartRolling struct{}

// DiceRolled reports the player's settled dice value.
type DiceRolled struct {
	Value int
}

// NextRoundStarted resets the shared state for the given round number.
type NextRoundStarted struct {
	Round int
}

// LetterChosen is the dice winner's letter pick.
type LetterChosen struct {
	Letter string
}

// CardFilled bumps the player's public fill count and records the private
// answer.
type CardFilled struct {
	Category domain.Category
	Answer   string
}

// StopPressed ends the card-filling stage for both players.
type StopPressed struct{}

// RoundWinner records the outcome of the current round. Winner is a role key
// (player1/player2) or none.
type RoundWinner struct {
	Winner string
}

// ScoreUpdate publishes the player's accumulated score after comparison.
type ScoreUpdate struct {
	Score int
}

// GameWinner completes the session with a final winner.
type GameWinner struct {
	WinnerID string
}

func (StartRolling) isAction()     {}
func (DiceRolled) isAction()       {}
func (NextRoundStarted) isAction() {}
func (LetterChosen) isAction()     {}
func (CardFilled) isAction()       {}
func (StopPressed) isAction()      {}
func (RoundWinner) isAction()      {}
func (ScoreUpdate) isAction()      {}
func (GameWinner) isAction()       {}
