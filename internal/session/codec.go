package session

import (
	"encoding/json"
	"fmt"

	"wordclash/internal/domain"
)

// Wire action type tags. Clients send these verbatim.
const (
	typeStartRolling     = "START_ROLLING"
	typeDiceRolled       = "DICE_ROLLED"
	typeNextRoundStarted = "NEXT_ROUND_STARTED"
	typeLetterChosen     = "LETTER_CHOSEN"
	typeCardFilled       = "CARD_FILLED"
	typeStopPressed      = "STOP_PRESSED"
	typeRoundWinner      = "ROUND_WINNER"
	typeScoreUpdate      = "SCORE_UPDATE"
	typeGameWinner       = "GAME_WINNER"
)

type wireAction struct {
	Type     string `json:"type"`
	Value    int    `json:"value,omitempty"`
	Round    int    `json:"roundNumber,omitempty"`
	Letter   string `json:"letter,omitempty"`
	Category string `json:"category,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Winner   string `json:"winner,omitempty"`
	WinnerID string `json:"winnerId,omitempty"`
	Score    int    `json:"score,omitempty"`
}

// DecodeAction parses a client action payload into its typed form.
func DecodeAction(payload []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	switch w.Type {
	case typeStartRolling:
		return StartRolling{}, nil
	case typeDiceRolled:
		return DiceRolled{Value: w.Value}, nil
	case typeNextRoundStarted:
		return NextRoundStarted{Round: w.Round}, nil
	case typeLetterChosen:
		return LetterChosen{Letter: w.Letter}, nil
	case typeCardFilled:
		return CardFilled{Category: domain.Category(w.Category), Answer: w.Answer}, nil
	case typeStopPressed:
		return StopPressed{}, nil
	case typeRoundWinner:
		return RoundWinner{Winner: w.Winner}, nil
	case typeScoreUpdate:
		return ScoreUpdate{Score: w.Score}, nil
	case typeGameWinner:
		return GameWinner{WinnerID: w.WinnerID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, w.Type)
	}
}

// EncodeAction renders a typed action back to its wire form. Bots and tests
// use it to speak the same protocol as real clients.
func EncodeAction(a Action) ([]byte, error) {
	var w wireAction
	switch v := a.(type) {
	case StartRolling:
		w.Type = typeStartRolling
	case DiceRolled:
		w.Type = typeDiceRolled
		w.Value = v.Value
	case NextRoundStarted:
		w.Type = typeNextRoundStarted
		w.Round = v.Round
	case LetterChosen:
		w.Type = typeLetterChosen
		w.Letter = v.Letter
	case CardFilled:
		w.Type = typeCardFilled
		w.Category = string(v.Category)
		w.Answer = v.Answer
	case StopPressed:
		w.Type = typeStopPressed
	case RoundWinner:
		w.Type = typeRoundWinner
		w.Winner = v.Winner
	case ScoreUpdate:
		w.Type = typeScoreUpdate
		w.Score = v.Score
	case GameWinner:
		w.Type = typeGameWinner
		w.WinnerID = v.WinnerID
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	return json.Marshal(w)
}
