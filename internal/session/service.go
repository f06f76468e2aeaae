// Package session owns the authoritative game-session documents: creation,
// the action protocol that mutates shared state, disconnect handling and
// end-of-game settlement.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/bot"
	"wordclash/internal/domain"
	"wordclash/internal/ports"
)

var (
	// ErrSessionNotFound is returned when the session id does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotParticipant is returned when the acting player is not in the
	// session's player list.
	ErrNotParticipant = errors.New("player is not a session participant")
	// ErrNotDiceWinner is returned when someone other than the roll winner
	// tries to choose the letter.
	ErrNotDiceWinner = errors.New("only the dice winner chooses the letter")
	// ErrUnknownAction is returned by the wire codec for unrecognized types.
	ErrUnknownAction = errors.New("unknown action type")
	// ErrInvalidAction is returned when an action's payload is out of range.
	ErrInvalidAction = errors.New("invalid action")
)

// Service manages game-session documents for one language region.
type Service struct {
	store    ports.DocumentStore
	economy  ports.EconomyPort
	logger   runtime.Logger
	language string
}

// NewService wires a session service. economy may be nil; settlement is then
// skipped, which tests and local runs rely on.
func NewService(store ports.DocumentStore, economy ports.EconomyPort, logger runtime.Logger, language string) *Service {
	return &Service{store: store, economy: economy, logger: logger, language: language}
}

func (s *Service) collection() string {
	return domain.Collection(domain.SessionsCollection, s.language)
}

// Create makes a fresh active session for the given players. Order matters:
// index 0 is player1 (and rolls first), and for tournaments indices 0-3 are
// the bracket seeds.
func (s *Service) Create(ctx context.Context, playerIDs []string, mode domain.Mode, stake int64) (domain.Session, error) {
	if len(playerIDs) < 2 {
		return domain.Session{}, fmt.Errorf("%w: need at least 2 players", ErrInvalidAction)
	}
	session := domain.Session{
		ID:        uuid.NewString(),
		PlayerIDs: append([]string(nil), playerIDs...),
		Mode:      mode,
		Stake:     stake,
		PrizePool: stake * int64(len(playerIDs)),
		Status:    domain.SessionActive,
		CreatedAt: time.Now().UnixMilli(),
		GameState: domain.NewGameState(),
	}
	doc, err := ports.Encode(session)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.store.Create(ctx, s.collection(), session.ID, doc); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Get loads a session by id.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	doc, err := s.store.Get(ctx, s.collection(), sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	var session domain.Session
	if err := ports.Decode(doc, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Subscribe streams the session to fn: once immediately, then on every
// committed change. exists is false when the document was deleted (or never
// created).
func (s *Service) Subscribe(ctx context.Context, sessionID string, fn func(session domain.Session, exists bool)) (cancel func(), err error) {
	return s.store.Subscribe(ctx, s.collection(), sessionID, func(c ports.Change) {
		if c.Doc == nil {
			fn(domain.Session{}, false)
			return
		}
		var session domain.Session
		if err := ports.Decode(c.Doc, &session); err != nil {
			s.logger.Error("session %s: bad document in change feed: %v", sessionID, err)
			return
		}
		fn(session, true)
	})
}

// Apply validates and applies one player action inside a transaction. The
// whole read-validate-write runs atomically, so two players acting at once
// each see the other's committed effect or none of it.
func (s *Service) Apply(ctx context.Context, sessionID, playerID string, action Action) error {
	return s.store.Transact(ctx, func(tx ports.Tx) error {
		doc, err := tx.Get(s.collection(), sessionID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		var session domain.Session
		if err := ports.Decode(doc, &session); err != nil {
			return err
		}
		role := session.RoleOf(playerID)
		if role == 0 {
			return ErrNotParticipant
		}
		updates, err := applyAction(&session, role, playerID, action)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Update(s.collection(), sessionID, updates)
	})
}

// applyAction computes the dotted field updates for one action against the
// current session state. A nil update map with nil error means the action is
// a legitimate no-op.
func applyAction(session *domain.Session, role int, playerID string, action Action) (map[string]interface{}, error) {
	gs := &session.GameState
	key := domain.RoleKey(role)
	updates := map[string]interface{}{}

	switch a := action.(type) {
	case StartRolling:
		updates["gameState."+key+"Rolling"] = true

	case DiceRolled:
		if a.Value < 1 || a.Value > domain.DiceSides {
			return nil, fmt.Errorf("%w: dice value %d", ErrInvalidAction, a.Value)
		}
		otherRole := 1
		if role == 1 {
			otherRole = 2
		}
		otherDice := gs.Player1Dice
		otherID := session.PlayerIDs[0]
		if otherRole == 2 {
			otherDice = gs.Player2Dice
			otherID = session.PlayerIDs[1]
		}
		updates["gameState."+key+"Dice"] = a.Value
		updates["gameState."+key+"Rolling"] = false
		res := domain.ResolveRoll(role, a.Value, otherDice, playerID, otherID)
		switch {
		case res.AdvanceToLetter:
			updates["gameState.diceWinner"] = res.DiceWinner
			updates["gameState.stage"] = string(domain.StageLetterSelection)
		case res.TieReset:
			updates["gameState.player1Dice"] = 0
			updates["gameState.player2Dice"] = 0
			updates["gameState.currentTurn"] = res.NextTurn
		default:
			updates["gameState.currentTurn"] = res.NextTurn
		}

	case NextRoundStarted:
		if a.Round < 2 {
			return nil, fmt.Errorf("%w: round %d", ErrInvalidAction, a.Round)
		}
		updates["gameState.stage"] = string(domain.StageDiceRoll)
		updates["gameState.currentRound"] = a.Round
		updates["gameState.player1Dice"] = 0
		updates["gameState.player2Dice"] = 0
		updates["gameState.player1Rolling"] = false
		updates["gameState.player2Rolling"] = false
		updates["gameState.chosenLetter"] = ""
		updates["gameState.diceWinner"] = ""
		updates["gameState.currentTurn"] = 1
		updates["gameState.player1CardsFilled"] = 0
		updates["gameState.player2CardsFilled"] = 0
		updates["gameState.roundEnded"] = false
		updates["gameState.stoppedBy"] = ""
		updates["answers"] = map[string]interface{}{}

	case LetterChosen:
		if playerID != gs.DiceWinner {
			return nil, ErrNotDiceWinner
		}
		letter := strings.ToUpper(strings.TrimSpace(a.Letter))
		if len(letter) != 1 {
			return nil, fmt.Errorf("%w: letter %q", ErrInvalidAction, a.Letter)
		}
		updates["gameState.chosenLetter"] = letter
		updates["gameState.stage"] = string(domain.StageCardFilling)

	case CardFilled:
		if !domain.IsCategory(a.Category) {
			return nil, fmt.Errorf("%w: category %q", ErrInvalidAction, a.Category)
		}
		filled := gs.Player1CardsFilled
		if role == 2 {
			filled = gs.Player2CardsFilled
		}
		updates["gameState."+key+"CardsFilled"] = filled + 1
		if strings.TrimSpace(a.Answer) != "" {
			updates["answers."+playerID+"."+string(a.Category)] = a.Answer
		}

	case StopPressed:
		if gs.RoundEnded {
			return nil, nil
		}
		updates["gameState.roundEnded"] = true
		updates["gameState.stoppedBy"] = playerID
		updates["gameState.stage"] = string(domain.StageComparison)

	case RoundWinner:
		round := gs.CurrentRound
		if round > 3 {
			// Sudden-death rounds overwrite the last slot; the decided
			// round is always the final word.
			round = 3
		}
		updates[fmt.Sprintf("gameState.round%dWinner", round)] = a.Winner

	case ScoreUpdate:
		updates["gameState."+key+"Score"] = a.Score

	case GameWinner:
		updates["gameState.gameWinner"] = a.WinnerID
		updates["gameState.stage"] = string(domain.StageGameEnd)
		updates["status"] = string(domain.SessionCompleted)
		updates["winnerId"] = a.WinnerID
	}

	return updates, nil
}

// End completes a session with the given winner and settles the prize pool.
// It is idempotent: a session that is already completed is left alone.
func (s *Service) End(ctx context.Context, sessionID, winnerID string) error {
	var prize int64
	settle := false
	err := s.store.Transact(ctx, func(tx ports.Tx) error {
		prize, settle = 0, false
		doc, err := tx.Get(s.collection(), sessionID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		var session domain.Session
		if err := ports.Decode(doc, &session); err != nil {
			return err
		}
		if session.Status == domain.SessionCompleted {
			return nil
		}
		prize, settle = session.PrizePool, true
		return tx.Update(s.collection(), sessionID, map[string]interface{}{
			"status":               string(domain.SessionCompleted),
			"winnerId":             winnerID,
			"gameState.gameWinner": winnerID,
			"gameState.stage":      string(domain.StageGameEnd),
		})
	})
	if err != nil {
		return err
	}
	if settle {
		s.settle(ctx, sessionID, winnerID, prize)
	}
	return nil
}

// settle credits the winner with the whole prize pool. Stakes were debited on
// queue join, so the loser owes nothing here. Bots have no wallets.
func (s *Service) settle(ctx context.Context, sessionID, winnerID string, prize int64) {
	if s.economy == nil || prize <= 0 || bot.IsBot(winnerID) {
		return
	}
	update := ports.WalletUpdate{
		UserID: winnerID,
		Amount: prize,
		Metadata: map[string]interface{}{
			"reason":     "game_settlement",
			"session_id": sessionID,
		},
	}
	if err := s.economy.UpdateBalances(ctx, []ports.WalletUpdate{update}); err != nil {
		s.logger.Error("session %s: failed to credit winner %s: %v", sessionID, winnerID, err)
	}
}

// HandleDisconnect records a player drop. When exactly one connected player
// remains, they win by default and the session is settled; otherwise the drop
// is only marked so remaining players can keep playing around it.
func (s *Service) HandleDisconnect(ctx context.Context, sessionID, playerID string) error {
	var winner string
	err := s.store.Transact(ctx, func(tx ports.Tx) error {
		winner = ""
		doc, err := tx.Get(s.collection(), sessionID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		var session domain.Session
		if err := ports.Decode(doc, &session); err != nil {
			return err
		}
		if session.RoleOf(playerID) == 0 {
			return ErrNotParticipant
		}
		if session.Status == domain.SessionCompleted {
			return nil
		}
		var remaining []string
		for _, id := range session.PlayerIDs {
			if id != playerID && !session.Disconnected[id] {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == 1 {
			winner = remaining[0]
			return nil
		}
		return tx.Update(s.collection(), sessionID, map[string]interface{}{
			"disconnected." + playerID: true,
		})
	})
	if err != nil {
		return err
	}
	if winner != "" {
		s.logger.Info("session %s: %s disconnected, %s wins by default", sessionID, playerID, winner)
		return s.End(ctx, sessionID, winner)
	}
	return nil
}

// Delete removes a finished session document. Missing documents are fine.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	err := s.store.Delete(ctx, s.collection(), sessionID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	return err
}
