// Package queue implements transactional matchmaking over the document
// store: peers claim each other inside a transaction instead of relying on a
// central matchmaker process.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/config"
	"wordclash/internal/domain"
	"wordclash/internal/ports"
)

// candidate was claimed (or vanished) between the query and the transaction;
// the attempt loop just looks again.
var errCandidateGone = errors.New("candidate no longer waiting")

// Service pairs waiting players into game sessions.
type Service struct {
	store    ports.DocumentStore
	cfg      *config.GameConfig
	logger   runtime.Logger
	language string
}

// NewService wires a matchmaking service for one language region.
func NewService(store ports.DocumentStore, cfg *config.GameConfig, logger runtime.Logger, language string) *Service {
	if language == "" {
		language = cfg.DefaultLanguage
	}
	return &Service{store: store, cfg: cfg, logger: logger, language: language}
}

func (s *Service) queueCollection() string {
	return domain.Collection(domain.QueueCollection, s.language)
}

func (s *Service) sessionsCollection() string {
	return domain.Collection(domain.SessionsCollection, s.language)
}

// JoinQueue creates a waiting entry and starts the matching loop in the
// background. The returned entry id is what WaitForMatch and LeaveQueue
// operate on. Cancelling ctx stops the matching loop.
func (s *Service) JoinQueue(ctx context.Context, playerID string, mode domain.Mode, stake int64) (string, error) {
	entry := domain.QueueEntry{
		PlayerID:  playerID,
		Mode:      mode,
		Stake:     stake,
		Status:    domain.QueueWaiting,
		CreatedAt: time.Now().UnixMilli(),
	}
	doc, err := ports.Encode(entry)
	if err != nil {
		return "", err
	}

	entryID := uuid.NewString()
	if err := s.store.Create(ctx, s.queueCollection(), entryID, doc); err != nil {
		return "", err
	}

	go s.attemptMatch(ctx, entryID, entry)
	return entryID, nil
}

// attemptMatch retries the pairing transaction a fixed number of times, then
// gives up and leaves the entry to time out on the caller's side.
func (s *Service) attemptMatch(ctx context.Context, entryID string, entry domain.QueueEntry) {
	interval := time.Duration(s.cfg.MatchAttemptIntervalMs) * time.Millisecond

	for attempt := 1; attempt <= s.cfg.MatchAttempts; attempt++ {
		done, err := s.tryMatchOnce(ctx, entryID, entry)
		if done {
			return
		}
		if err != nil && !errors.Is(err, errCandidateGone) {
			s.logger.Error("matchmaking attempt %d for %s failed: %v", attempt, entry.PlayerID, err)
		}
		if attempt == s.cfg.MatchAttempts {
			s.logger.Debug("matchmaking attempts exhausted for %s", entry.PlayerID)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// tryMatchOnce runs one pairing transaction. It reports done=true when this
// entry is matched (by us or by the opponent's transaction) or permanently
// out of the queue.
func (s *Service) tryMatchOnce(ctx context.Context, entryID string, entry domain.QueueEntry) (bool, error) {
	queueColl := s.queueCollection()

	candidates, err := s.store.Query(ctx, queueColl, ports.Query{
		Filters: []ports.Filter{
			{Field: "status", Value: string(domain.QueueWaiting)},
			{Field: "gameMode", Value: string(entry.Mode)},
			{Field: "betAmount", Value: entry.Stake},
		},
		OrderBy: "createdAt",
		Asc:     true,
		Limit:   10,
	})
	if err != nil {
		return false, err
	}

	candidateID := ""
	for _, c := range candidates {
		if c.ID != entryID {
			candidateID = c.ID
			break
		}
	}
	if candidateID == "" {
		return false, nil
	}

	matched := false
	err = s.store.Transact(ctx, func(tx ports.Tx) error {
		mineDoc, err := tx.Get(queueColl, entryID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				// We left the queue; stop trying.
				matched = true
				return nil
			}
			return err
		}
		var mine domain.QueueEntry
		if err := ports.Decode(mineDoc, &mine); err != nil {
			return err
		}
		if mine.Status == domain.QueueMatched {
			// The opponent's transaction claimed us first. That is a win.
			matched = true
			return nil
		}

		theirsDoc, err := tx.Get(queueColl, candidateID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return errCandidateGone
			}
			return err
		}
		var theirs domain.QueueEntry
		if err := ports.Decode(theirsDoc, &theirs); err != nil {
			return err
		}
		if theirs.Status != domain.QueueWaiting {
			return errCandidateGone
		}

		session := domain.Session{
			ID:        uuid.NewString(),
			PlayerIDs: []string{entry.PlayerID, theirs.PlayerID},
			Mode:      entry.Mode,
			Stake:     entry.Stake,
			PrizePool: entry.Stake * 2,
			Status:    domain.SessionActive,
			CreatedAt: time.Now().UnixMilli(),
			GameState: domain.NewGameState(),
		}
		sessionDoc, err := ports.Encode(session)
		if err != nil {
			return err
		}
		if err := tx.Create(s.sessionsCollection(), session.ID, sessionDoc); err != nil {
			return err
		}
		if err := tx.Update(queueColl, entryID, map[string]interface{}{
			"status":     string(domain.QueueMatched),
			"sessionId":  session.ID,
			"opponentId": theirs.PlayerID,
		}); err != nil {
			return err
		}
		if err := tx.Update(queueColl, candidateID, map[string]interface{}{
			"status":     string(domain.QueueMatched),
			"sessionId":  session.ID,
			"opponentId": entry.PlayerID,
		}); err != nil {
			return err
		}
		s.logger.Info("matched %s with %s in session %s", entry.PlayerID, theirs.PlayerID, session.ID)
		matched = true
		return nil
	})
	return matched, err
}

// WaitForMatch blocks until the entry is matched, the timeout passes, or ctx
// is cancelled. A timeout returns an empty session id and no error; callers
// treat it as the cue to start a bot game.
func (s *Service) WaitForMatch(ctx context.Context, entryID string, timeout time.Duration) (string, error) {
	return s.waitOn(ctx, s.queueCollection(), entryID, timeout)
}

// waitOn races the entry's subscription against the timeout.
func (s *Service) waitOn(ctx context.Context, collection, entryID string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = time.Duration(s.cfg.MatchTimeoutMs) * time.Millisecond
	}

	matched := make(chan string, 1)
	cancel, err := s.store.Subscribe(ctx, collection, entryID, func(c ports.Change) {
		if c.Doc == nil {
			return
		}
		var entry domain.QueueEntry
		if err := ports.Decode(c.Doc, &entry); err != nil {
			return
		}
		if entry.Status == domain.QueueMatched && entry.SessionID != "" {
			select {
			case matched <- entry.SessionID:
			default:
			}
		}
	})
	if err != nil {
		return "", err
	}
	defer cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sessionID := <-matched:
		return sessionID, nil
	case <-timer.C:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// LeaveQueue removes the entry. Leaving an already-removed entry is not an
// error.
func (s *Service) LeaveQueue(ctx context.Context, entryID string) error {
	err := s.store.Delete(ctx, s.queueCollection(), entryID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	return err
}
