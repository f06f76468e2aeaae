package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"wordclash/internal/domain"
	"wordclash/internal/ports"
)

// TournamentSize is the number of seats in a bracket.
const TournamentSize = 4

// JoinTournamentQueue creates a waiting entry in the tournament queue and
// starts the grouping loop. Seats left unfilled when WaitForTournament times
// out are the caller's to fill with bots.
func (s *Service) JoinTournamentQueue(ctx context.Context, playerID string, stake int64) (string, error) {
	entry := domain.QueueEntry{
		PlayerID:  playerID,
		Mode:      domain.ModeTournament,
		Stake:     stake,
		Status:    domain.QueueWaiting,
		CreatedAt: time.Now().UnixMilli(),
	}
	doc, err := ports.Encode(entry)
	if err != nil {
		return "", err
	}

	entryID := uuid.NewString()
	if err := s.store.Create(ctx, s.tournamentCollection(), entryID, doc); err != nil {
		return "", err
	}

	go s.attemptTournamentMatch(ctx, entryID, entry)
	return entryID, nil
}

func (s *Service) tournamentCollection() string {
	return domain.Collection(domain.TournamentCollection, s.language)
}

func (s *Service) attemptTournamentMatch(ctx context.Context, entryID string, entry domain.QueueEntry) {
	interval := time.Duration(s.cfg.MatchAttemptIntervalMs) * time.Millisecond

	for attempt := 1; attempt <= s.cfg.MatchAttempts; attempt++ {
		done, err := s.tryGroupOnce(ctx, entryID, entry)
		if done {
			return
		}
		if err != nil && !errors.Is(err, errCandidateGone) {
			s.logger.Error("tournament grouping attempt %d for %s failed: %v", attempt, entry.PlayerID, err)
		}
		if attempt == s.cfg.MatchAttempts {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// tryGroupOnce groups the four oldest waiting entries into one session. The
// transaction re-reads every entry, so when two quorums race only one session
// is created; the losers observe their entries already matched and stop.
func (s *Service) tryGroupOnce(ctx context.Context, entryID string, entry domain.QueueEntry) (bool, error) {
	coll := s.tournamentCollection()

	waiting, err := s.store.Query(ctx, coll, ports.Query{
		Filters: []ports.Filter{
			{Field: "status", Value: string(domain.QueueWaiting)},
			{Field: "betAmount", Value: entry.Stake},
		},
		OrderBy: "createdAt",
		Asc:     true,
		Limit:   TournamentSize,
	})
	if err != nil {
		return false, err
	}
	if len(waiting) < TournamentSize {
		return false, nil
	}
	included := false
	for _, w := range waiting {
		if w.ID == entryID {
			included = true
			break
		}
	}
	if !included {
		// Quorum formed without us; let the front of the queue group it.
		return false, nil
	}

	grouped := false
	err = s.store.Transact(ctx, func(tx ports.Tx) error {
		players := make([]string, 0, TournamentSize)
		ids := make([]string, 0, TournamentSize)
		for _, w := range waiting {
			doc, err := tx.Get(coll, w.ID)
			if err != nil {
				if errors.Is(err, ports.ErrNotFound) {
					return errCandidateGone
				}
				return err
			}
			var e domain.QueueEntry
			if err := ports.Decode(doc, &e); err != nil {
				return err
			}
			if w.ID == entryID && e.Status == domain.QueueMatched {
				grouped = true
				return nil
			}
			if e.Status != domain.QueueWaiting {
				return errCandidateGone
			}
			players = append(players, e.PlayerID)
			ids = append(ids, w.ID)
		}

		session := domain.Session{
			ID:        uuid.NewString(),
			PlayerIDs: players,
			Mode:      domain.ModeTournament,
			Stake:     entry.Stake,
			PrizePool: entry.Stake * TournamentSize,
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
		for _, id := range ids {
			if err := tx.Update(coll, id, map[string]interface{}{
				"status":    string(domain.QueueMatched),
				"sessionId": session.ID,
			}); err != nil {
				return err
			}
		}
		s.logger.Info("tournament session %s formed with %v", session.ID, players)
		grouped = true
		return nil
	})
	return grouped, err
}

// WaitForTournament blocks until the entry joins a formed tournament session,
// the timeout passes, or ctx is cancelled. Timeout returns an empty id; the
// caller fills the bracket with bots.
func (s *Service) WaitForTournament(ctx context.Context, entryID string, timeout time.Duration) (string, error) {
	return s.waitOn(ctx, s.tournamentCollection(), entryID, timeout)
}

// LeaveTournamentQueue removes the entry; missing entries are not an error.
func (s *Service) LeaveTournamentQueue(ctx context.Context, entryID string) error {
	err := s.store.Delete(ctx, s.tournamentCollection(), entryID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	return err
}
