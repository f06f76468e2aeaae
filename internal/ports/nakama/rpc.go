package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/bot"
	"wordclash/internal/config"
	"wordclash/internal/domain"
	"wordclash/internal/ports"
	"wordclash/internal/queue"
	"wordclash/internal/session"
)

// errNoUser is returned when an RPC arrives without an authenticated caller.
var errNoUser = errors.New("rpc requires an authenticated user")

// Module holds the wired game services behind the RPC surface.
type Module struct {
	cfg      *config.GameConfig
	logger   runtime.Logger
	queues   *queue.Service
	sessions *session.Service

	mu  sync.Mutex
	rng *rand.Rand
}

// NewModule wires queue and session services over the given store.
func NewModule(cfg *config.GameConfig, logger runtime.Logger, store ports.DocumentStore, economy ports.EconomyPort, language string) *Module {
	return &Module{
		cfg:      cfg,
		logger:   logger,
		queues:   queue.NewService(store, cfg, logger, language),
		sessions: session.NewService(store, economy, logger, language),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterRPCs registers the game RPC endpoints.
func (m *Module) RegisterRPCs(initializer runtime.Initializer) error {
	handlers := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcJoinQueue:           m.rpcJoinQueue,
		RpcLeaveQueue:          m.rpcLeaveQueue,
		RpcJoinTournamentQueue: m.rpcJoinTournamentQueue,
		RpcSessionAction:       m.rpcSessionAction,
	}
	for id, fn := range handlers {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// JoinQueueRequest is the join_queue / join_tournament_queue payload. A zero
// BetAmount falls back to the default stake tier.
type JoinQueueRequest struct {
	BetAmount int64 `json:"betAmount"`
}

// JoinQueueResponse tells the client which session to open. BotMatch is set
// when matchmaking timed out and the seats were filled with bots.
type JoinQueueResponse struct {
	EntryID   string `json:"entryId"`
	SessionID string `json:"sessionId"`
	BotMatch  bool   `json:"botMatch"`
}

// LeaveQueueRequest is the leave_queue payload.
type LeaveQueueRequest struct {
	EntryID    string `json:"entryId"`
	Tournament bool   `json:"tournament"`
}

// SessionActionRequest is the session_action payload. Action carries the
// client wire action as-is.
type SessionActionRequest struct {
	SessionID string          `json:"sessionId"`
	Action    json.RawMessage `json:"action"`
}

func (m *Module) rpcJoinQueue(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}

	var req JoinQueueRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", err
		}
	}
	stake := req.BetAmount
	if stake <= 0 {
		stake = m.cfg.GetStake(m.cfg.DefaultTier)
	}

	entryID, err := m.queues.JoinQueue(ctx, userID, domain.ModeTwoPlayer, stake)
	if err != nil {
		logger.Error("join_queue [%s]: %v", userID, err)
		return "", err
	}

	sessionID, err := m.queues.WaitForMatch(ctx, entryID, 0)
	if err != nil {
		return "", err
	}

	resp := JoinQueueResponse{EntryID: entryID, SessionID: sessionID}
	if sessionID == "" {
		resp.SessionID, err = m.startBotMatch(ctx, entryID, userID, stake)
		if err != nil {
			logger.Error("join_queue [%s]: bot fallback: %v", userID, err)
			return "", err
		}
		resp.BotMatch = true
	}
	return marshal(resp)
}

func (m *Module) rpcJoinTournamentQueue(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}

	var req JoinQueueRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", err
		}
	}
	stake := req.BetAmount
	if stake <= 0 {
		stake = m.cfg.GetStake(m.cfg.DefaultTier)
	}

	entryID, err := m.queues.JoinTournamentQueue(ctx, userID, stake)
	if err != nil {
		logger.Error("join_tournament_queue [%s]: %v", userID, err)
		return "", err
	}

	sessionID, err := m.queues.WaitForTournament(ctx, entryID, 0)
	if err != nil {
		return "", err
	}

	resp := JoinQueueResponse{EntryID: entryID, SessionID: sessionID}
	if sessionID == "" {
		resp.SessionID, err = m.startBotTournament(ctx, entryID, userID, stake)
		if err != nil {
			logger.Error("join_tournament_queue [%s]: bot fallback: %v", userID, err)
			return "", err
		}
		resp.BotMatch = true
	}
	return marshal(resp)
}

func (m *Module) rpcLeaveQueue(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}

	var req LeaveQueueRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}

	var err error
	if req.Tournament {
		err = m.queues.LeaveTournamentQueue(ctx, req.EntryID)
	} else {
		err = m.queues.LeaveQueue(ctx, req.EntryID)
	}
	if err != nil {
		logger.Error("leave_queue [%s]: %v", userID, err)
		return "", err
	}
	return "{}", nil
}

func (m *Module) rpcSessionAction(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}

	var req SessionActionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}
	action, err := session.DecodeAction(req.Action)
	if err != nil {
		return "", err
	}

	if err := m.sessions.Apply(ctx, req.SessionID, userID, action); err != nil {
		logger.Debug("session_action [%s] on %s rejected: %v", userID, req.SessionID, err)
		return "", err
	}
	return "{}", nil
}

// startBotMatch removes the stale queue entry and opens a session against a
// bot opponent.
func (m *Module) startBotMatch(ctx context.Context, entryID, userID string, stake int64) (string, error) {
	if err := m.queues.LeaveQueue(ctx, entryID); err != nil {
		return "", err
	}
	opponent := bot.GetBotIdentity(m.pick(64))
	created, err := m.sessions.Create(ctx, []string{userID, opponent.UserID}, domain.ModeTwoPlayer, stake)
	if err != nil {
		return "", err
	}
	m.logger.Info("matchmaking timeout for %s, starting bot game %s vs %s", userID, created.ID, opponent.UserID)
	return created.ID, nil
}

// startBotTournament fills the remaining three bracket seats with distinct
// bot identities.
func (m *Module) startBotTournament(ctx context.Context, entryID, userID string, stake int64) (string, error) {
	if err := m.queues.LeaveTournamentQueue(ctx, entryID); err != nil {
		return "", err
	}

	players := []string{userID}
	base := m.pick(64)
	for i := 0; len(players) < queue.TournamentSize && i < 64; i++ {
		id := bot.GetBotIdentity(base + i).UserID
		if !contains(players, id) {
			players = append(players, id)
		}
	}
	// A pool with fewer than three distinct identities gets padded with
	// fabricated ids.
	for i := 0; len(players) < queue.TournamentSize; i++ {
		id := fmt.Sprintf("%s%d", bot.IDPrefix, base+i)
		if !contains(players, id) {
			players = append(players, id)
		}
	}

	created, err := m.sessions.Create(ctx, players, domain.ModeTournament, stake)
	if err != nil {
		return "", err
	}
	m.logger.Info("tournament timeout for %s, starting bot bracket %s", userID, created.ID)
	return created.ID, nil
}

func (m *Module) pick(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Intn(n)
}

func contains(ids []string, id string) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

func marshal(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
