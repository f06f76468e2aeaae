package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type StakeTier struct {
	ID    string `json:"id"`
	Stake int64  `json:"stake"`
}

// GameConfig carries every tunable the services read. Durations are plain
// millisecond integers so the file stays trivially editable.
type GameConfig struct {
	DefaultLanguage string `json:"default_language"`
	// DictionaryPath points at an external word list; empty means the
	// built-in dictionary.
	DictionaryPath string `json:"dictionary_path"`

	DefaultTier string      `json:"default_tier"`
	Tiers       []StakeTier `json:"tiers"`

	// Matchmaking: MatchAttempts tries at MatchAttemptIntervalMs spacing,
	// then a bot opponent after MatchTimeoutMs total.
	MatchAttempts          int `json:"match_attempts"`
	MatchAttemptIntervalMs int `json:"match_attempt_interval_ms"`
	MatchTimeoutMs         int `json:"match_timeout_ms"`

	// Phase overlay durations between stages.
	RoundAnnouncementMs  int `json:"round_announcement_ms"`
	LetterAnnouncementMs int `json:"letter_announcement_ms"`
	ComparisonRevealMs   int `json:"comparison_reveal_ms"`
	RoundWinnerMs        int `json:"round_winner_ms"`

	// Bot play pacing. Skilled bots finish their card between
	// BotFastFillMinMs and BotFastFillMaxMs, the rest between the slow
	// bounds, each card start jittered by up to BotFillJitterMs.
	BotSkillThreshold int `json:"bot_skill_threshold"`
	BotFastFillMinMs  int `json:"bot_fast_fill_min_ms"`
	BotFastFillMaxMs  int `json:"bot_fast_fill_max_ms"`
	BotSlowFillMinMs  int `json:"bot_slow_fill_min_ms"`
	BotSlowFillMaxMs  int `json:"bot_slow_fill_max_ms"`
	BotFillJitterMs   int `json:"bot_fill_jitter_ms"`
	BotRollDelayMs    int `json:"bot_roll_delay_ms"`
	BotLetterDelayMs  int `json:"bot_letter_delay_ms"`
	BotStopDelayMs    int `json:"bot_stop_delay_ms"`

	// Tournament AI matches complete after a random delay in this window;
	// brackets poll pending AI matches at AIPollIntervalMs.
	AIMatchMinDelayMs int `json:"ai_match_min_delay_ms"`
	AIMatchMaxDelayMs int `json:"ai_match_max_delay_ms"`
	AIPollIntervalMs  int `json:"ai_poll_interval_ms"`
}

// Default returns the configuration used when no file is provided.
func Default() *GameConfig {
	return &GameConfig{
		DefaultLanguage: "en",
		DefaultTier:     "bronze",
		Tiers: []StakeTier{
			{ID: "bronze", Stake: 100},
			{ID: "silver", Stake: 500},
			{ID: "gold", Stake: 2000},
		},
		MatchAttempts:          5,
		MatchAttemptIntervalMs: 2000,
		MatchTimeoutMs:         10000,
		RoundAnnouncementMs:    2500,
		LetterAnnouncementMs:   3500,
		ComparisonRevealMs:     2500,
		RoundWinnerMs:          2500,
		BotSkillThreshold:      7,
		BotFastFillMinMs:       40000,
		BotFastFillMaxMs:       50000,
		BotSlowFillMinMs:       55000,
		BotSlowFillMaxMs:       70000,
		BotFillJitterMs:        1000,
		BotRollDelayMs:         1500,
		BotLetterDelayMs:       2000,
		BotStopDelayMs:         2500,
		AIMatchMinDelayMs:      10000,
		AIMatchMaxDelayMs:      18000,
		AIPollIntervalMs:       1000,
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Fields
// absent from the file keep their defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := Default()
		if err := json.Unmarshal(data, c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, falling back to the
// defaults when no file was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}

// GetStake returns the stake for a given tier ID, or the default tier's
// stake if not found.
func (c *GameConfig) GetStake(tierID string) int64 {
	target := tierID
	if target == "" {
		target = c.DefaultTier
	}

	for _, tier := range c.Tiers {
		if tier.ID == target {
			return tier.Stake
		}
	}
	for _, tier := range c.Tiers {
		if tier.ID == c.DefaultTier {
			return tier.Stake
		}
	}
	return 100
}
