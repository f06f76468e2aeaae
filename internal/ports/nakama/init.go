package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"wordclash/internal/bot"
	"wordclash/internal/config"
)

// Environment keys read from the Nakama runtime env block.
const (
	envGameConfig    = "game_config_path"
	envBotIdentities = "bot_identities_path"
	envLanguage      = "language"
)

// InitModule wires the game services into the Nakama runtime: loads config
// and the bot identity pool, provisions bot accounts, and registers the RPC
// surface plus the onboarding hook.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	if path := env[envGameConfig]; path != "" {
		if err := config.LoadGameConfig(path); err != nil {
			return err
		}
	}
	cfg := config.GetGameConfig()

	if path := env[envBotIdentities]; path != "" {
		if err := bot.LoadIdentities(path); err != nil {
			logger.Warn("bot identities unavailable, falling back to local ids: %v", err)
		}
	}
	if err := bot.ProvisionBots(ctx, nk, logger); err != nil {
		return err
	}

	store := NewStorageAdapter(nk, logger)
	economy := NewNakamaEconomyAdapter(nk)
	module := NewModule(cfg, logger, store, economy, env[envLanguage])

	if err := module.RegisterRPCs(initializer); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	logger.Info("wordclash module loaded, language %q", cfg.DefaultLanguage)
	return nil
}
