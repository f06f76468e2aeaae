package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// IDPrefix marks locally generated bot user ids that have no provisioned
// account behind them.
const IDPrefix = "bot-"

type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	// Level is the bot's play strength on a 1-10 scale. It drives how fast
	// the bot fills its card.
	Level       int `json:"level"`
	AvatarIndex int `json:"avatar_index"`
}

var (
	botIdentities []BotIdentity
	botIDMap      map[string]bool
	botConfigMap  map[string]BotIdentity
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		if err := json.Unmarshal(data, &botIdentities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		botIDMap = make(map[string]bool)
		botConfigMap = make(map[string]BotIdentity)
		for _, identity := range botIdentities {
			if identity.UserID != "" {
				mapIdentity(identity)
			}
		}
	})
	return loadErr
}

func mapIdentity(identity BotIdentity) {
	botIDMap[identity.UserID] = true
	botConfigMap[identity.UserID] = identity
}

// ProvisionBots ensures that bot accounts exist in the Nakama database and
// have the is_bot metadata.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) error {
	provisionOnce.Do(func() {
		for i := range botIdentities {
			identity := &botIdentities[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, authErr := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if authErr != nil {
				logger.Error("ProvisionBots: Failed to authenticate bot %s: %v", identity.Username, authErr)
				continue
			}

			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"level":        identity.Level,
				"avatar_index": identity.AvatarIndex,
			}
			authErr = nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", "")
			if authErr != nil {
				logger.Warn("ProvisionBots: Failed to update bot account %s: %v", userID, authErr)
			}

			mapIdentity(*identity)

			logger.Info("ProvisionBots: Bot %s (%s) is ready. Level: %d", identity.DisplayName, userID, identity.Level)
		}
	})
	return nil
}

// GetBotConfig returns the full identity configuration for a given bot ID.
func GetBotConfig(userID string) (BotIdentity, bool) {
	config, ok := botConfigMap[userID]
	return config, ok
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
// With an empty pool it fabricates a local identity with an IDPrefix id.
func GetBotIdentity(index int) BotIdentity {
	if len(botIdentities) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("%s%d", IDPrefix, index),
			DisplayName: fmt.Sprintf("AI Player %d", index+1),
			Level:       3 + index%5,
		}
	}
	return botIdentities[index%len(botIdentities)]
}

// Level returns the play strength for a bot id, defaulting to mid-strength
// for fabricated ids outside the pool.
func Level(userID string) int {
	if identity, ok := botConfigMap[userID]; ok {
		return identity.Level
	}
	return 5
}

// IsBot reports whether the given user ID belongs to the bot pool or was
// fabricated locally.
func IsBot(userID string) bool {
	if strings.HasPrefix(userID, IDPrefix) {
		return true
	}
	if botIDMap == nil {
		return false
	}
	return botIDMap[userID]
}

// GetAllBotIDs returns all provisioned bot UserIDs.
func GetAllBotIDs() []string {
	ids := make([]string, 0, len(botIDMap))
	for id := range botIDMap {
		ids = append(ids, id)
	}
	return ids
}
