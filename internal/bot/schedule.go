// Package bot gives automated opponents an identity pool and a human-looking
// play rhythm. Bots never think; they look up dictionary words on a timer.
package bot

import (
	"math/rand"
	"time"

	"wordclash/internal/answers"
	"wordclash/internal/config"
	"wordclash/internal/domain"
)

// FillSchedule returns one offset per card in play order, measured from the
// start of the card-filling stage. Skilled bots (level at or above the
// configured threshold) finish inside the fast window, the rest inside the
// slow one. Card starts are spread evenly with a little jitter so the fill
// counter does not tick like a metronome.
func FillSchedule(cfg *config.GameConfig, level int, rng *rand.Rand) []time.Duration {
	minMs, maxMs := cfg.BotSlowFillMinMs, cfg.BotSlowFillMaxMs
	if level >= cfg.BotSkillThreshold {
		minMs, maxMs = cfg.BotFastFillMinMs, cfg.BotFastFillMaxMs
	}
	totalMs := minMs
	if maxMs > minMs {
		totalMs += rng.Intn(maxMs - minMs + 1)
	}

	n := len(domain.CardSequence)
	step := totalMs / n
	offsets := make([]time.Duration, n)
	prev := 0
	for i := range offsets {
		target := step * (i + 1)
		if cfg.BotFillJitterMs > 0 {
			target += rng.Intn(2*cfg.BotFillJitterMs+1) - cfg.BotFillJitterMs
		}
		// Keep the schedule strictly increasing.
		if target <= prev {
			target = prev + 1
		}
		prev = target
		offsets[i] = time.Duration(target) * time.Millisecond
	}
	return offsets
}

// PickLetter chooses the letter a bot plays when it wins the dice roll,
// uniformly over the letters the dictionary fully covers.
func PickLetter(store *answers.Store, rng *rand.Rand) string {
	letters := store.Letters()
	if len(letters) == 0 {
		return "A"
	}
	return letters[rng.Intn(len(letters))]
}
