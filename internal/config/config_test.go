package config

import "testing"

func TestGetStake(t *testing.T) {
	c := Default()

	tests := []struct {
		tier string
		want int64
	}{
		{"bronze", 100},
		{"silver", 500},
		{"gold", 2000},
		{"", 100},        // empty falls back to default tier
		{"platinum", 100}, // unknown falls back to default tier
	}
	for _, tt := range tests {
		if got := c.GetStake(tt.tier); got != tt.want {
			t.Errorf("GetStake(%q) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestDefaultTimings(t *testing.T) {
	c := Default()
	if c.MatchAttempts*c.MatchAttemptIntervalMs != c.MatchTimeoutMs {
		t.Errorf("match attempts (%d x %dms) do not cover the %dms timeout",
			c.MatchAttempts, c.MatchAttemptIntervalMs, c.MatchTimeoutMs)
	}
	if c.BotFastFillMaxMs <= c.BotFastFillMinMs || c.BotSlowFillMaxMs <= c.BotSlowFillMinMs {
		t.Error("bot fill windows must be non-empty")
	}
	if c.AIMatchMaxDelayMs <= c.AIMatchMinDelayMs {
		t.Error("AI match delay window must be non-empty")
	}
}
