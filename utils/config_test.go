package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rosejohnson3923/pathfinity-app-sub011/utils"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		grace   time.Duration
		tick    time.Duration
		wantErr bool
	}{
		{"tick shorter than grace", 15 * time.Second, 5 * time.Second, false},
		{"tick equal to grace", 15 * time.Second, 15 * time.Second, true},
		{"tick longer than grace", 15 * time.Second, 20 * time.Second, true},
		{"zero tick", 15 * time.Second, 0, true},
		{"negative tick", 15 * time.Second, -time.Second, true},
		{"zero grace", 0, 5 * time.Second, true},
		{"negative grace", -time.Second, 5 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &utils.Config{
				GracePeriod:  tt.grace,
				TickInterval: tt.tick,
			}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GRACE_PERIOD", "")
	t.Setenv("TICK_INTERVAL", "")
	t.Setenv("AI_TAKEOVER_ENABLED", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := utils.LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.GracePeriod)
	assert.Equal(t, 5*time.Second, cfg.TickInterval)
	assert.False(t, cfg.AITakeoverEnabled)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("GRACE_PERIOD", "30s")
	t.Setenv("TICK_INTERVAL", "10s")
	t.Setenv("AI_TAKEOVER_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com,https://app.example.com")

	cfg, err := utils.LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.GracePeriod)
	assert.Equal(t, 10*time.Second, cfg.TickInterval)
	assert.True(t, cfg.AITakeoverEnabled)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfig_RejectsBadTiming(t *testing.T) {
	t.Setenv("GRACE_PERIOD", "5s")
	t.Setenv("TICK_INTERVAL", "5s")

	_, err := utils.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsMalformedDuration(t *testing.T) {
	t.Setenv("GRACE_PERIOD", "fifteen")
	t.Setenv("TICK_INTERVAL", "")

	_, err := utils.LoadConfig()
	assert.Error(t, err)
}
