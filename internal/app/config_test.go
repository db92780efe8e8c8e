package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, time.Hour, cfg.LotteryPendingCloseTTL)
	require.Equal(t, 5*time.Second, cfg.LotteryPrepareTimeout)
	require.Equal(t, "*/10 * * * *", cfg.LotterySweepCron)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOTTERY_PENDING_CLOSE_TTL", "30m")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, 30*time.Minute, cfg.LotteryPendingCloseTTL)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
}
