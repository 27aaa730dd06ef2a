package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, BackendMemory, cfg.Storage.DeviceBackend)
	assert.Equal(t, 5*1024*1024, cfg.Storage.QuotaBytes)
	assert.Equal(t, "classroom:device:changes", cfg.Sync.Channel)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.RetryDelay)
	assert.Equal(t, 12*time.Hour, cfg.Materials.SignedURLTTL)
	assert.Equal(t, "leaderboard", cfg.Leaderboard.Key)
	assert.Equal(t, 10, cfg.Leaderboard.Size)
	assert.Equal(t, 10*time.Minute, cfg.Leaderboard.BackupInterval)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestFromViperNormalisesBackendAndQuota(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DEVICE_BACKEND", " Redis ")
	v.Set("STORAGE_QUOTA_BYTES", -1)
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := fromViper(v)

	assert.Equal(t, BackendRedis, cfg.Storage.DeviceBackend)
	assert.Equal(t, 5*1024*1024, cfg.Storage.QuotaBytes)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)

	v.Set("DEVICE_BACKEND", "floppy")
	assert.Equal(t, BackendMemory, fromViper(v).Storage.DeviceBackend)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Second))
}
