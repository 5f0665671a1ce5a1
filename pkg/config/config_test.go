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
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Nil(t, cfg.Scheduler.ActiveDays)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.RunTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.RunCacheTTL)
	assert.Equal(t, 1, cfg.Scheduler.Workers)
	assert.Equal(t, 2, cfg.Scheduler.MaxRetries)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENABLE_SCHEDULER", false)
	v.Set("SCHEDULER_ACTIVE_DAYS", "Monday, Wednesday ,,Friday")
	v.Set("SCHEDULER_RUN_TIMEOUT", "45s")
	v.Set("SCHEDULER_RUN_CACHE_TTL", "bogus")
	v.Set("REDIS_ENABLED", true)
	v.Set("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := fromViper(v)

	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, cfg.Scheduler.ActiveDays)
	assert.Equal(t, 45*time.Second, cfg.Scheduler.RunTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.RunCacheTTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("nope", time.Second))
	assert.Equal(t, 3*time.Minute, parseDuration("3m", time.Second))
}
