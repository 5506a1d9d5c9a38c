package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewConfigDefaults tests the default configuration.
// It verifies that NewConfig returns sensible production defaults for all
// settings.
func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(512), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "hackchat", cfg.MongoDatabase)
	assert.Empty(t, cfg.MongoURI)
}

// TestConfigSanitize tests that zero or invalid settings are replaced with
// defaults while valid settings are preserved.
func TestConfigSanitize(t *testing.T) {
	cfg := Config{
		Port:           "",
		MaxMessageSize: -1,
		RateLimit:      RateLimitConfig{Burst: 0, RefillInterval: 0},
	}.Sanitize()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, int64(512), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "hackchat", cfg.MongoDatabase)

	custom := Config{
		Port:           ":9000",
		MaxMessageSize: 2048,
		RateLimit:      RateLimitConfig{Burst: 10, RefillInterval: 2 * time.Second},
		MongoDatabase:  "chat",
	}.Sanitize()

	assert.Equal(t, ":9000", custom.Port)
	assert.Equal(t, int64(2048), custom.MaxMessageSize)
	assert.Equal(t, 10, custom.RateLimit.Burst)
	assert.Equal(t, 2*time.Second, custom.RateLimit.RefillInterval)
	assert.Equal(t, "chat", custom.MongoDatabase)
}

// TestNewConfigFromEnv tests environment-driven configuration.
// It verifies that set variables override defaults and unset or invalid
// variables fall back.
func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "http://example.com, https://chat.example.com")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "3")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DATABASE", "chat")

	cfg := NewConfigFromEnv()

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"http://example.com", "https://chat.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimit.Burst) // invalid value falls back
	assert.Equal(t, 3*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "chat", cfg.MongoDatabase)
}
