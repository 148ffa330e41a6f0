package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                "8080",
		RedisURL:            "redis://localhost:6379",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		JWTIssuer:           "https://auth.example.com",
		JWTAudience:         "hearth",
		EventQueueSize:      16,
		PublishTimeoutMS:    100,
		StoreTimeoutMS:      100,
		TxMaxRetries:        3,
		MaxMessageLength:    2000,
		TracingSamplerRatio: 1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development", func(c *Config) { c.Env = "development" }, false},
		{"missing redis", func(c *Config) { c.RedisURL = "" }, true},
		{"zero retries", func(c *Config) { c.TxMaxRetries = 0 }, true},
		{"zero queue", func(c *Config) { c.EventQueueSize = 0 }, true},
		{"sampler out of range", func(c *Config) { c.TracingSamplerRatio = 1.5 }, true},
		{"production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"production without audience", func(c *Config) { c.Env = "production"; c.JWTAudience = "" }, true},
		{"production valid", func(c *Config) { c.Env = "production" }, false},
		{"development short secret only warns", func(c *Config) { c.JWTSecret = "short" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("TX_MAX_RETRIES", "3")
	t.Setenv("MAX_MESSAGE_LENGTH", "500")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "redis://cache:6379/1", c.RedisURL)
	assert.Equal(t, 3, c.TxMaxRetries)
	assert.Equal(t, 500, c.MaxMessageLength)
	assert.Equal(t, 1024, c.EventQueueSize)
	assert.Equal(t, "2s", c.StoreTimeout().String())
}
