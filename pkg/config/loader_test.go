package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/config"
)

type testConfig struct {
	Addr     string        `env:"TEST_CFG_ADDR" envDefault:":8080"`
	Interval time.Duration `env:"TEST_CFG_INTERVAL" envDefault:"15s"`
	Domains  []string      `env:"TEST_CFG_DOMAINS" envSeparator:","`
}

type requiredConfig struct {
	Token string `env:"TEST_CFG_REQUIRED_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 15*time.Second, cfg.Interval)
		assert.Empty(t, cfg.Domains)
	})

	t.Run("env values win over defaults", func(t *testing.T) {
		t.Setenv("TEST_CFG_ADDR", ":9000")
		t.Setenv("TEST_CFG_DOMAINS", "a.com,b.org")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9000", cfg.Addr)
		assert.Equal(t, []string{"a.com", "b.org"}, cfg.Domains)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})
}
