package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("ROUTING_API_KEY", "token")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, ProgressModeFixed, cfg.ProgressMode)
	assert.InDelta(t, 0.04, cfg.ProgressIncrement, 1e-12)
	assert.Equal(t, ProviderMapbox, cfg.RoutingProvider)
	assert.Equal(t, 10*time.Second, cfg.RoutingTimeout)
	assert.Equal(t, "data/app.db", cfg.DBPath)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestFromViperEnvironmentOverrides(t *testing.T) {
	t.Setenv("ROUTING_API_KEY", "key")
	t.Setenv("ROUTING_PROVIDER", "ORS")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("PROGRESS_MODE", "speed")
	t.Setenv("SPEED_MPS", "22.5")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://dispatch.example.com,")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ProviderORS, cfg.RoutingProvider)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, ProgressModeSpeed, cfg.ProgressMode)
	assert.InDelta(t, 22.5, cfg.SpeedMPS, 1e-12)
	assert.Equal(t, []string{"http://localhost:3000", "https://dispatch.example.com"}, cfg.CORSOrigins)
}

func TestFromViperConfigFile(t *testing.T) {
	t.Setenv("ROUTING_API_KEY", "key")

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("PORT: \"9090\"\nOPTIMIZER_URL: http://solver:8000\n")))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://solver:8000", cfg.OptimizerURL)
}

func TestFromViperValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing api key":  {"ROUTING_API_KEY": ""},
		"unknown provider": {"ROUTING_PROVIDER": "google"},
		"zero tick":        {"TICK_INTERVAL": "0s"},
		"increment above1": {"PROGRESS_INCREMENT": "1.5"},
		"bad optimizer":    {"OPTIMIZER_URL": "not a url"},
		"bad mode":         {"PROGRESS_MODE": "teleport"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("ROUTING_API_KEY", "key")
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := FromViper(viper.New())
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("DISPATCH_TEST_KEY", "value")
	assert.Equal(t, "value", Get("DISPATCH_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", Get("DISPATCH_TEST_MISSING", "fallback"))
}
