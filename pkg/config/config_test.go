package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/facilityinsight/pkg/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Load()

		require.NoError(t, err)
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "data", cfg.Dataset.DataDir)
		assert.Equal(t, []string{"facilities_ghana.csv", "Virtue_Foundation_Ghana_Sheet1.csv"}, cfg.Dataset.FileNames)
		assert.Equal(t, "_geocoded", cfg.Dataset.GeocodedSuffix)
		assert.Equal(t, "Ghana", cfg.Dataset.Country)
		assert.Equal(t, "https://geocode.maps.co/search", cfg.Geocoding.BaseURL)
		assert.Equal(t, 1200*time.Millisecond, cfg.Geocoding.RequestDelay)
		assert.False(t, cfg.OTEL.Enabled)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("FACILITY_DATA_DIR", "/srv/facility-data")
		t.Setenv("GEOCODE_REQUEST_DELAY", "250ms")
		t.Setenv("REDIS_PORT", "6380")
		t.Setenv("OTEL_ENABLED", "true")

		cfg, err := config.Load()

		require.NoError(t, err)
		assert.Equal(t, "/srv/facility-data", cfg.Dataset.DataDir)
		assert.Equal(t, 250*time.Millisecond, cfg.Geocoding.RequestDelay)
		assert.Equal(t, "localhost:6380", cfg.Redis.RedisAddr())
		assert.True(t, cfg.OTEL.Enabled)
	})
}
