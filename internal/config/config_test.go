package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")
	for _, k := range []string{"STORE_DRIVER", "PORT", "SESSION_NAME", "NEARBY_MAX_RADIUS_KM", "NEARBY_MAX_RESULTS", "CACHE_TTL", "SESSION_MAX_AGE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "luontovahdit-id", cfg.Session.Name)
	assert.Equal(t, devSessionSecret, cfg.Session.Secret)
	assert.Equal(t, 180*24*60*60, cfg.Session.MaxAge)
	assert.Equal(t, 500.0, cfg.Nearby.MaxRadiusKm)
	assert.Equal(t, 100, cfg.Nearby.MaxResults)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("NEARBY_MAX_RADIUS_KM", "250")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("PORT", "not-used-as-int")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, 250.0, cfg.Nearby.MaxRadiusKm)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "not-used-as-int", cfg.App.Port)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.Error(t, err)
}
