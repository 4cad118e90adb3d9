package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "images", cfg.StorageBucket)
	assert.Equal(t, "Asia/Kolkata", cfg.DisplayTimezone)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionDSN(t *testing.T) {
	viper.Reset()
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL_DEV", "postgres://dev")
	t.Setenv("DATABASE_URL_PROD", "postgres://prod")
	t.Setenv("SUPABASE_URL", "https://abcd.supabase.co/")
	t.Setenv("ALLOW_CROSS_SITE_DEV", "TRUE")
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://prod", cfg.DatabaseURL)
	assert.Equal(t, "https://abcd.supabase.co", cfg.SupabaseURL)
	assert.True(t, cfg.AllowCrossSiteDev)
}
