package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // e.g. https://abcd.supabase.co; storage uploads, public URLs and OAuth
	SupabaseSecretKey   string // service_role key, storage writes need it
	SupabaseJWTSecret   string // HS256 secret used to verify Supabase access tokens
	StorageBucket       string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	DisplayTimezone     string
	LogLevel            string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("STORAGE_BUCKET", "images")
	viper.SetDefault("DISPLAY_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("LOG_LEVEL", "info")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	switch env {
	case "production":
		dbURL = viper.GetString("DATABASE_URL_PROD")
	case "test":
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		SupabaseURL:         strings.TrimRight(viper.GetString("SUPABASE_URL"), "/"),
		SupabaseSecretKey:   viper.GetString("SUPABASE_SECRET_KEY"),
		SupabaseJWTSecret:   viper.GetString("SUPABASE_JWT_SECRET"),
		StorageBucket:       viper.GetString("STORAGE_BUCKET"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		DisplayTimezone:     viper.GetString("DISPLAY_TIMEZONE"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
	}, nil
}

// IsProduction reports whether the server runs with production cookies and DSN.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
