package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearShopEnv blanks every variable the tests touch; viper ignores empty values.
func clearShopEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SHOP_APP_NAME", "SHOP_APP_ENV", "SHOP_APP_PORT",
		"SHOP_DATABASE_DRIVER", "SHOP_DATABASE_HOST", "SHOP_DATABASE_PORT",
		"SHOP_DATABASE_PASSWORD", "SHOP_DATABASE_MAX_OPEN_CONNS", "SHOP_DATABASE_MAX_IDLE_CONNS",
		"SHOP_JWT_SECRET", "SHOP_SWAGGER_ENABLED", "SHOP_SWAGGER_ALLOWED_IPS",
		"SHOP_GEMINI_API_KEY", "SHOP_KAFKA_ENABLED", "SHOP_SEED_ADMIN_EMAIL", "SHOP_SEED_ADMIN_PASSWORD",
		"SHOP_TELEMETRY_SAMPLING_RATIO",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearShopEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "storefront", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
		assert.Equal(t, 0.7, cfg.Gemini.Temperature)
		assert.Equal(t, 40, cfg.Gemini.TopK)
		assert.Equal(t, 0.95, cfg.Gemini.TopP)
		assert.Equal(t, 1024, cfg.Gemini.MaxOutputTokens)
		assert.False(t, cfg.Gemini.Enabled())
		assert.Equal(t, "storefront.orders", cfg.Kafka.Topic)
		assert.Equal(t, int64(5<<20), cfg.Storage.MaxUploadSize)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
	})

	t.Run("loads values from environment variables with SHOP prefix", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_APP_PORT", "9000")
		t.Setenv("SHOP_DATABASE_DRIVER", "sqlite")
		t.Setenv("SHOP_GEMINI_API_KEY", "key")
		t.Setenv("SHOP_KAFKA_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.True(t, cfg.Gemini.Enabled())
		assert.True(t, cfg.Kafka.Enabled)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("seed admin needs a password", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_SEED_ADMIN_EMAIL", "admin@example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seed.admin_password")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_APP_ENV", "production")
		t.Setenv("SHOP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("SHOP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SHOP_SWAGGER_ENABLED", "false")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires long jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("fails if swagger enabled without IP restriction", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", SQLitePath: "/tmp/shop.db"}
		assert.Equal(t, "/tmp/shop.db", cfg.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
