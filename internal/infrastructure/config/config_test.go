package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "this-is-a-very-secure-signing-secret-32chars"

// withEnv saves the given variables, clears them and restores them after the test
func withEnv(t *testing.T, keys ...string) {
	t.Helper()
	original := make(map[string]string, len(keys))
	for _, k := range keys {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

var envKeys = []string{
	"RESTO_APP_NAME",
	"RESTO_APP_ENV",
	"RESTO_APP_PORT",
	"RESTO_APP_SHUTDOWN_TIMEOUT",
	"RESTO_DATABASE_DRIVER",
	"RESTO_DATABASE_HOST",
	"RESTO_DATABASE_PORT",
	"RESTO_DATABASE_USER",
	"RESTO_DATABASE_PASSWORD",
	"RESTO_DATABASE_DBNAME",
	"RESTO_DATABASE_SSLMODE",
	"RESTO_DATABASE_MAX_OPEN_CONNS",
	"RESTO_DATABASE_MAX_IDLE_CONNS",
	"RESTO_CACHE_ENABLED",
	"RESTO_CACHE_CONNECT_ATTEMPTS",
	"RESTO_SCHEDULER_TIMEZONE",
	"RESTO_SCHEDULER_RUN_AT",
	"RESTO_AUTH_SIGNING_SECRET",
	"RESTO_AUTH_ISSUER",
	"RESTO_AUTH_TOKEN_TTL",
	"RESTO_TELEMETRY_ENABLED",
	"RESTO_TELEMETRY_COLLECTOR_ENDPOINT",
	"RESTO_TELEMETRY_SAMPLING_RATIO",
	"RESTO_TELEMETRY_DB_TRACE",
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		withEnv(t, envKeys...)
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "dev-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "restaurante-core", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, 10*time.Second, cfg.App.ShutdownTimeout)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "restaurante", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "warn", cfg.Database.LogLevel)
		assert.True(t, cfg.Cache.Enabled)
		assert.Equal(t, 3, cfg.Cache.ConnectAttempts)
		assert.Equal(t, 2*time.Second, cfg.Cache.ConnectMaxDelay)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, "America/Sao_Paulo", cfg.Scheduler.Timezone)
		assert.Equal(t, "06:00", cfg.Scheduler.RunAt)
		assert.Empty(t, cfg.Auth.Issuer)
		assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.True(t, cfg.Telemetry.DBTrace)
		assert.Equal(t, "restaurante-core", cfg.Telemetry.ServiceName)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Empty(t, cfg.Telemetry.CollectorEndpoint)
	})

	t.Run("loads values from environment variables with RESTO prefix", func(t *testing.T) {
		withEnv(t, envKeys...)
		os.Setenv("RESTO_APP_NAME", "test-app")
		os.Setenv("RESTO_APP_PORT", "9000")
		os.Setenv("RESTO_APP_SHUTDOWN_TIMEOUT", "5s")
		os.Setenv("RESTO_DATABASE_DRIVER", "sqlite")
		os.Setenv("RESTO_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("RESTO_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("RESTO_CACHE_ENABLED", "false")
		os.Setenv("RESTO_AUTH_ISSUER", "edge-gateway")
		os.Setenv("RESTO_AUTH_TOKEN_TTL", "1h")
		os.Setenv("RESTO_TELEMETRY_COLLECTOR_ENDPOINT", "otel-collector:4317")
		os.Setenv("RESTO_TELEMETRY_SAMPLING_RATIO", "0.25")
		os.Setenv("RESTO_TELEMETRY_DB_TRACE", "false")
		os.Setenv("RESTO_SCHEDULER_TIMEZONE", "UTC")
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "dev-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Cache.Enabled)
		assert.Equal(t, "dev-secret", cfg.Auth.SigningSecret)
		assert.Equal(t, "edge-gateway", cfg.Auth.Issuer)
		assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, "otel-collector:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
		assert.False(t, cfg.Telemetry.DBTrace)
		assert.Equal(t, "test-app", cfg.Telemetry.ServiceName)

		loc, err := cfg.Scheduler.Location()
		require.NoError(t, err)
		assert.Equal(t, "UTC", loc.String())
	})

	t.Run("missing signing secret is fatal", func(t *testing.T) {
		withEnv(t, envKeys...)

		_, err := Load()
		require.Error(t, err)
		assert.True(t, IsFatalStartup(err))
		assert.Contains(t, err.Error(), "auth.signing_secret is required")
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		withEnv(t, envKeys...)
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "dev-secret")
		os.Setenv("RESTO_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.False(t, IsFatalStartup(err))
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		withEnv(t, envKeys...)
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "dev-secret")
		os.Setenv("RESTO_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("RESTO_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		withEnv(t, envKeys...)
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "dev-secret")
		os.Setenv("RESTO_SCHEDULER_TIMEZONE", "Mars/Olympus_Mons")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.timezone")
	})

	t.Run("rejects sampling ratio outside 0..1", func(t *testing.T) {
		withEnv(t, envKeys...)
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "dev-secret")
		os.Setenv("RESTO_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})

	t.Run("rejects malformed run_at", func(t *testing.T) {
		withEnv(t, envKeys...)
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "dev-secret")
		os.Setenv("RESTO_SCHEDULER_RUN_AT", "6am")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.run_at")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		os.Setenv("RESTO_APP_ENV", "production")
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", testSecret)
		os.Setenv("RESTO_DATABASE_PASSWORD", "secure-password")
		os.Setenv("RESTO_DATABASE_SSLMODE", "require")
	}

	t.Run("requires signing secret at least 32 characters in production", func(t *testing.T) {
		withEnv(t, envKeys...)
		setValidProductionBase()
		os.Setenv("RESTO_AUTH_SIGNING_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, IsFatalStartup(err))
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		withEnv(t, envKeys...)
		setValidProductionBase()
		os.Unsetenv("RESTO_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, IsFatalStartup(err))
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		withEnv(t, envKeys...)
		setValidProductionBase()
		os.Setenv("RESTO_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, IsFatalStartup(err))
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("sqlite is not allowed in production", func(t *testing.T) {
		withEnv(t, envKeys...)
		setValidProductionBase()
		os.Setenv("RESTO_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, IsFatalStartup(err))
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		withEnv(t, envKeys...)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache.local:6380", RedisConfig{Host: "cache.local", Port: 6380}.Addr())
}
