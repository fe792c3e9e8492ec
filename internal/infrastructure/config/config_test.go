package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "reimburse-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "reimburse", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Empty(t, cfg.Redis.Host)
		assert.Equal(t, "https://storage.googleapis.com", cfg.Storage.PublicBaseURL)
		assert.Equal(t, 4, cfg.Printing.PreloadParallel)
		assert.Equal(t, 1600, cfg.Printing.MaxImageSize)
		assert.Equal(t, 24*time.Hour, cfg.HTTP.IdempotencyTTL)
		assert.Equal(t, "reimburse-backend", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with REIMB prefix", func(t *testing.T) {
		t.Setenv("REIMB_APP_PORT", "9000")
		t.Setenv("REIMB_DATABASE_HOST", "testdb.local")
		t.Setenv("REIMB_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("REIMB_REDIS_HOST", "cache.local")
		t.Setenv("REIMB_STORAGE_BUCKET", "receipts")
		t.Setenv("REIMB_STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com")
		t.Setenv("REIMB_PRINTING_REMOTE_URL", "ws://chrome:9222")
		t.Setenv("REIMB_PRINTING_TIMEOUT", "90s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, "receipts", cfg.Storage.Bucket)
		assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
		assert.Equal(t, "ws://chrome:9222", cfg.Printing.RemoteURL)
		assert.Equal(t, 90*time.Second, cfg.Printing.Timeout)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("REIMB_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("REIMB_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("profiling needs a server", func(t *testing.T) {
		t.Setenv("REIMB_PROFILING_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiling.server_address")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("REIMB_APP_ENV", "production")
		t.Setenv("REIMB_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("REIMB_DATABASE_PASSWORD", "secure-password")
		t.Setenv("REIMB_DATABASE_SSLMODE", "require")
		t.Setenv("REIMB_STORAGE_BUCKET", "receipts")
		t.Setenv("REIMB_SWAGGER_ENABLED", "false")
	}

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "valid", env: map[string]string{}},
		{name: "missing jwt secret", env: map[string]string{"REIMB_JWT_SECRET": ""}, wantErr: "jwt.secret is required"},
		{name: "short jwt secret", env: map[string]string{"REIMB_JWT_SECRET": "short"}, wantErr: "at least 32 characters"},
		{name: "missing db password", env: map[string]string{"REIMB_DATABASE_PASSWORD": ""}, wantErr: "database.password is required"},
		{name: "ssl disabled", env: map[string]string{"REIMB_DATABASE_SSLMODE": "disable"}, wantErr: "sslmode cannot be 'disable'"},
		{name: "missing bucket", env: map[string]string{"REIMB_STORAGE_BUCKET": ""}, wantErr: "storage.bucket is required"},
		{name: "open swagger", env: map[string]string{"REIMB_SWAGGER_ENABLED": "true"}, wantErr: "swagger endpoint"},
		{name: "protected swagger", env: map[string]string{"REIMB_SWAGGER_ENABLED": "true", "REIMB_SWAGGER_REQUIRE_AUTH": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "production", cfg.App.Env)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "reimburse", SSLMode: "disable"}
		assert.Equal(t, "postgres://u:p@localhost:5432/reimburse?sslmode=disable", cfg.DSN())
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
