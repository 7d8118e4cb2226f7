// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "vials.db", cfg.Database.DSN())
	assert.Equal(t, 2, cfg.NFT.MaxChainsPerCall)
	assert.False(t, cfg.NFT.MockFallback)
	assert.Equal(t, "pinata", cfg.IPFS.Backend)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://vials.app, https://staging.vials.app,")
	t.Setenv("NFT_MOCK_FALLBACK", "TRUE")
	t.Setenv("GENERATION_MIN_DELAY_MS", "0")
	t.Setenv("GENERATION_MAX_DELAY_MS", "10")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://vials.app", "https://staging.vials.app"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.NFT.MockFallback)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "host=db port=5432 user=postgres password=secret dbname=vials sslmode=disable", cfg.Database.DSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "production",
			Database:    DatabaseConfig{Driver: "postgres", Password: "pw"},
			JWT:         JWTConfig{SecretKey: "changed", RequireRelayerToken: true},
			Generation:  GenerationConfig{MinDelayMS: 1, MaxDelayMS: 2},
			IPFS:        IPFSConfig{Backend: "filebase"},
		}
	}
	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.JWT.SecretKey = defaultJWTSecret
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Password = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Generation.MaxDelayMS = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.IPFS.Backend = "s3"
	assert.Error(t, cfg.Validate())
}
