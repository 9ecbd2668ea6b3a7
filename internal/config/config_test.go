package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t,
		"STORE_DRIVER", "SESSION_DRIVER", "APP_ENV", "JWT_SECRET", "SESSION_TTL",
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE",
		"SERVER_HOST", "SERVER_PORT",
	)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, SessionDriverRedis, cfg.Store.SessionDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "postgres://taskboard:@localhost:5432/taskboard?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("SESSION_DRIVER", "memory")
	t.Setenv("SESSION_TTL", "90")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "2s")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("CREDENTIAL_CACHE_PATH", "/tmp/creds.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 90*time.Second, cfg.Auth.SessionTTL)
	assert.Equal(t, 2*time.Second, cfg.Context.RequestTimeout)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "/tmp/creds.db", cfg.Credentials.Path)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "development",
			Store:       StoreConfig{Driver: StoreDriverMemory, SessionDriver: SessionDriverMemory},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Store.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "STORE_DRIVER")

	cfg = base()
	cfg.Store.Driver = StoreDriverDatastore
	assert.ErrorContains(t, cfg.Validate(), "DATASTORE_PROJECT_ID")
	cfg.Datastore.ProjectID = "demo"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Store.SessionDriver = "memcached"
	assert.ErrorContains(t, cfg.Validate(), "SESSION_DRIVER")

	cfg = base()
	cfg.Environment = "production"
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
	cfg.Auth.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())
}
