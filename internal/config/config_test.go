package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/soundshare-api/internal/constants"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DB_DRIVER", "REDIS_HOST", "REDIS_PORT", "SPAM_PROVIDER", "SPAM_FAIL_OPEN",
		"CASCADE_VERIFY", "CASCADE_RETRY_ATTEMPTS", "LOCK_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "none", cfg.Spam.Provider)
	assert.False(t, cfg.Spam.FailOpen)
	assert.True(t, cfg.Cascade.Verify)
	assert.Equal(t, constants.DefaultCascadeRetryAttempts, cfg.Cascade.RetryAttempts)
	assert.Equal(t, constants.DefaultLockTTL, cfg.Cascade.LockTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("SPAM_FAIL_OPEN", "true")
	t.Setenv("CASCADE_ASYNC", "1")
	t.Setenv("CASCADE_RETRY_ATTEMPTS", "7")
	t.Setenv("CASCADE_RETRY_DELAY", "1s")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.True(t, cfg.Spam.FailOpen)
	assert.True(t, cfg.Cascade.Async)
	assert.Equal(t, 7, cfg.Cascade.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Cascade.RetryDelay)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("CASCADE_RETRY_ATTEMPTS", "many")
	t.Setenv("CASCADE_VERIFY", "maybe")

	cfg := Load()

	assert.Equal(t, constants.DefaultCascadeRetryAttempts, cfg.Cascade.RetryAttempts)
	assert.True(t, cfg.Cascade.Verify)
}

func TestLoadWithFile(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_HOST", "db.internal")

	path := filepath.Join(t.TempDir(), "soundshare.toml")
	content := `
db_driver = "sqlite"
db_name = "/tmp/soundshare.db"

[spam]
provider = "akismet"
fail_open = true

[cascade]
lock_backend = "redis"
retry_delay = "500ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/soundshare.db", cfg.DBName)
	// untouched keys keep the environment value
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "akismet", cfg.Spam.Provider)
	assert.True(t, cfg.Spam.FailOpen)
	assert.Equal(t, "redis", cfg.Cascade.LockBackend)
	assert.Equal(t, 500*time.Millisecond, cfg.Cascade.RetryDelay)
}

func TestLoadWithFileEmptyPath(t *testing.T) {
	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadWithFileErrors(t *testing.T) {
	_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver = "), 0o600))

	_, err = LoadWithFile(path)
	assert.ErrorContains(t, err, "failed to parse config")
}
