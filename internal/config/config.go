package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/yukikurage/soundshare-api/internal/constants"
)

type Config struct {
	DBDriver      string `toml:"db_driver"`
	DBHost        string `toml:"db_host"`
	DBPort        string `toml:"db_port"`
	DBUser        string `toml:"db_user"`
	DBPassword    string `toml:"db_password"`
	DBName        string `toml:"db_name"`
	RedisHost     string `toml:"redis_host"`
	RedisPort     string `toml:"redis_port"`
	SessionSecret string `toml:"session_secret"`
	GinMode       string `toml:"gin_mode"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`

	Spam    SpamConfig    `toml:"spam"`
	Cascade CascadeConfig `toml:"cascade"`
}

// SpamConfig selects the spam oracle consulted at signup and on profile updates.
type SpamConfig struct {
	Provider     string `toml:"provider"` // none, akismet or openai
	FailOpen     bool   `toml:"fail_open"`
	AkismetKey   string `toml:"akismet_key"`
	AkismetBlog  string `toml:"akismet_blog"`
	OpenAIAPIKey string `toml:"openai_api_key"`
}

// CascadeConfig tunes account removal.
type CascadeConfig struct {
	Async         bool          `toml:"async"`
	RetryAttempts int           `toml:"retry_attempts"`
	RetryDelay    time.Duration `toml:"retry_delay"`
	Verify        bool          `toml:"verify"`
	LockBackend   string        `toml:"lock_backend"` // local or redis
	LockTTL       time.Duration `toml:"lock_ttl"`
}

func Load() *Config {
	return &Config{
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "soundshare"),
		DBPassword:    getEnv("DB_PASSWORD", "soundshare"),
		DBName:        getEnv("DB_NAME", "soundshare"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		Spam: SpamConfig{
			Provider:     getEnv("SPAM_PROVIDER", "none"),
			FailOpen:     getEnvBool("SPAM_FAIL_OPEN", false),
			AkismetKey:   getEnv("AKISMET_KEY", ""),
			AkismetBlog:  getEnv("AKISMET_BLOG", "https://soundshare.local"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		},
		Cascade: CascadeConfig{
			Async:         getEnvBool("CASCADE_ASYNC", false),
			RetryAttempts: getEnvInt("CASCADE_RETRY_ATTEMPTS", constants.DefaultCascadeRetryAttempts),
			RetryDelay:    getEnvDuration("CASCADE_RETRY_DELAY", constants.DefaultCascadeRetryDelay),
			Verify:        getEnvBool("CASCADE_VERIFY", true),
			LockBackend:   getEnv("LOCK_BACKEND", "local"),
			LockTTL:       getEnvDuration("LOCK_TTL", constants.DefaultLockTTL),
		},
	}
}

// LoadWithFile loads the environment configuration and overlays the TOML file at path.
// Keys present in the file win over the environment defaults.
func LoadWithFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// RedisAddr returns host:port for the redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
