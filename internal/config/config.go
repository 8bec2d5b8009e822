package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Words     WordsConfig     `yaml:"words"`
	Browse    BrowseConfig    `yaml:"browse"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"5m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// WordsConfig holds settings for the random-word and dictionary services.
type WordsConfig struct {
	RandomWordURL     string        `yaml:"random_url"         env:"WORDS_RANDOM_URL"         env-default:"https://random-word-api.herokuapp.com/word"`
	DictionaryURL     string        `yaml:"dictionary_url"     env:"WORDS_DICTIONARY_URL"     env-default:"https://api.dictionaryapi.dev/api/v2/entries/en"`
	BatchSize         int           `yaml:"batch_size"         env:"WORDS_BATCH_SIZE"         env-default:"10"`
	MaxBatchSize      int           `yaml:"max_batch_size"     env:"WORDS_MAX_BATCH_SIZE"     env-default:"50"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"       env:"WORDS_HTTP_TIMEOUT"       env-default:"10s"`
	DictionaryRetries int           `yaml:"dictionary_retries" env:"WORDS_DICTIONARY_RETRIES" env-default:"1"`
	RetryDelay        time.Duration `yaml:"retry_delay"        env:"WORDS_RETRY_DELAY"        env-default:"500ms"`
}

// BrowseConfig holds settings for the browsing session and its persisted snapshot.
type BrowseConfig struct {
	PrefetchThreshold int           `yaml:"prefetch_threshold" env:"BROWSE_PREFETCH_THRESHOLD" env-default:"2"`
	PrefetchTimeout   time.Duration `yaml:"prefetch_timeout"   env:"BROWSE_PREFETCH_TIMEOUT"   env-default:"2m"`
	StorageKey        string        `yaml:"storage_key"        env:"BROWSE_STORAGE_KEY"        env-default:"word-storage"`
	PersistBatch      bool          `yaml:"persist_batch"      env:"BROWSE_PERSIST_BATCH"      env-default:"true"`
	PersistTimeout    time.Duration `yaml:"persist_timeout"    env:"BROWSE_PERSIST_TIMEOUT"    env-default:"5s"`
	StaleGuard        bool          `yaml:"stale_guard"        env:"BROWSE_STALE_GUARD"        env-default:"true"`
}

// StorageConfig selects the key-value backend used for the persisted snapshot.
type StorageConfig struct {
	Driver     string `yaml:"driver"      env:"STORAGE_DRIVER"      env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"STORAGE_SQLITE_PATH" env-default:"./wordbrowser.db"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only used by the postgres driver.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"5"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig limits how often clients may trigger upstream fetches.
type RateLimitConfig struct {
	RefreshPerMinute int           `yaml:"refresh_per_minute" env:"RATELIMIT_REFRESH_PER_MINUTE" env-default:"30"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"   env:"RATELIMIT_CLEANUP_INTERVAL"   env-default:"5m"`
}

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)
