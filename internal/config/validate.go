package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Words.validate(); err != nil {
		return fmt.Errorf("words: %w", err)
	}

	if err := c.Browse.validate(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of sqlite, postgres, memory (got %q)", c.Storage.Driver)
	}

	if c.RateLimit.RefreshPerMinute <= 0 {
		return fmt.Errorf("ratelimit.refresh_per_minute must be > 0 (got %d)", c.RateLimit.RefreshPerMinute)
	}

	return nil
}

func (w *WordsConfig) validate() error {
	for name, raw := range map[string]string{"random_url": w.RandomWordURL, "dictionary_url": w.DictionaryURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
		}
	}
	if w.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be > 0 (got %d)", w.MaxBatchSize)
	}
	if w.BatchSize <= 0 || w.BatchSize > w.MaxBatchSize {
		return fmt.Errorf("batch_size must be in [1, %d] (got %d)", w.MaxBatchSize, w.BatchSize)
	}
	if w.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be > 0 (got %s)", w.HTTPTimeout)
	}
	if w.DictionaryRetries < 0 {
		return fmt.Errorf("dictionary_retries must be >= 0 (got %d)", w.DictionaryRetries)
	}
	return nil
}

func (b *BrowseConfig) validate() error {
	if b.PrefetchThreshold < 0 {
		return fmt.Errorf("prefetch_threshold must be >= 0 (got %d)", b.PrefetchThreshold)
	}
	if strings.TrimSpace(b.StorageKey) == "" {
		return fmt.Errorf("storage_key is required")
	}
	if b.PrefetchTimeout <= 0 {
		return fmt.Errorf("prefetch_timeout must be > 0 (got %s)", b.PrefetchTimeout)
	}
	if b.PersistTimeout <= 0 {
		return fmt.Errorf("persist_timeout must be > 0 (got %s)", b.PersistTimeout)
	}
	return nil
}
