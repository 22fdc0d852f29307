package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Cache settings
	CacheFilePath      string
	CacheTTL           time.Duration
	CacheSaveInterval  time.Duration
	CacheSweepInterval time.Duration
	CacheMaxSizeKB     int
	NewsRetentionDays  int

	// Analysis settings
	DuplicateThreshold float64
	SummarySentences   int
	KeywordCount       int
	LexiconPath        string // optional YAML overrides

	// RSS settings
	FeedsConfigPath   string
	MaxNewsPerFeed    int
	FetchConcurrency  int
	FetchRatePerSec   float64
	ScrapeFullContent bool

	// App settings
	Debug          bool
	LogFile        string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	// Monitoring
	EnableHTTPMonitoring bool
	MonitoringPort       string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		CacheFilePath:      getEnvOrDefault("CACHE_FILE_PATH", "cache/persistent-cache.json"),
		CacheTTL:           time.Duration(getEnvIntOrDefault("CACHE_TTL_SECONDS", 3600)) * time.Second,
		CacheSaveInterval:  getEnvDurationOrDefault("CACHE_SAVE_INTERVAL", time.Minute),
		CacheSweepInterval: getEnvDurationOrDefault("CACHE_SWEEP_INTERVAL", 10*time.Minute),
		CacheMaxSizeKB:     getEnvIntOrDefault("CACHE_MAX_SIZE_KB", 10240),
		NewsRetentionDays:  getEnvIntOrDefault("NEWS_RETENTION_DAYS", 7),

		DuplicateThreshold: getEnvFloatOrDefault("DUPLICATE_THRESHOLD", 0.6),
		SummarySentences:   getEnvIntOrDefault("SUMMARY_SENTENCES", 3),
		KeywordCount:       getEnvIntOrDefault("KEYWORD_COUNT", 5),
		LexiconPath:        os.Getenv("LEXICON_PATH"),

		FeedsConfigPath:   getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml"),
		MaxNewsPerFeed:    getEnvIntOrDefault("MAX_NEWS_PER_FEED", 20),
		FetchConcurrency:  getEnvIntOrDefault("FETCH_CONCURRENCY", 4),
		FetchRatePerSec:   getEnvFloatOrDefault("FETCH_RATE_PER_SEC", 2),
		ScrapeFullContent: os.Getenv("SCRAPE_FULL_CONTENT") == "true",

		Debug:          os.Getenv("DEBUG") == "true",
		LogFile:        os.Getenv("LOG_FILE"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 15*time.Second),
		RetryAttempts:  getEnvIntOrDefault("RETRY_ATTEMPTS", 3),
		RetryDelay:     getEnvDurationOrDefault("RETRY_DELAY", 2*time.Second),

		EnableHTTPMonitoring: os.Getenv("ENABLE_HTTP_MONITORING") == "true",
		MonitoringPort:       getEnvOrDefault("MONITORING_PORT", "8080"),
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	if c.CacheSaveInterval <= 0 || c.CacheSweepInterval <= 0 {
		return fmt.Errorf("CACHE_SAVE_INTERVAL and CACHE_SWEEP_INTERVAL must be positive")
	}
	if c.CacheMaxSizeKB <= 0 {
		return fmt.Errorf("CACHE_MAX_SIZE_KB must be positive")
	}
	if c.NewsRetentionDays <= 0 {
		return fmt.Errorf("NEWS_RETENTION_DAYS must be positive")
	}
	if math.IsNaN(c.DuplicateThreshold) || c.DuplicateThreshold < 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("DUPLICATE_THRESHOLD must be within [0, 1]")
	}
	if c.SummarySentences < 1 {
		return fmt.Errorf("SUMMARY_SENTENCES must be at least 1")
	}
	if c.KeywordCount < 1 {
		return fmt.Errorf("KEYWORD_COUNT must be at least 1")
	}
	if c.MaxNewsPerFeed < 1 || c.FetchConcurrency < 1 {
		return fmt.Errorf("MAX_NEWS_PER_FEED and FETCH_CONCURRENCY must be at least 1")
	}
	if c.FetchRatePerSec <= 0 {
		return fmt.Errorf("FETCH_RATE_PER_SEC must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}
