package config

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration for the ranker
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Scoring
	StrategyPath string // 스코어링 설정 YAML 경로
	Workers      int    // 종목별 병렬 스코어링 워커 수
	MaxUploadMB  int

	// Redis
	Redis RedisConfig

	// Result cache
	Cache CacheConfig

	// Upload rate limit (per client IP)
	RateLimit RateLimitConfig

	// Market overview (Yahoo Finance)
	Market MarketConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// CacheConfig holds ranked result cache configuration
type CacheConfig struct {
	Prefix string
	TTL    time.Duration
}

// RateLimitConfig holds upload rate limit configuration
type RateLimitConfig struct {
	Limit  int
	Window time.Duration

	// TrustedProxies are IPs or CIDRs allowed to set X-Forwarded-For.
	// 비어 있으면 RemoteAddr 만 사용
	TrustedProxies []string
}

// TrustedPrefixes parses TrustedProxies. A bare IP becomes a single-host prefix.
func (c RateLimitConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, item := range c.TrustedProxies {
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// MarketConfig holds market overview configuration
type MarketConfig struct {
	Enabled        bool
	BaseURL        string
	Symbols        []string
	RefreshCron    string  // cron with seconds, e.g. "0 */15 * * * *"
	RequestsPerSec float64 // outbound limit
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Scoring
		StrategyPath: getEnv("STRATEGY_PATH", "config/strategy/momentum_v1.yaml"),
		Workers:      getEnvAsInt("SCORING_WORKERS", 8),
		MaxUploadMB:  getEnvAsInt("MAX_UPLOAD_MB", 10),

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Cache: CacheConfig{
			Prefix: getEnv("CACHE_PREFIX", "momentum"),
			TTL:    getEnvAsDuration("CACHE_TTL", "10m"),
		},

		RateLimit: RateLimitConfig{
			Limit:  getEnvAsInt("UPLOAD_RATE_LIMIT", 30),
			Window: getEnvAsDuration("UPLOAD_RATE_WINDOW", "1m"),

			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},

		Market: MarketConfig{
			Enabled:        getEnvAsBool("MARKET_ENABLED", true),
			BaseURL:        getEnv("MARKET_BASE_URL", "https://query1.finance.yahoo.com"),
			Symbols:        getEnvAsList("MARKET_SYMBOLS", []string{"SPY", "QQQ", "IWM"}),
			RefreshCron:    getEnv("MARKET_REFRESH_CRON", "0 */15 * * * *"),
			RequestsPerSec: getEnvAsFloat("MARKET_RPS", 2),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.StrategyPath == "" {
		return fmt.Errorf("STRATEGY_PATH is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("SCORING_WORKERS must be >= 1, got %d", c.Workers)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be >= 1, got %d", c.MaxUploadMB)
	}
	if c.RateLimit.Limit < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("UPLOAD_RATE_LIMIT and UPLOAD_RATE_WINDOW must be positive")
	}
	if _, err := c.RateLimit.TrustedPrefixes(); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	if c.Market.Enabled && len(c.Market.Symbols) == 0 {
		return fmt.Errorf("MARKET_SYMBOLS must not be empty when market overview is enabled")
	}
	return nil
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	items := make([]string, 0)
	for _, item := range strings.Split(valueStr, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
