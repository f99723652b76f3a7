package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds
const (
	DataSourcePostgres = "postgres"
	DataSourceFixture  = "fixture"
)

const defaultStrategyConfig = "config/strategy/value_investment.yaml"

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Strategy
	Strategy StrategyConfig

	// External
	Naver NaverConfig

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
	CacheTTL time.Duration // 데이터 스냅샷 캐시 TTL
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// StrategyConfig holds runtime wiring of the rebalancing strategy
type StrategyConfig struct {
	ConfigPath  string        // 전략 YAML 경로
	DataSource  string        // postgres | fixture
	FixturePath string        // DATA_SOURCE=fixture 일 때 YAML 경로
	PaperCash   int64         // 페이퍼 브로커 초기 현금
	Schedule    string        // cron 표현식 (초 단위 포함)
	TickTimeout time.Duration // 수동/예약 틱 1회 상한 (API 쓰기 타임아웃 기준)
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL        string
	RequestsPerSec float64
}

// Override adjusts the loaded config before validation (CLI 플래그 반영용)
type Override func(*Config)

// WithFixture switches the data source to a YAML fixture
func WithFixture(path string) Override {
	return func(c *Config) {
		if path == "" {
			return
		}
		c.Strategy.DataSource = DataSourceFixture
		c.Strategy.FixturePath = path
	}
}

// WithStrategyConfig overrides the strategy YAML path
func WithStrategyConfig(path string) Override {
	return func(c *Config) {
		if path != "" {
			c.Strategy.ConfigPath = path
		}
	}
}

// WithPort overrides the API port
func WithPort(port string) Override {
	return func(c *Config) {
		if port != "" {
			c.Port = port
		}
	}
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load(overrides ...Override) (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "12h"),
		},

		// Strategy
		Strategy: StrategyConfig{
			ConfigPath:  getEnv("STRATEGY_CONFIG", defaultStrategyConfig),
			DataSource:  getEnv("DATA_SOURCE", DataSourcePostgres),
			FixturePath: getEnv("FIXTURE_PATH", ""),
			PaperCash:   getEnvAsInt64("PAPER_CASH", 100_000_000),
			Schedule:    getEnv("REBALANCE_SCHEDULE", "0 0 9 1 * *"),
			TickTimeout: getEnvAsDuration("STRATEGY_TICK_TIMEOUT", "10m"),
		},

		Naver: NaverConfig{
			BaseURL:        getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			RequestsPerSec: getEnvAsFloat("NAVER_RPS", 2),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// StrategyConfigPath returns STRATEGY_CONFIG without loading the full config
func StrategyConfigPath() string {
	loadEnvFile()
	return getEnv("STRATEGY_CONFIG", defaultStrategyConfig)
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Strategy.DataSource {
	case DataSourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", DataSourcePostgres)
		}
	case DataSourceFixture:
		if c.Strategy.FixturePath == "" {
			return fmt.Errorf("FIXTURE_PATH is required when DATA_SOURCE=%s", DataSourceFixture)
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: %s, %s", DataSourcePostgres, DataSourceFixture)
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Strategy.PaperCash <= 0 {
		return fmt.Errorf("PAPER_CASH must be positive")
	}

	return nil
}

// HasDatabase reports whether a database URL is configured
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
