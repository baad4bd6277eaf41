package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional, only used by the "db" price source)
	Database DatabaseConfig

	// Redis (optional, distributed rate limiter)
	Redis RedisConfig

	// External data sources
	KRX   KRXConfig
	Naver NaverConfig
	Yahoo YahooConfig

	// Analysis engine
	Analysis AnalysisConfig

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

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KRXConfig holds KRX data portal configuration
type KRXConfig struct {
	BaseURL string
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL      string
	ChartBaseURL string
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	USDKRWSymbol string
}

// Price sources for constituent prices
const (
	PriceSourceNaver = "naver"
	PriceSourceDB    = "db"
	PriceSourceYahoo = "yahoo"
)

// AnalysisConfig holds the attribution/analysis parameters
type AnalysisConfig struct {
	TopN                int           // 기여도 계산 대상 상위 종목 수
	FetchSpacing        time.Duration // 구성종목 가격 조회 최소 간격
	Concurrency         int           // 동시 조회 수 (1 = 순차)
	BenchmarkIndex      string        // KRX 지수 코드 (1001 = KOSPI)
	PriceSource         string        // naver | db | yahoo
	KeywordsFile        string        // classifier keyword YAML (empty = built-in)
	PlanFile            string        // listing-date plan YAML (empty = built-in)
	UniverseRefreshCron string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "etfscope"),
			User:            getEnv("DB_USER", "etfscope"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
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
		},

		// External data sources
		KRX: KRXConfig{
			BaseURL: getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
		},

		Naver: NaverConfig{
			BaseURL:      getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartBaseURL: getEnv("NAVER_CHART_BASE_URL", "https://fchart.stock.naver.com"),
		},

		Yahoo: YahooConfig{
			USDKRWSymbol: getEnv("YAHOO_USDKRW_SYMBOL", "KRW=X"),
		},

		Analysis: AnalysisConfig{
			TopN:                getEnvAsInt("ANALYSIS_TOP_N", 50),
			FetchSpacing:        getEnvAsDuration("ANALYSIS_FETCH_SPACING", "100ms"),
			Concurrency:         getEnvAsInt("ANALYSIS_CONCURRENCY", 1),
			BenchmarkIndex:      getEnv("ANALYSIS_BENCHMARK_INDEX", "1001"),
			PriceSource:         getEnv("PRICE_SOURCE", PriceSourceNaver),
			KeywordsFile:        getEnv("CLASSIFIER_KEYWORDS_FILE", ""),
			PlanFile:            getEnv("LISTING_DATE_PLAN_FILE", ""),
			UniverseRefreshCron: getEnv("UNIVERSE_REFRESH_CRON", "0 0 8 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Analysis.PriceSource {
	case PriceSourceNaver, PriceSourceYahoo:
	case PriceSourceDB:
		// DB 가격 소스를 쓸 때만 필수
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when PRICE_SOURCE=db")
		}
	default:
		return fmt.Errorf("PRICE_SOURCE must be one of: naver, db, yahoo")
	}

	if c.Analysis.TopN < 1 {
		return fmt.Errorf("ANALYSIS_TOP_N must be positive")
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("ANALYSIS_CONCURRENCY must be positive")
	}
	if c.Analysis.FetchSpacing < 0 {
		return fmt.Errorf("ANALYSIS_FETCH_SPACING must not be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{".env"}

	// Also try relative to executable
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
