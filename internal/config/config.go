package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSheetCSVURL is the published export of the community case sheet.
const DefaultSheetCSVURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRu1g6643MWSvcXx89zDPZ4v4lH9Qrnz-DNt7yjD-IpDcprCKroFgOt9alcXswcqC_U91Bb2MUCSu-Q/pub?gid=353964355&single=true&output=csv"

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins string

	// Optional backing services. Empty disables them.
	DatabaseURL string
	RedisURL    string

	Sheet     SheetConfig
	CoinGecko CoinGeckoConfig
	Tracing   TracingConfig
}

type SheetConfig struct {
	CSVURL          string
	Timeout         time.Duration
	CacheTTL        time.Duration
	SnapshotDir     string
	RefreshInterval time.Duration
}

type CoinGeckoConfig struct {
	BaseURL          string
	APIKey           string
	RPS              float64
	Burst            int
	Timeout          time.Duration
	CacheTTL         time.Duration
	GradeConcurrency int
	BatchMax         int
}

type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	// SampleRatio is the share of root spans kept, 0..1.
	SampleRatio float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		Sheet: SheetConfig{
			CSVURL:          getEnv("SHEET_CSV_URL", DefaultSheetCSVURL),
			Timeout:         getEnvSeconds("SHEET_TIMEOUT_SEC", 15),
			CacheTTL:        getEnvSeconds("CASES_CACHE_TTL_SEC", 60),
			SnapshotDir:     getEnv("SNAPSHOT_DIR", "data"),
			RefreshInterval: getEnvSeconds("REFRESH_INTERVAL_SEC", 60),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:          strings.TrimRight(getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"), "/"),
			APIKey:           getEnv("COINGECKO_API_KEY", ""),
			RPS:              getEnvFloat("COINGECKO_RPS", 0.5),
			Burst:            getEnvInt("COINGECKO_BURST", 3),
			Timeout:          getEnvSeconds("COINGECKO_TIMEOUT_SEC", 15),
			CacheTTL:         getEnvSeconds("GRADES_CACHE_TTL_SEC", 300),
			GradeConcurrency: getEnvInt("GRADE_CONCURRENCY", 4),
			BatchMax:         getEnvInt("GRADE_BATCH_MAX", 50),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Sheet.CSVURL == "" {
		return fmt.Errorf("SHEET_CSV_URL is required")
	}
	if c.Sheet.CacheTTL <= 0 {
		return fmt.Errorf("CASES_CACHE_TTL_SEC must be positive")
	}
	if c.Sheet.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL_SEC must not be negative")
	}
	if c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("COINGECKO_BASE_URL is required")
	}
	if c.CoinGecko.RPS <= 0 {
		return fmt.Errorf("COINGECKO_RPS must be positive")
	}
	if c.CoinGecko.Burst < 1 {
		return fmt.Errorf("COINGECKO_BURST must be at least 1")
	}
	if c.CoinGecko.GradeConcurrency < 1 {
		return fmt.Errorf("GRADE_CONCURRENCY must be at least 1")
	}
	if c.CoinGecko.BatchMax < 1 {
		return fmt.Errorf("GRADE_BATCH_MAX must be at least 1")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
