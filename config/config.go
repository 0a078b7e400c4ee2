package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // SCHEDULE_TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"

	"equityDayBot/internal/adapters/logger" // Import the logger package for LogLevel
	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// Supported market data providers.
const (
	ProviderAlpaca  = "alpaca"
	ProviderBinance = "binance"
	ProviderCSV     = "csv"
)

// DefaultWatchlist is used when neither WATCHLIST nor the run event names symbols.
var DefaultWatchlist = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"}

var knownStrategies = map[string]bool{
	"gap_down":       true,
	"momentum":       true,
	"low_volatility": true,
}

// Config holds all application configuration.
type Config struct {
	// Alpaca API
	AlpacaAPIKey    string
	AlpacaAPISecret string
	PaperTrading    bool

	// Run Parameters
	DryRun     bool
	Watchlist  []string
	RunTimeout time.Duration

	// Strategy Parameters
	Strategy                string
	CashAllocationPercent   float64 // Fraction of available cash per trade, in (0, 1]
	LookbackDays            int     // Bars averaged for the gap-down range
	MomentumLookbackDays    int
	MomentumMinGainPercent  float64
	LowVolatilityMaxPercent float64

	// Market Data
	DataProvider        string
	DataFeed            string // Alpaca feed: iex or sip
	CSVDataDir          string
	DataMaxRetries      int
	RetryDelay          time.Duration
	PrefetchConcurrency int // 0 disables prefetching

	// Binance API (crypto watchlists)
	BinanceAPIKey    string
	BinanceAPISecret string
	IsTestnet        bool

	// Offline runs (csv data without broker credentials)
	OfflineBuyingPower float64

	// Journal
	JournalDBPath string // Empty disables the run journal

	// Logging
	LogLevel logger.LogLevel

	// Daemon
	ScheduleCron     string
	ScheduleLocation *time.Location
	HTTPAddr         string
	HTTPAPIToken     string // Bearer token for /v1; empty limits HTTP runs to dry runs
}

// HasBrokerCredentials reports whether both Alpaca keys are present.
func (c *Config) HasBrokerCredentials() bool {
	return c.AlpacaAPIKey != "" && c.AlpacaAPISecret != ""
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Alpaca API
	cfg.AlpacaAPIKey = getEnv("ALPACA_API_KEY", "")
	cfg.AlpacaAPISecret = getEnv("ALPACA_API_SECRET", "")
	cfg.PaperTrading = getEnvAsBool("PAPER_TRADING", true) // Default to paper for safety
	cfg.DryRun = getEnvAsBool("DRY_RUN", true)

	cfg.DataProvider = strings.ToLower(getEnv("DATA_PROVIDER", ProviderAlpaca))
	switch cfg.DataProvider {
	case ProviderAlpaca, ProviderBinance, ProviderCSV:
	default:
		errs = append(errs, fmt.Sprintf("unknown DATA_PROVIDER %q (expected alpaca, binance or csv)", cfg.DataProvider))
	}

	// Offline csv dry runs are the only mode that can work without broker keys.
	if cfg.DataProvider != ProviderCSV || !cfg.DryRun {
		if cfg.AlpacaAPIKey == "" {
			errs = append(errs, "ALPACA_API_KEY must be set")
		}
		if cfg.AlpacaAPISecret == "" {
			errs = append(errs, "ALPACA_API_SECRET must be set")
		}
	}

	cfg.Watchlist = domain.SplitSymbols(getEnv("WATCHLIST", ""))
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = append([]string(nil), DefaultWatchlist...)
	}

	runTimeoutSeconds, err := getEnvAsIntRequired("RUN_TIMEOUT_SECONDS", 60)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RUN_TIMEOUT_SECONDS: %v", err))
	} else if runTimeoutSeconds <= 0 {
		errs = append(errs, "RUN_TIMEOUT_SECONDS must be positive")
	}
	cfg.RunTimeout = time.Duration(runTimeoutSeconds) * time.Second

	// Strategy Parameters
	cfg.Strategy = strings.ToLower(getEnv("STRATEGY", "gap_down"))
	if !knownStrategies[cfg.Strategy] {
		errs = append(errs, fmt.Sprintf("unknown STRATEGY %q", cfg.Strategy))
	}

	cfg.CashAllocationPercent, err = getEnvAsFloatRequired("CASH_ALLOCATION_PERCENT", 0.05)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CASH_ALLOCATION_PERCENT: %v", err))
	} else if math.IsNaN(cfg.CashAllocationPercent) || cfg.CashAllocationPercent <= 0 || cfg.CashAllocationPercent > 1.0 {
		errs = append(errs, "CASH_ALLOCATION_PERCENT must be in (0.0, 1.0]")
	}

	cfg.LookbackDays, err = getEnvAsIntRequired("LOOKBACK_DAYS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOOKBACK_DAYS: %v", err))
	} else if cfg.LookbackDays < 1 {
		errs = append(errs, "LOOKBACK_DAYS must be at least 1")
	}

	cfg.MomentumLookbackDays = getEnvAsInt("MOMENTUM_LOOKBACK_DAYS", 5)
	if cfg.MomentumLookbackDays < 1 {
		errs = append(errs, "MOMENTUM_LOOKBACK_DAYS must be at least 1")
	}
	cfg.MomentumMinGainPercent = getEnvAsFloat("MOMENTUM_MIN_GAIN_PERCENT", 2.0)
	cfg.LowVolatilityMaxPercent = getEnvAsFloat("LOW_VOLATILITY_MAX_PERCENT", 2.0)
	if cfg.LowVolatilityMaxPercent <= 0 {
		errs = append(errs, "LOW_VOLATILITY_MAX_PERCENT must be positive")
	}

	// Market Data
	cfg.DataFeed = strings.ToLower(getEnv("DATA_FEED", "iex"))
	cfg.CSVDataDir = getEnv("CSV_DATA_DIR", "./data/bars")

	cfg.DataMaxRetries, err = getEnvAsIntRequired("DATA_MAX_RETRIES", 3)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DATA_MAX_RETRIES: %v", err))
	} else if cfg.DataMaxRetries < 0 {
		errs = append(errs, "DATA_MAX_RETRIES cannot be negative")
	}

	retryDelayMs := getEnvAsInt("RETRY_DELAY_MS", 500)
	if retryDelayMs <= 0 {
		errs = append(errs, "RETRY_DELAY_MS must be positive")
	}
	cfg.RetryDelay = time.Duration(retryDelayMs) * time.Millisecond

	cfg.PrefetchConcurrency = getEnvAsInt("PREFETCH_CONCURRENCY", 0)
	if cfg.PrefetchConcurrency < 0 {
		errs = append(errs, "PREFETCH_CONCURRENCY cannot be negative")
	}

	// Binance API
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceAPISecret = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true)

	cfg.OfflineBuyingPower, err = getEnvAsFloatRequired("OFFLINE_BUYING_POWER", 100000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid OFFLINE_BUYING_POWER: %v", err))
	} else if cfg.OfflineBuyingPower < 0 {
		errs = append(errs, "OFFLINE_BUYING_POWER cannot be negative")
	}

	// Journal
	cfg.JournalDBPath = getEnv("JOURNAL_DB_PATH", "")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Daemon
	cfg.ScheduleCron = getEnv("SCHEDULE_CRON", "0 35 9 * * 1-5")
	tz := getEnv("SCHEDULE_TIMEZONE", "America/New_York")
	cfg.ScheduleLocation, err = time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SCHEDULE_TIMEZONE %q: %v", tz, err))
	}
	cfg.HTTPAddr = getEnv("HTTP_ADDR", "127.0.0.1:8080")
	cfg.HTTPAPIToken = getEnv("HTTP_API_TOKEN", "")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: configuration validation failed: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
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

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("non-finite float value '%s' for key %s", valueStr, key)
	}
	return value, nil
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
