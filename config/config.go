package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// TickerMapping binds a presentation label to the provider's ticker symbol.
type TickerMapping struct {
	Label  string `yaml:"label"`
	Symbol string `yaml:"symbol"`
}

// TwitterCredentials holds the four OAuth1 values required for publishing.
// All four come from the process environment; publishing refuses to run if
// any of them is absent.
type TwitterCredentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Complete reports whether every credential value is present.
func (c TwitterCredentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

type Config struct {
	ServerPort string
	LogLevel   string
	LogFile    string

	// Data sources
	GiftNiftyURL    string
	MTFInsightURL   string
	ChartAPIBaseURL string
	FetchTimeout    time.Duration
	UseHeadless     bool

	// Rendering
	FontPath  string
	OutputDir string

	// The yfinance-backed tickers, in presentation order after GIFTNIFTY.
	Tickers []TickerMapping

	Twitter TwitterCredentials
}

// DefaultTickers is the fixed vocabulary of indices resolved through the
// chart API. GIFTNIFTY is not listed here because it comes from its own
// scraper, not the time-series provider.
func DefaultTickers() []TickerMapping {
	return []TickerMapping{
		{Label: "Nikkei 225", Symbol: "^N225"},
		{Label: "Dow Jones Futures", Symbol: "YM=F"},
		{Label: "S&P 500", Symbol: "^GSPC"},
		{Label: "Nasdaq", Symbol: "^IXIC"},
		{Label: "Hang Seng", Symbol: "^HSI"},
	}
}

// fileOverrides is the optional config.yaml shape. Only the knobs that make
// sense to change without a rebuild are exposed there.
type fileOverrides struct {
	GiftNiftyURL    string          `yaml:"gift_nifty_url"`
	MTFInsightURL   string          `yaml:"mtf_insight_url"`
	ChartAPIBaseURL string          `yaml:"chart_api_base_url"`
	FetchTimeoutSec int             `yaml:"fetch_timeout_seconds"`
	Tickers         []TickerMapping `yaml:"tickers"`
}

// LoadConfig reads configuration from the environment (with a .env file if
// present) and then applies overrides from config.yaml when that file exists.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		GiftNiftyURL:    getEnv("GIFT_NIFTY_URL", "https://groww.in/indices/global-indices/sgx-nifty"),
		MTFInsightURL:   getEnv("MTF_INSIGHT_URL", "https://scanx.trade/insight/mtf-insight"),
		ChartAPIBaseURL: getEnv("CHART_API_BASE_URL", "https://query1.finance.yahoo.com"),
		FetchTimeout:    time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 20)) * time.Second,
		UseHeadless:     getEnvBool("USE_HEADLESS_FETCHER", false),
		FontPath:        getEnv("FONT_PATH", "font/Roboto-Bold.ttf"),
		OutputDir:       getEnv("OUTPUT_DIR", "."),
		Tickers:         DefaultTickers(),
		Twitter: TwitterCredentials{
			APIKey:            getEnv("TWITTER_API_KEY", ""),
			APISecret:         getEnv("TWITTER_API_SECRET", ""),
			AccessToken:       getEnv("TWITTER_ACCESS_TOKEN", ""),
			AccessTokenSecret: getEnv("TWITTER_ACCESS_TOKEN_SECRET", ""),
		},
	}

	applyFileOverrides(cfg, getEnv("CONFIG_FILE", "config.yaml"))

	return cfg
}

// applyFileOverrides merges config.yaml into cfg when the file exists. A
// missing file is normal; a malformed one is logged and skipped rather than
// aborting startup.
func applyFileOverrides(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warnf("Could not read config file %s", path)
		}
		return
	}

	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		logrus.WithError(err).Warnf("Invalid YAML in config file %s, ignoring", path)
		return
	}

	if overrides.GiftNiftyURL != "" {
		cfg.GiftNiftyURL = overrides.GiftNiftyURL
	}
	if overrides.MTFInsightURL != "" {
		cfg.MTFInsightURL = overrides.MTFInsightURL
	}
	if overrides.ChartAPIBaseURL != "" {
		cfg.ChartAPIBaseURL = overrides.ChartAPIBaseURL
	}
	if overrides.FetchTimeoutSec > 0 {
		cfg.FetchTimeout = time.Duration(overrides.FetchTimeoutSec) * time.Second
	}
	if len(overrides.Tickers) > 0 {
		cfg.Tickers = overrides.Tickers
	}

	logrus.WithField("config_file", path).Info("Applied configuration file overrides")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %t", key, value, fallback)
		return fallback
	}
	return parsed
}
