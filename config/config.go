package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// App source kinds.
const (
	SourceSupportPage = "support_page"
	SourceAppStore    = "app_store"
)

// App identifies one tracked product and where its prices come from.
type App struct {
	Name    string
	Source  string // "support_page" or "app_store"
	StoreID string // App Store numeric ID, empty for support pages
}

// Config holds runtime settings plus the static scraping configuration.
type Config struct {
	DatabaseURL        string
	ExchangeRateAPIKey string
	Host               string
	Port               string
	AllowedOrigins     string

	UseBrowserFetcher bool
	FetchTimeout      time.Duration
	RateTimeout       time.Duration
	ScrapeDelay       time.Duration
	UpdateSchedule    string
	RateLimitPerSec   float64

	ReferenceCurrency string
	TargetRegions     []string
	Apps              []App
	ExcludedRegions   []string
	FallbackRates     map[string]float64
	BreakerThreshold  int
}

// TargetRegions are the App Store storefronts scraped on every run.
var TargetRegions = []string{
	"US", "CN", "JP", "GB", "DE", "AU", "CA", "IN", "BR",
	"TR", "MX", "KR", "HK", "SG", "FR", "IT", "ES",
}

// TrackedApps are the products whose subscription prices are collected.
var TrackedApps = []App{
	{Name: "iCloud+", Source: SourceSupportPage},
	{Name: "ChatGPT", Source: SourceAppStore, StoreID: "6448311069"},
	{Name: "Claude", Source: SourceAppStore, StoreID: "6473753684"},
	{Name: "Google One", Source: SourceAppStore, StoreID: "1451784328"},
}

// ExcludedRegions are storefronts whose scraped data proved too
// unreliable to publish. Items from these regions are dropped before
// conversion. AR: extreme rate volatility, EG: inconsistent page data.
var ExcludedRegions = []string{"EG", "AR"}

// FallbackRates is a static snapshot of exchange rates into the
// reference currency (CNY per one unit), used when live lookups are
// unavailable. Refreshed manually from time to time.
var FallbackRates = map[string]float64{
	"CNY": 1.0,
	"USD": 7.2454,
	"EUR": 7.8662,
	"GBP": 9.1827,
	"JPY": 0.0482,
	"CAD": 5.2331,
	"AUD": 4.7206,
	"INR": 0.0853,
	"BRL": 1.3244,
	"TRY": 0.2217,
	"MXN": 0.3921,
	"KRW": 0.0052,
	"HKD": 0.9262,
	"SGD": 5.3855,
	"CHF": 8.1612,
	"NZD": 4.3298,
	"SEK": 0.6823,
	"NOK": 0.6679,
	"DKK": 1.0545,
	"RUB": 0.0821,
	"PLN": 1.8212,
	"ZAR": 0.4017,
	"AED": 1.9726,
	"SAR": 1.9318,
	"QAR": 1.9894,
	"THB": 0.2081,
	"IDR": 0.00045,
	"MYR": 1.6260,
	"PHP": 0.1268,
	"VND": 0.00029,
	"NGN": 0.0047,
	"EGP": 0.1492,
	"ARS": 0.0056,
	"CLP": 0.0076,
	"COP": 0.0017,
	"PEN": 1.9278,
	"TWD": 0.2245,
}

// Load builds the configuration from the environment with defaults.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ExchangeRateAPIKey: os.Getenv("EXCHANGE_RATE_API_KEY"),
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		UseBrowserFetcher:  getEnvBool("SCRAPE_USE_BROWSER", false),
		FetchTimeout:       getEnvDuration("SCRAPE_FETCH_TIMEOUT", 20*time.Second),
		RateTimeout:        getEnvDuration("EXCHANGE_RATE_TIMEOUT", 15*time.Second),
		ScrapeDelay:        getEnvDuration("SCRAPE_REQUEST_DELAY", time.Second),
		UpdateSchedule:     getEnv("UPDATE_SCHEDULE", "0 0 */6 * * *"),
		RateLimitPerSec:    getEnvFloat("API_RATE_LIMIT", 10),
		ReferenceCurrency:  getEnv("REFERENCE_CURRENCY", "CNY"),
		TargetRegions:      TargetRegions,
		Apps:               TrackedApps,
		ExcludedRegions:    ExcludedRegions,
		FallbackRates:      FallbackRates,
		BreakerThreshold:   getEnvInt("RATE_FAILURE_THRESHOLD", 1),
	}

	if cfg.ExchangeRateAPIKey == "" {
		log.Println("EXCHANGE_RATE_API_KEY not set; only fallback exchange rates will be used")
	}

	return cfg
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
