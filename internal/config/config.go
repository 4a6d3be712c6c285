package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Remote API
	APIBaseURL string
	WSURL      string

	// Guest snapshot storage
	StorageDir string

	// Derived summary
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal

	// Client-side sync throttling
	SyncRateLimit int
	SyncBurst     int

	// Stub server
	Port string

	Env string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080"),
		WSURL:         getEnv("WS_URL", ""),
		StorageDir:    getEnv("STORAGE_DIR", defaultStorageDir()),
		SyncRateLimit: getEnvInt("SYNC_RATE_LIMIT", 60),
		SyncBurst:     getEnvInt("SYNC_BURST", 10),
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
	}

	var err error
	if cfg.FreeShippingThreshold, err = getEnvDecimal("FREE_SHIPPING_THRESHOLD", "999"); err != nil {
		return nil, err
	}
	if cfg.ShippingFee, err = getEnvDecimal("SHIPPING_FEE", "49"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("STORAGE_DIR is required")
	}
	if c.SyncRateLimit <= 0 {
		return fmt.Errorf("SYNC_RATE_LIMIT must be positive")
	}
	if c.SyncBurst <= 0 {
		return fmt.Errorf("SYNC_BURST must be positive")
	}
	if c.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("FREE_SHIPPING_THRESHOLD must not be negative")
	}
	if c.ShippingFee.IsNegative() {
		return fmt.Errorf("SHIPPING_FEE must not be negative")
	}
	return nil
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cartsync"
	}
	return filepath.Join(home, ".cartsync")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", key, err)
	}
	return d, nil
}
