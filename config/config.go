package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the gateway configuration.
type Config struct {
	APIBaseURL         string        // ShotPay backend base URL
	Port               string        // Gateway listen port
	UpstreamURL        string        // Storefront origin the gateway proxies to
	AccessTokenCookie  string        // Cookie carrying the access token
	RefreshTokenCookie string        // Cookie carrying the refresh token
	RequestTimeout     time.Duration // Per-attempt timeout for backend calls
	RefreshTokenDir    string        // Directory for the persisted refresh token
	RateLimitPerSec    float64       // Allowed requests per second per IP
	RateLimitBurst     int           // Burst size per IP
}

// Load reads configuration from environment variables with local-development
// defaults.
func Load() (*Config, error) {
	config := &Config{
		APIBaseURL:         getEnv("SHOTPAY_API_URL", "http://localhost:3001/api/v1"),
		Port:               getEnv("PORT", "8889"),
		UpstreamURL:        getEnv("UPSTREAM_URL", "http://localhost:3000"),
		AccessTokenCookie:  getEnv("ACCESS_TOKEN_COOKIE", "shotpay_access_token"),
		RefreshTokenCookie: getEnv("REFRESH_TOKEN_COOKIE", "shotpay_refresh_token"),
		RequestTimeout:     30 * time.Second,
		RefreshTokenDir:    getEnv("REFRESH_TOKEN_DIR", "/var/lib/shotpay-gateway"),
		RateLimitPerSec:    20,
		RateLimitBurst:     40,
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		duration, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT format: %w", err)
		}
		config.RequestTimeout = duration
	}

	if rpsStr := os.Getenv("RATE_LIMIT_PER_SEC"); rpsStr != "" {
		rps, err := strconv.ParseFloat(rpsStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SEC format: %w", err)
		}
		config.RateLimitPerSec = rps
	}

	if burstStr := os.Getenv("RATE_LIMIT_BURST"); burstStr != "" {
		burst, err := strconv.Atoi(burstStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST format: %w", err)
		}
		config.RateLimitBurst = burst
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("SHOTPAY_API_URL cannot be empty")
	}

	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.UpstreamURL == "" {
		return fmt.Errorf("UPSTREAM_URL cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.RateLimitPerSec <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SEC must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
