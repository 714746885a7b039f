package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Dataset     DatasetConfig
	Geocoding   GeocodingConfig
	Redis       RedisConfig
	OTEL        OTELConfig
}

// DatasetConfig holds facility dataset configuration
type DatasetConfig struct {
	// DataDir is searched first for the facility CSV; FallbackDir second.
	DataDir     string
	FallbackDir string
	// FileNames are tried in order inside each directory.
	FileNames []string
	// GeocodedSuffix is appended to the file stem when a geocoded variant
	// is requested (e.g. facilities.csv -> facilities_geocoded.csv).
	GeocodedSuffix string
	// Country is appended to geocoding queries when the address lacks it.
	Country string
}

// GeocodingConfig holds geocoding provider configuration
type GeocodingConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RequestDelay time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Dataset: DatasetConfig{
			DataDir:     getEnv("FACILITY_DATA_DIR", "data"),
			FallbackDir: getEnv("FACILITY_FALLBACK_DIR", filepath.Join(home, "Desktop")),
			FileNames: []string{
				getEnv("FACILITY_CSV_NAME", "facilities_ghana.csv"),
				"Virtue_Foundation_Ghana_Sheet1.csv",
			},
			GeocodedSuffix: getEnv("FACILITY_GEOCODED_SUFFIX", "_geocoded"),
			Country:        getEnv("FACILITY_COUNTRY", "Ghana"),
		},
		Geocoding: GeocodingConfig{
			BaseURL:      getEnv("GEOCODE_BASE_URL", "https://geocode.maps.co/search"),
			APIKey:       getEnv("GEOCODE_API_KEY", ""),
			Timeout:      getEnvAsDuration("GEOCODE_TIMEOUT", 8*time.Second),
			RequestDelay: getEnvAsDuration("GEOCODE_REQUEST_DELAY", 1200*time.Millisecond),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "facility-insight"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
