package config

import (
	"os"
	"strconv"
	"time"

	"ridehail/internal/domain"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Auth     AuthConfig
	Pricing  PricingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// VehicleRate is the per-class fare rate from the catalog.
type VehicleRate struct {
	BaseFare float64
	PerKm    float64
}

// PricingConfig holds the fare rate table and settlement parameters.
type PricingConfig struct {
	Rates          map[domain.VehicleType]VehicleRate
	MinimumFare    float64
	PlatformFee    float64 // fraction of the final fare, e.g. 0.10
	SearchRadiusKm float64
	AvgSpeedKmh    float64 // for duration estimates
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ridehail"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ridehail-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
			TokenTTL:  getDurationEnv("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Pricing: PricingConfig{
			Rates: map[domain.VehicleType]VehicleRate{
				domain.VehicleEconomy: {
					BaseFare: getFloatEnv("FARE_ECONOMY_BASE", 50),
					PerKm:    getFloatEnv("FARE_ECONOMY_PER_KM", 12),
				},
				domain.VehicleSUV: {
					BaseFare: getFloatEnv("FARE_SUV_BASE", 80),
					PerKm:    getFloatEnv("FARE_SUV_PER_KM", 18),
				},
				domain.VehiclePremium: {
					BaseFare: getFloatEnv("FARE_PREMIUM_BASE", 120),
					PerKm:    getFloatEnv("FARE_PREMIUM_PER_KM", 25),
				},
			},
			MinimumFare:    getFloatEnv("FARE_MINIMUM", 30),
			PlatformFee:    getFloatEnv("PLATFORM_FEE_RATE", 0.10),
			SearchRadiusKm: getFloatEnv("MATCHING_RADIUS_KM", 5),
			AvgSpeedKmh:    getFloatEnv("FARE_AVG_SPEED_KMH", 30),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
