package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Redis
	RedisURL   string
	SessionTTL time.Duration

	// Kafka
	KafkaBrokers     string
	OrderEventsTopic string

	// API Configuration
	APIPort     string
	APIHost     string
	CORSOrigins []string

	// Auth
	AuthProvider       string
	SupabaseProjectRef string
	SupabaseAnonKey    string

	// AI assistant
	GeminiAPIKey string
	GeminiModel  string

	// Payment simulation
	PaymentLatency     time.Duration
	PaymentTimeout     time.Duration
	PaymentDeclineRate float64

	// Catalog
	CatalogPath string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "sqlite://storefront.db"),
		RedisURL:           getEnv("REDIS_URL", ""),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		KafkaBrokers:       getEnv("KAFKA_BROKERS", ""),
		OrderEventsTopic:   getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "0.0.0.0"),
		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"*"}),
		AuthProvider:       getEnv("AUTH_PROVIDER", "local"),
		SupabaseProjectRef: getEnv("SUPABASE_PROJECT_REF", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		PaymentLatency:     getEnvAsDuration("PAYMENT_LATENCY", 4*time.Second),
		PaymentTimeout:     getEnvAsDuration("PAYMENT_TIMEOUT", 30*time.Second),
		PaymentDeclineRate: getEnvAsFloat("PAYMENT_DECLINE_RATE", 0.05),
		CatalogPath:        getEnv("CATALOG_PATH", ""),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}, nil
}

// KafkaBrokerList splits KAFKA_BROKERS on commas. An empty list disables order events.
func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("4s") or a bare number of milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if ms := getEnvAsInt(key, -1); ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if list := splitList(os.Getenv(key)); len(list) > 0 {
		return list
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
