package config

import (
	"errors"
	"os"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr           string
	JWTSigningKey  string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Geocoding GeocodingConfig
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory store.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis connection settings. An empty URL disables the
// geocode cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the audit event sink settings. Empty brokers disable the
// Kafka sink.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// GeocodingConfig holds the reverse-geocoding upstream settings.
type GeocodingConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("GATEHOUSE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "gatehouse"
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "gatehouse.audit"
	}

	baseURL := os.Getenv("GEOCODING_BASE_URL")
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	}

	return Config{
		Addr:           addr,
		JWTSigningKey:  jwtSigningKey,
		JWTIssuer:      issuer,
		AccessTokenTTL: durationEnv("ACCESS_TOKEN_TTL", time.Hour),
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   topic,
		},
		Geocoding: GeocodingConfig{
			APIKey:   os.Getenv("GEOCODING_API_KEY"),
			BaseURL:  baseURL,
			CacheTTL: durationEnv("GEOCODING_CACHE_TTL", 24*time.Hour),
		},
	}
}

// Validate rejects configurations the process cannot run with. A missing
// geocoding credential is a startup fault, not a per-request one.
func (c Config) Validate() error {
	if c.Geocoding.APIKey == "" {
		return errors.New("GEOCODING_API_KEY is required")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
