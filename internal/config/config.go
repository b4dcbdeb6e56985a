// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Cache     CacheConfig
	Alerts    AlertConfig
	Log       LogConfig
	Scoring   ScoringConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         int
	FetchTimeout time.Duration
}

type StoreConfig struct {
	Driver   string
	MongoURI string
	MongoDB  string
	DSN      string
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type AlertConfig struct {
	Transport       string
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
	KafkaBrokers    []string
	KafkaTopic      string
}

type LogConfig struct {
	Level  string
	Format string
}

type ScoringConfig struct {
	ModelVersion string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getIntEnv("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	fetchTimeout, err := getIntEnv("FETCH_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %w", err)
	}
	cacheTTL, err := getIntEnv("CACHE_TTL_SECONDS", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_SECONDS: %w", err)
	}
	rateRequests, err := getIntEnv("RATE_LIMIT_REQUESTS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}
	rateWindow, err := getIntEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %w", err)
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", DriverMongo))
	if driver != DriverMongo && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			FetchTimeout: time.Duration(fetchTimeout) * time.Second,
		},
		Store: StoreConfig{
			Driver:   driver,
			MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:  getEnv("MONGO_DB", "hsse"),
			DSN:      getEnv("DB_DSN", ""),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      time.Duration(cacheTTL) * time.Second,
		},
		Alerts: AlertConfig{
			Transport:       getEnv("ALERT_TRANSPORT", "none"),
			MQTTBroker:      getEnv("MQTT_BROKER", "tcp://localhost:1883"),
			MQTTClientID:    getEnv("MQTT_CLIENT_ID", "hsse-asset-health"),
			MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "hsse/assets"),
			KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			KafkaTopic:      getEnv("KAFKA_TOPIC", "asset-health-alerts"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Scoring: ScoringConfig{
			ModelVersion: getEnv("MODEL_VERSION", ""),
		},
		RateLimit: RateLimitConfig{
			Requests:      rateRequests,
			WindowSeconds: rateWindow,
		},
	}

	if cfg.Store.Driver == DriverPostgres && cfg.Store.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is required when STORE_DRIVER=postgres")
	}

	return cfg, nil
}

// ConfigureLogging applies the level and format to the standard logrus logger.
func ConfigureLogging(c LogConfig) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
