package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageMode        string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	PaymentEventsTopic string
	ConsumerGroup      string
	IdempotencyBackend string
	IdempotencyTTL     time.Duration
	RedisAddr          string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	PaymentAttemptTTL  time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StorageMode:        strings.ToLower(getEnv("STORAGE_MODE", "memory")),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "gearshare"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		PaymentEventsTopic: getEnv("PAYMENT_EVENTS_TOPIC", "payment.gateway.v1"),
		ConsumerGroup:      getEnv("CONSUMER_GROUP", "gearshare-booking"),
		IdempotencyBackend: strings.ToLower(getEnv("IDEMP_BACKEND", "memory")),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
	}

	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	attemptTTL, err := parseDurationEnv("PAYMENT_ATTEMPT_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PaymentAttemptTTL = attemptTTL

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	switch cfg.StorageMode {
	case "memory", "mongo":
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_MODE %q", cfg.StorageMode)
	}
	switch cfg.IdempotencyBackend {
	case "memory", "mongo", "redis":
	default:
		return Config{}, fmt.Errorf("unknown IDEMP_BACKEND %q", cfg.IdempotencyBackend)
	}
	if cfg.StorageMode == "mongo" && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
	}
	if cfg.IdempotencyBackend == "mongo" && cfg.StorageMode != "mongo" {
		return Config{}, fmt.Errorf("IDEMP_BACKEND=mongo requires STORAGE_MODE=mongo")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
