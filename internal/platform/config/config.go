package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean.
type Server struct {
	Addr           string
	StoreBackend   string // "memory" or "postgres"
	GrantBackend   string // "memory", "postgres", or "redis"
	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   []string
	KafkaTopic     string
	SeedDemoData   bool
	RequestTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:           getenv("DATAPORTAL_ADDR", ":8080"),
		StoreBackend:   getenv("DATAPORTAL_STORE", "memory"),
		GrantBackend:   getenv("DATAPORTAL_GRANT_STORE", ""),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaTopic:     getenv("AUDIT_KAFKA_TOPIC", "dataportal.audit"),
		SeedDemoData:   os.Getenv("SEED_DEMO_DATA") == "true",
		RequestTimeout: 30 * time.Second,
	}
	if cfg.GrantBackend == "" {
		// Grants follow the main store unless overridden.
		cfg.GrantBackend = cfg.StoreBackend
	}
	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
