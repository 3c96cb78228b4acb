package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// PostgresDSN enables the Postgres-backed stores; empty keeps
	// everything in memory (development and tests).
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig configures the shared schema cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the audit event producer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CADASTRE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var brokers []string
	if raw := os.Getenv("CADASTRE_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("CADASTRE_KAFKA_TOPIC")
	if topic == "" {
		topic = "cadastre.audit"
	}

	return Server{
		Addr:        addr,
		PostgresDSN: os.Getenv("CADASTRE_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("CADASTRE_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}
