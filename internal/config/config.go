// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. Optional integrations (MySQL,
// Redis, RabbitMQ) are enabled by setting their connection variables; the
// service falls back to in-process implementations otherwise, which is the
// intended single-instance deployment for one event.
type Config struct {
	Env       string // application environment (dev/prod)
	Port      string // HTTP port to listen on
	JWTSecret string // secret used to sign bidder session tokens

	IncrementStep int64         // minimum raise over the current highest bid
	AuctionOpen   bool          // initial open flag for the in-memory store
	AuctionTTL    time.Duration // time until the auction ends, from startup

	DBUser string // MySQL settings; DBHost empty -> in-memory store
	DBPass string
	DBHost string
	DBPort string
	DBName string

	RedisAddr string // non-empty -> shared-store rate limiter
	RabbitURL string // non-empty -> AMQP outbid notifier
}

// Load reads configuration from the environment, applying defaults suitable
// for local development.
func Load() Config {
	return Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "8080"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret"),
		IncrementStep: envInt64("BID_INCREMENT", 100),
		AuctionOpen:   getenv("AUCTION_OPEN", "true") == "true",
		AuctionTTL:    envDur("AUCTION_TTL", 72*time.Hour),
		DBUser:        os.Getenv("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        getenv("DB_PORT", "3306"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
		return n
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}
