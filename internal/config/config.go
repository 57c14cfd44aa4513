package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	DataPath     string
	DBPath       string
	RedisAddr    string
	GatewayKey   string
	Sandbox      bool
	IPNSecret    string
	WebhookURL   string
	PollInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		DataPath:     getEnv("DATA_PATH", "data/users.json"),
		DBPath:       getEnv("DB_PATH", "db.sqlite"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		GatewayKey:   os.Getenv("NOWPAYMENTS_API_KEY"),
		Sandbox:      os.Getenv("NOWPAYMENTS_SANDBOX") == "true",
		IPNSecret:    os.Getenv("NOWPAYMENTS_IPN_SECRET"),
		WebhookURL:   os.Getenv("WEBHOOK_URL"),
		PollInterval: getDuration("POLL_INTERVAL", 2*time.Minute),
	}

	if cfg.GatewayKey == "" || cfg.IPNSecret == "" || os.Getenv("API_KEY") == "" {
		log.Fatal("Missing critical environment variables")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
