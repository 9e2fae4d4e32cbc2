package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded from the
// environment with an optional .env file for local development.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"notify_relay"`
	RedisURL      string `env:"REDIS_URL"`

	BotToken      string `env:"TELEGRAM_BOT_TOKEN"`
	BotAPIBaseURL string `env:"TELEGRAM_API_BASE_URL" envDefault:"https://api.telegram.org"`

	// WebhookSecret, when set, must match the X-Webhook-Secret header on
	// inbound order webhooks.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// MinOrderAmount is the order-total floor below which no
	// notifications go out. Zero disables the filter.
	MinOrderAmount float64 `env:"MIN_ORDER_AMOUNT" envDefault:"0"`

	Language   string `env:"LANGUAGE" envDefault:"tr"`
	AdminToken string `env:"ADMIN_TOKEN"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// .env file is optional, mainly for local development
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
