package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                int    `env:"PORT" envDefault:"8080"`
	BotToken            string `env:"BOT_TOKEN,required"`
	DatabaseURL         string `env:"DATABASE_URL,required"`
	RedisURL            string `env:"REDIS_URL,required"`
	MainChatID          int64  `env:"MAIN_CHAT_ID,required"`
	GuardChatID         int64  `env:"GUARD_CHAT_ID,required"`
	OwnerID             int64  `env:"OWNER_ID,required"`
	Timezone            string `env:"TZ" envDefault:"Asia/Tehran"`
	WebhookSecret       string `env:"WEBHOOK_SECRET"`
	IdleTimeoutSeconds  int    `env:"IDLE_TIMEOUT_SECONDS" envDefault:"300"`
	SweepIntervalSecs   int    `env:"SWEEP_INTERVAL_SECONDS" envDefault:"60"`
	PokeIntervalSeconds int    `env:"POKE_INTERVAL_SECONDS" envDefault:"1800"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}

func (c *Config) PokeInterval() time.Duration {
	return time.Duration(c.PokeIntervalSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if c.IdleTimeoutSeconds <= 0 {
		return fmt.Errorf("IDLE_TIMEOUT_SECONDS must be positive, got %d", c.IdleTimeoutSeconds)
	}
	if c.SweepIntervalSecs <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive, got %d", c.SweepIntervalSecs)
	}
	if c.SweepIntervalSecs > c.IdleTimeoutSeconds {
		log.Warn().
			Int("sweep_seconds", c.SweepIntervalSecs).
			Int("idle_seconds", c.IdleTimeoutSeconds).
			Msg("sweep interval is longer than the idle timeout: idle sessions will overstay")
	}
	if c.WebhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET is empty: webhook endpoint will accept unauthenticated updates")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TZ %q: %w", c.Timezone, err)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
