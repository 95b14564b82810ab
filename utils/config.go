package utils

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/config"
)

type Config struct {
	DomainName        string
	GracePeriod       time.Duration
	TickInterval      time.Duration
	AITakeoverEnabled bool
	AllowedOrigins    []string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using process environment")
	}

	cfg := &Config{
		DomainName:        os.Getenv("DOMAIN_NAME"),
		GracePeriod:       config.DefaultGracePeriod,
		TickInterval:      config.DefaultTickInterval,
		AITakeoverEnabled: os.Getenv("AI_TAKEOVER_ENABLED") == "true",
		AllowedOrigins:    []string{"*"},
	}

	if v := os.Getenv("GRACE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GRACE_PERIOD %q: %w", v, err)
		}
		cfg.GracePeriod = d
	}

	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TICK_INTERVAL %q: %w", v, err)
		}
		cfg.TickInterval = d
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the presence timing invariant: the monitor must tick
// strictly more often than the grace period, otherwise an expired
// participant could sit undetected for a full extra tick.
func (c *Config) Validate() error {
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive, got %s", c.GracePeriod)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.TickInterval >= c.GracePeriod {
		return fmt.Errorf("tick interval (%s) must be shorter than grace period (%s)", c.TickInterval, c.GracePeriod)
	}
	return nil
}
