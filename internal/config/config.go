package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL          string   `mapstructure:"REDIS_URL"`
	AdherenceCacheTTL int      `mapstructure:"ADHERENCE_CACHE_TTL"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `mapstructure:"RATE_LIMIT_BURST"`
	SchedulerEnabled  bool     `mapstructure:"SCHEDULER_ENABLED"`
	GenerateCron      string   `mapstructure:"GENERATE_CRON"`
	ReconcileCron     string   `mapstructure:"RECONCILE_CRON"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ADHERENCE_CACHE_TTL", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("GENERATE_CRON", "10 0 * * *")
	v.SetDefault("RECONCILE_CRON", "0 0 * * *")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("ADHERENCE_CACHE_TTL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("SCHEDULER_ENABLED")
	v.BindEnv("GENERATE_CRON")
	v.BindEnv("RECONCILE_CRON")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CacheTTL returns the adherence cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.AdherenceCacheTTL) * time.Second
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SchedulerEnabled {
		if c.GenerateCron == "" {
			return fmt.Errorf("GENERATE_CRON is required when SCHEDULER_ENABLED is true")
		}
		if c.ReconcileCron == "" {
			return fmt.Errorf("RECONCILE_CRON is required when SCHEDULER_ENABLED is true")
		}
	}
	if c.AdherenceCacheTTL < 0 {
		return fmt.Errorf("ADHERENCE_CACHE_TTL must not be negative, got %d", c.AdherenceCacheTTL)
	}
	return nil
}
