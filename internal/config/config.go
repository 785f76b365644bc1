package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// ClubStartedAt anchors joining-offset math; members who joined after
	// this date owe a catch-up offset per elapsed month.
	ClubStartedAt     time.Time `env:"CLUB_STARTED_AT" envDefault:"2020-09-01T00:00:00Z"`
	MonthlyOffsetUnit int64     `env:"MONTHLY_OFFSET_UNIT" envDefault:"0"`

	// Business parameter confirmed with the club owner, not derived here.
	LoanInterestMonthlyPct float64 `env:"LOAN_INTEREST_MONTHLY_PCT" envDefault:"0.01"`

	RecalcWorkers  int `env:"RECALC_WORKERS" envDefault:"8"`
	RecalcLockTTLS int `env:"RECALC_LOCK_TTL_S" envDefault:"120"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
