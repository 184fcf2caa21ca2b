package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Transfer validation policies. The ledger core works without any of
	// them; they exist as explicit toggles because the intended policy for
	// self-transfers, currency mixing, and non-active accounts is an open
	// product question.
	RejectSelfTransfer   bool `env:"REJECT_SELF_TRANSFER" envDefault:"true"`
	EnforceCurrencyMatch bool `env:"ENFORCE_CURRENCY_MATCH" envDefault:"true"`
	EnforceAccountStatus bool `env:"ENFORCE_ACCOUNT_STATUS" envDefault:"true"`

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
