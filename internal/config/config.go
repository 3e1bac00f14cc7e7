// Package config loads server and CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPAddr string `env:"RUNE_HTTP_ADDR" envDefault:":8080"          validate:"required"`
	DBPath   string `env:"RUNE_DB_PATH"   envDefault:"rune_ration.db" validate:"required"`

	CatalogDir   string `env:"RUNE_CATALOG_DIR"`
	CatalogWatch bool   `env:"RUNE_CATALOG_WATCH" envDefault:"false"`

	LogFormat string `env:"RUNE_LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel  string `env:"RUNE_LOG_LEVEL"  envDefault:"info" validate:"oneof=debug info warn error"`

	KeyringService  string `env:"RUNE_KEYRING_SERVICE"  envDefault:"rune-ration-replay"`
	SigningFallback string `env:"RUNE_SIGNING_FALLBACK"`

	ScanWorkers        int           `env:"RUNE_SCAN_WORKERS"         envDefault:"0"     validate:"gte=0,lte=256"`
	ScanTimeout        time.Duration `env:"RUNE_SCAN_TIMEOUT"         envDefault:"60s"   validate:"gt=0"`
	CampaignMaxBattles int           `env:"RUNE_CAMPAIGN_MAX_BATTLES" envDefault:"500"   validate:"gt=0"`
	ReplayInterval     time.Duration `env:"RUNE_REPLAY_INTERVAL"      envDefault:"400ms" validate:"gte=0"`
	RequestTimeout     time.Duration `env:"RUNE_REQUEST_TIMEOUT"      envDefault:"60s"   validate:"gt=0"`
}

// Load reads the given dotenv files (".env" when none are named) and then
// parses the environment. Missing dotenv files are skipped; variables already
// set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the value constraints of every field.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
