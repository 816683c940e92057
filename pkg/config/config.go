package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // .env file is optional

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return nil
}

// Config holds the configuration for a game session.
type Config struct {
	// LogLevel is the minimum severity written to the log.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// SnapshotDepth is the number of levels per side in market snapshots.
	SnapshotDepth int `env:"SNAPSHOT_DEPTH" envDefault:"10"`
	// InstrumentFile points at the YAML instrument definitions.
	InstrumentFile string `env:"INSTRUMENT_FILE" envDefault:"instruments.yaml"`
}
