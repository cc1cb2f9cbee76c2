/*
Package config reads server configuration from flags and environment.

PURPOSE:
  Command-line flags provide the defaults-friendly local workflow;
  environment variables override flags for containerized deployments.
*/
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the server process.
type Config struct {
	Addr              string        `env:"HOA_ADDR"`
	DBPath            string        `env:"HOA_DB_PATH"`
	BaseFee           string        `env:"HOA_BASE_FEE"`
	SchedulerInterval time.Duration `env:"HOA_SCHEDULER_INTERVAL"`
	SchedulerEnabled  bool          `env:"HOA_SCHEDULER_ENABLED"`
}

// Parse reads configuration from command-line flags and environment
// variables. Environment wins over flags.
func Parse() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Remember which variables were actually present: flag parsing
	// overwrites the fields, and a zero value ("false", "0s") set in
	// the environment must not be mistaken for unset.
	fromEnv := *cfg
	_, addrSet := os.LookupEnv("HOA_ADDR")
	_, dbPathSet := os.LookupEnv("HOA_DB_PATH")
	_, baseFeeSet := os.LookupEnv("HOA_BASE_FEE")
	_, intervalSet := os.LookupEnv("HOA_SCHEDULER_INTERVAL")
	_, schedulerSet := os.LookupEnv("HOA_SCHEDULER_ENABLED")

	fs.StringVar(&cfg.Addr, "addr", ":8080", "address and port for the HTTP server")
	fs.StringVar(&cfg.DBPath, "db", "./data/hoa.db", "SQLite database path, or :memory:")
	fs.StringVar(&cfg.BaseFee, "base-fee", "300", "base monthly due per member")
	fs.DurationVar(&cfg.SchedulerInterval, "scheduler-interval", time.Hour, "how often to run the dues scheduler")
	fs.BoolVar(&cfg.SchedulerEnabled, "scheduler", true, "run the background dues scheduler")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if addrSet {
		cfg.Addr = fromEnv.Addr
	}
	if dbPathSet {
		cfg.DBPath = fromEnv.DBPath
	}
	if baseFeeSet {
		cfg.BaseFee = fromEnv.BaseFee
	}
	if intervalSet {
		cfg.SchedulerInterval = fromEnv.SchedulerInterval
	}
	if schedulerSet {
		cfg.SchedulerEnabled = fromEnv.SchedulerEnabled
	}

	return cfg, nil
}
