package config

import (
	"github.com/spf13/pflag"
)

// LoadConfig holds configuration for the load command, which copies decoded
// events from JSONL into Postgres.
type LoadConfig struct {
	In        string
	Failures  string
	PGDSN     string
	BatchSize int
	StateName string
	LogLevel  string
}

// LoadLoad merges config file, environment variables, and flags into LoadConfig.
func LoadLoad(cfgFile string, flags *pflag.FlagSet) (LoadConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size": 1000,
		"state-name": "loader",
		"log-level":  "info",
	})
	if err != nil {
		return LoadConfig{}, err
	}

	cfg := LoadConfig{
		In:        v.GetString("in"),
		Failures:  v.GetString("failures"),
		PGDSN:     v.GetString("pg-dsn"),
		BatchSize: v.GetInt("batch-size"),
		StateName: v.GetString("state-name"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}
