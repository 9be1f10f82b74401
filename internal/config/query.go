package config

import (
	"github.com/spf13/pflag"
)

// QueryConfig holds configuration for the balance and token commands.
type QueryConfig struct {
	RPCURL   string
	Contract string
	Address  string
	LogLevel string
}

// LoadQuery merges config file, environment variables, and flags into QueryConfig.
func LoadQuery(cfgFile string, flags *pflag.FlagSet) (QueryConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"log-level": "info",
	})
	if err != nil {
		return QueryConfig{}, err
	}

	cfg := QueryConfig{
		RPCURL:   v.GetString("rpc"),
		Contract: v.GetString("contract"),
		Address:  v.GetString("address"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}
