package config

import (
	"github.com/spf13/pflag"
)

// AnalyzeConfig holds configuration shared by the export, graph, and stats
// commands, which all read a decoded-events JSONL file.
type AnalyzeConfig struct {
	In       string
	Out      string
	Kinds    []string
	TopN     int
	LogLevel string
}

// LoadAnalyze merges config file, environment variables, and flags into AnalyzeConfig.
func LoadAnalyze(cfgFile string, flags *pflag.FlagSet) (AnalyzeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"kind":      "transfer",
		"top-n":     10,
		"log-level": "info",
	})
	if err != nil {
		return AnalyzeConfig{}, err
	}

	cfg := AnalyzeConfig{
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Kinds:    getStringSlice(v, "kind"),
		TopN:     v.GetInt("top-n"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}
