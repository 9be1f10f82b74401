package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pyusdscope/internal/config"
	"pyusdscope/internal/stats"
)

func runStats(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAnalyze(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}

	kinds, err := parseKinds(cfg.Kinds)
	if err != nil {
		return err
	}

	events, err := readEvents(cfg.In, kinds)
	if err != nil {
		return err
	}

	summary, err := stats.Summarize(events, cfg.TopN)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')

	if cfg.Out == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(cfg.Out, data, 0o644); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	logger.Info("stats complete",
		zap.String("in", cfg.In),
		zap.Int("events", summary.EventCount),
		zap.Uint64("first_block", summary.FirstBlock),
		zap.Uint64("last_block", summary.LastBlock),
	)

	return nil
}
