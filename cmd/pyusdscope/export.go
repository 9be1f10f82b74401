package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pyusdscope/internal/config"
	"pyusdscope/internal/storage"
)

func runExport(cmd *cobra.Command, _ []string) error {
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
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	kinds, err := parseKinds(cfg.Kinds)
	if err != nil {
		return err
	}

	events, err := readEvents(cfg.In, kinds)
	if err != nil {
		return err
	}

	if err := storage.WriteCSV(cfg.Out, events); err != nil {
		return err
	}

	logger.Info("export complete",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.Int("events", len(events)),
	)

	return nil
}
