package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pyusdscope/internal/config"
	"pyusdscope/internal/storage/postgres"
)

func runLoad(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadLoad(cfgFile, cmd.Flags())
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
	if cfg.PGDSN == "" {
		return fmt.Errorf("postgres dsn is required")
	}
	if cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be positive")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := readEvents(cfg.In, nil)
	if err != nil {
		return err
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	var resume uint64
	if cfg.StateName != "" {
		last, ok, err := store.LoadScanState(ctx, cfg.StateName)
		if err != nil {
			return err
		}
		if ok {
			resume = last
			logger.Info("resuming load",
				zap.String("state", cfg.StateName),
				zap.Uint64("last_processed_block", last),
			)
		}
	}

	var loaded int
	var highest uint64
	for start := 0; start < len(events); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(events) {
			end = len(events)
		}

		batch := events[start:end]
		if resume > 0 {
			trimmed := batch[:0:0]
			for _, ev := range batch {
				if ev.BlockNumber <= resume {
					continue
				}
				trimmed = append(trimmed, ev)
			}
			batch = trimmed
		}
		if len(batch) == 0 {
			continue
		}

		if err := store.UpsertEvents(ctx, batch); err != nil {
			return err
		}
		loaded += len(batch)
		if last := batch[len(batch)-1].BlockNumber; last > highest {
			highest = last
		}

		if cfg.StateName != "" && highest > 0 {
			if err := store.SaveScanState(ctx, cfg.StateName, highest); err != nil {
				return err
			}
		}

		logger.Info("batch loaded",
			zap.Int("events", len(batch)),
			zap.Int("total", loaded),
			zap.Uint64("highest_block", highest),
		)
	}

	if cfg.Failures != "" {
		failures, err := readFailures(cfg.Failures)
		if err != nil {
			return err
		}
		if err := store.InsertFailures(ctx, failures); err != nil {
			return err
		}
		logger.Info("failures loaded",
			zap.String("in", cfg.Failures),
			zap.Int("failures", len(failures)),
		)
	}

	logger.Info("load complete",
		zap.String("in", cfg.In),
		zap.Int("events", loaded),
	)

	return nil
}
