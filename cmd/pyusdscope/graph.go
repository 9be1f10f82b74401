package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pyusdscope/internal/config"
	"pyusdscope/internal/graph"
)

func runGraph(cmd *cobra.Command, _ []string) error {
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

	builder := graph.NewBuilder()
	for _, event := range events {
		if err := builder.Add(event); err != nil {
			return err
		}
	}

	writer, err := newJSONLWriter(cfg.Out)
	if err != nil {
		return err
	}
	defer writer.Close()

	edges := builder.Edges()
	for _, edge := range edges {
		if err := writer.Write(edge); err != nil {
			return err
		}
	}

	logger.Info("graph complete",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.Int("events", len(events)),
		zap.Int("edges", len(edges)),
	)

	return writer.Close()
}
