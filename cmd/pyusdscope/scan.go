package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pyusdscope/internal/chain"
	"pyusdscope/internal/config"
	"pyusdscope/internal/model"
	"pyusdscope/internal/scan"
	"pyusdscope/internal/storage"
	"pyusdscope/internal/storage/postgres"
)

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadScan(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	contract, err := parseContract(cfg.Contract)
	if err != nil {
		return err
	}

	kinds, err := parseKinds(cfg.Kinds)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var storageSink storage.Storage = storage.NewJsonlStorage(cfg.Out, cfg.Failures)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		storageSink = storage.Multi{storageSink, postgres.NewSink(ctx, store, cfg.StateName)}
	}

	runner := scan.NewRunner(scan.RunConfig{
		Contract:          contract,
		Kinds:             kinds,
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		PageSize:          cfg.PageSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		WithTimestamps:    cfg.WithTimestamps,
	}, chainClient, storageSink, logger)

	logger.Info("scan start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("contract", contract.Hex()),
		zap.Int("kinds", len(kinds)),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("page_size", cfg.PageSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}

func parseContract(input string) (common.Address, error) {
	if input == "" {
		return common.Address{}, fmt.Errorf("contract address is required")
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid contract address: %s", input)
	}
	return common.HexToAddress(input), nil
}

func parseKinds(inputs []string) ([]model.EventKind, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one event kind is required")
	}
	kinds := make([]model.EventKind, 0, len(inputs))
	seen := make(map[model.EventKind]struct{}, len(inputs))
	for _, input := range inputs {
		kind, err := model.ParseEventKind(input)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[kind]; ok {
			continue
		}
		seen[kind] = struct{}{}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
