package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pyusdscope/internal/chain"
	"pyusdscope/internal/config"
	"pyusdscope/internal/token"
)

func runToken(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuery(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, closeClient, err := newReader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient()

	info, err := reader.Info(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token info: %w", err)
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}

func runBalance(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuery(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !common.IsHexAddress(cfg.Address) {
		return fmt.Errorf("invalid holder address %q", cfg.Address)
	}
	holder := common.HexToAddress(cfg.Address)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, closeClient, err := newReader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient()

	info, err := reader.Info(ctx)
	if err != nil {
		return err
	}
	balance, err := reader.BalanceOf(ctx, holder)
	if err != nil {
		return err
	}

	out := struct {
		Address  string `json:"address"`
		Token    string `json:"token"`
		Symbol   string `json:"symbol"`
		Balance  string `json:"balance"`
		Decimals uint8  `json:"decimals"`
		Display  string `json:"display"`
	}{
		Address:  holder.Hex(),
		Token:    info.Address,
		Symbol:   info.Symbol,
		Balance:  balance.String(),
		Decimals: info.Decimals,
		Display:  token.FormatUnits(balance, info.Decimals),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal balance: %w", err)
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}

func newReader(ctx context.Context, cfg config.QueryConfig, logger *zap.Logger) (*token.Reader, func(), error) {
	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url is required")
	}
	contract, err := parseContract(cfg.Contract)
	if err != nil {
		return nil, nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, err
	}

	return token.NewReader(client, contract, logger), client.Close, nil
}
