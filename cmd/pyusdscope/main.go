package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "pyusdscope",
		Short:        "PYUSD on-chain event scanner and analytics",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Fetch and decode token events over a block range",
		RunE:  runScan,
	}

	scanCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	scanCmd.Flags().String("contract", "", "token contract address")
	scanCmd.Flags().StringSlice("kind", []string{"transfer"}, "event kinds (transfer, mint, burn, approval)")
	scanCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	scanCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	scanCmd.Flags().Uint64("page-size", 2000, "blocks per log query")
	scanCmd.Flags().String("out", "./data/events.jsonl", "decoded events JSONL path")
	scanCmd.Flags().String("failures", "./data/decode_failures.jsonl", "decode failures JSONL path")
	scanCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to mirror events into")
	scanCmd.Flags().String("state-name", "", "scan_state row advanced while mirroring to Postgres")
	scanCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	scanCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	scanCmd.Flags().Int("max-retries", 5, "maximum retry attempts per batch")
	scanCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	scanCmd.Flags().Bool("with-timestamps", false, "enrich events with block timestamps")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export decoded events to CSV",
		RunE:  runExport,
	}

	exportCmd.Flags().String("in", "", "input decoded events JSONL")
	exportCmd.Flags().String("out", "./data/events.csv", "output CSV path")
	exportCmd.Flags().StringSlice("kind", []string{"transfer"}, "event kinds to include")
	exportCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(exportCmd)

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Aggregate decoded events into transfer-graph edges",
		RunE:  runGraph,
	}

	graphCmd.Flags().String("in", "", "input decoded events JSONL")
	graphCmd.Flags().String("out", "./data/edges.jsonl", "output edges JSONL path")
	graphCmd.Flags().StringSlice("kind", []string{"transfer"}, "event kinds to include")
	graphCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(graphCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize decoded events per block and by top addresses",
		RunE:  runStats,
	}

	statsCmd.Flags().String("in", "", "input decoded events JSONL")
	statsCmd.Flags().String("out", "", "output summary JSON path (stdout when empty)")
	statsCmd.Flags().StringSlice("kind", []string{"transfer"}, "event kinds to include")
	statsCmd.Flags().Int("top-n", 10, "top addresses to keep before rolling up")
	statsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(statsCmd)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load decoded events from JSONL into Postgres",
		RunE:  runLoad,
	}

	loadCmd.Flags().String("in", "", "input decoded events JSONL")
	loadCmd.Flags().String("failures", "", "optional decode failures JSONL to load")
	loadCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	loadCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	loadCmd.Flags().String("state-name", "loader", "scan_state row used for resume")
	loadCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(loadCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Look up a holder's token balance",
		RunE:  runBalance,
	}

	balanceCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	balanceCmd.Flags().String("contract", "", "token contract address")
	balanceCmd.Flags().String("address", "", "holder address")
	balanceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(balanceCmd)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Print token metadata",
		RunE:  runToken,
	}

	tokenCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	tokenCmd.Flags().String("contract", "", "token contract address")
	tokenCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(tokenCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
