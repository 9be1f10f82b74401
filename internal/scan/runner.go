package scan

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pyusdscope/internal/erc20"
	"pyusdscope/internal/fetcher"
	"pyusdscope/internal/model"
	"pyusdscope/internal/storage"
)

// ChainSource is the chain capability the runner consumes. chain.Client
// satisfies it.
type ChainSource interface {
	fetcher.LogQuerier
	ChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// RunConfig holds runtime settings for a scan.
type RunConfig struct {
	Contract          common.Address
	Kinds             []model.EventKind
	FromBlock         uint64
	ToBlock           uint64
	PageSize          uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	WithTimestamps    bool
}

// Runner drives the fetch pipeline over a block window: it resolves the
// window, resumes from a checkpoint, fetches and decodes batch by batch, and
// hands results to storage.
type Runner struct {
	cfg        RunConfig
	chain      ChainSource
	storage    storage.Storage
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainSource ChainSource, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainSource,
		storage:    storageSink,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the scan loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain source is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.PageSize == 0 {
		return fmt.Errorf("page size must be greater than zero")
	}
	if len(r.cfg.Kinds) == 0 {
		return fmt.Errorf("at least one event kind is required")
	}
	if r.cfg.Contract == (common.Address{}) {
		return fmt.Errorf("contract address is required")
	}

	chainID, err := r.chain.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	decoder, err := erc20.NewDecoder()
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	logFetcher := fetcher.New(r.chain, decoder, chainID.Uint64(), r.logger)

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	contractHex := r.cfg.Contract.Hex()
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.Contract == contractHex && cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			r.logger.Info("resume from checkpoint",
				zap.Uint64("last_processed", cp.LastProcessedBlock),
				zap.Uint64("from", from),
			)
		}
	}

	if from > to {
		r.logger.Info("nothing to scan", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	batches, err := fetcher.SplitRange(from, to, r.cfg.PageSize)
	if err != nil {
		return err
	}

	for _, batch := range batches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("scan batch", zap.Uint64("from", batch.From), zap.Uint64("to", batch.To))

		events, failures, err := r.fetchBatch(ctx, logFetcher, batch)
		if err != nil {
			return fmt.Errorf("fetch batch %d-%d: %w", batch.From, batch.To, err)
		}

		if r.cfg.WithTimestamps {
			if err := r.enrichTimestamps(ctx, events); err != nil {
				return err
			}
		}

		if err := r.storage.PutEventBatch(events); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		if err := r.storage.PutFailureBatch(failures); err != nil {
			return fmt.Errorf("store failures: %w", err)
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(contractHex, batch.To); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete",
			zap.Int("events", len(events)),
			zap.Int("failures", len(failures)),
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
		)
	}

	return nil
}

// fetchBatch fetches every configured kind over one batch window and merges
// the results back into block-then-log-index order.
func (r *Runner) fetchBatch(ctx context.Context, logFetcher *fetcher.Fetcher, batch fetcher.BlockRange) ([]model.DecodedEvent, []model.DecodeFailure, error) {
	var events []model.DecodedEvent
	var failures []model.DecodeFailure

	for _, kind := range r.cfg.Kinds {
		filter := fetcher.Filter{
			Contract:  r.cfg.Contract,
			Kind:      kind,
			FromBlock: batch.From,
			ToBlock:   batch.To,
		}

		var kindEvents []model.DecodedEvent
		var kindFailures []model.DecodeFailure
		err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			var err error
			kindEvents, kindFailures, err = logFetcher.Fetch(ctx, filter, r.cfg.PageSize)
			if err != nil {
				r.logger.Warn("fetch failed",
					zap.String("kind", string(kind)),
					zap.Uint64("from", batch.From),
					zap.Uint64("to", batch.To),
					zap.Error(err),
				)
			}
			return err
		})
		if err != nil {
			return nil, nil, err
		}

		events = append(events, kindEvents...)
		failures = append(failures, kindFailures...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	return events, failures, nil
}

func (r *Runner) enrichTimestamps(ctx context.Context, events []model.DecodedEvent) error {
	for i := range events {
		ts, err := r.chain.BlockTimestamp(ctx, events[i].BlockNumber)
		if err != nil {
			return fmt.Errorf("block timestamp %d: %w", events[i].BlockNumber, err)
		}
		events[i].Timestamp = ts
	}
	return nil
}
