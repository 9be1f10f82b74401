package fetcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"pyusdscope/internal/erc20"
	"pyusdscope/internal/model"
)

// LogQuerier is the read-only log query capability the fetcher consumes.
// chain.Client satisfies it.
type LogQuerier interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Filter selects the logs to fetch: one contract, one event kind, one
// inclusive block range.
type Filter struct {
	Contract  common.Address
	Kind      model.EventKind
	FromBlock uint64
	ToBlock   uint64
}

// Validate checks the filter before any network call is made.
func (f Filter) Validate() error {
	if f.Contract == (common.Address{}) {
		return fmt.Errorf("contract address is required")
	}
	if f.ToBlock < f.FromBlock {
		return fmt.Errorf("to block %d must be >= from block %d", f.ToBlock, f.FromBlock)
	}
	return nil
}

// Fetcher retrieves and decodes matching logs over a block range, one
// sub-range at a time. It holds no state across calls and never retries an
// identical request; retry policy belongs to the caller.
type Fetcher struct {
	querier LogQuerier
	decoder *erc20.Decoder
	chainID uint64
	logger  *zap.Logger
}

// New builds a Fetcher.
func New(querier LogQuerier, decoder *erc20.Decoder, chainID uint64, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		querier: querier,
		decoder: decoder,
		chainID: chainID,
		logger:  logger,
	}
}

// Fetch retrieves the logs matching the filter, paging the range in
// sub-ranges of at most pageSize blocks, and decodes each entry. The result
// is ordered by block number then log index, oldest first. Entries whose
// shape does not match the event layout are reported as DecodeFailure
// records and do not abort the batch. A nil error with an empty slice means
// the range genuinely held no matching logs.
func (f *Fetcher) Fetch(ctx context.Context, filter Filter, pageSize uint64) ([]model.DecodedEvent, []model.DecodeFailure, error) {
	if f.querier == nil {
		return nil, nil, fmt.Errorf("log querier is nil")
	}
	if f.decoder == nil {
		return nil, nil, fmt.Errorf("decoder is nil")
	}
	if err := filter.Validate(); err != nil {
		return nil, nil, err
	}

	topic0, err := f.decoder.TopicFor(filter.Kind)
	if err != nil {
		return nil, nil, err
	}

	ranges, err := SplitRange(filter.FromBlock, filter.ToBlock, pageSize)
	if err != nil {
		return nil, nil, err
	}

	addresses := []common.Address{filter.Contract}
	topics := []common.Hash{topic0}

	events := make([]model.DecodedEvent, 0)
	failures := make([]model.DecodeFailure, 0)

	for _, window := range ranges {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		logs, err := f.queryWindow(ctx, window.From, window.To, addresses, topics)
		if err != nil {
			return nil, nil, err
		}

		sort.SliceStable(logs, func(i, j int) bool {
			if logs[i].BlockNumber != logs[j].BlockNumber {
				return logs[i].BlockNumber < logs[j].BlockNumber
			}
			return logs[i].Index < logs[j].Index
		})

		for _, log := range logs {
			event, err := f.decoder.Decode(filter.Kind, log, f.chainID)
			if err != nil {
				failures = append(failures, decodeFailure(f.chainID, log, err))
				continue
			}
			events = append(events, event)
		}
	}

	return events, failures, nil
}

// queryWindow issues one log query for the window. A provider rejection that
// indicates a range or result limit splits the window in half and tries each
// half, down to a single block; anything else surfaces as a ProviderError
// for the window that failed.
func (f *Fetcher) queryWindow(ctx context.Context, from, to uint64, addresses []common.Address, topics []common.Hash) ([]types.Log, error) {
	logs, err := f.querier.FilterLogs(ctx, from, to, addresses, topics)
	if err == nil {
		return logs, nil
	}
	if !isRangeLimit(err) || from == to {
		return nil, &ProviderError{From: from, To: to, Err: err}
	}

	mid := from + (to-from)/2
	f.logger.Warn("provider range limit, splitting window",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Uint64("mid", mid),
		zap.Error(err),
	)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	left, err := f.queryWindow(ctx, from, mid, addresses, topics)
	if err != nil {
		return nil, err
	}
	right, err := f.queryWindow(ctx, mid+1, to, addresses, topics)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func decodeFailure(chainID uint64, log types.Log, err error) model.DecodeFailure {
	topic0 := ""
	if len(log.Topics) > 0 {
		topic0 = log.Topics[0].Hex()
	}
	return model.DecodeFailure{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topic0:      topic0,
		Error:       err.Error(),
	}
}
