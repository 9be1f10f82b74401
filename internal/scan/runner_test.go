package scan

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"pyusdscope/internal/erc20"
	"pyusdscope/internal/model"
)

var testContract = common.HexToAddress("0x6c3ea9036406852006290770bedfcaba0e23a0e8")

type fakeChain struct {
	logs        []types.Log
	latest      uint64
	filterCalls int
	failFirst   int
}

func (c *fakeChain) FilterLogs(_ context.Context, from, to uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	c.filterCalls++
	if c.filterCalls <= c.failFirst {
		return nil, errors.New("temporarily unavailable")
	}

	matched := make([]types.Log, 0)
	for _, log := range c.logs {
		if log.BlockNumber < from || log.BlockNumber > to {
			continue
		}
		if len(addresses) > 0 && log.Address != addresses[0] {
			continue
		}
		if len(topic0) > 0 && len(log.Topics) > 0 && log.Topics[0] != topic0[0] {
			continue
		}
		matched = append(matched, log)
	}
	return matched, nil
}

func (c *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (c *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return c.latest, nil
}

func (c *fakeChain) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return number * 10, nil
}

type memStorage struct {
	events   []model.DecodedEvent
	failures []model.DecodeFailure
}

func (s *memStorage) PutEventBatch(events []model.DecodedEvent) error {
	s.events = append(s.events, events...)
	return nil
}

func (s *memStorage) PutFailureBatch(failures []model.DecodeFailure) error {
	s.failures = append(s.failures, failures...)
	return nil
}

func transferLog(t *testing.T, block uint64, index uint, amount int64) types.Log {
	t.Helper()
	tokenABI, err := erc20.TokenABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event := tokenABI.Events["Transfer"]

	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(amount))
	if err != nil {
		t.Fatalf("pack transfer: %v", err)
	}

	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")

	return types.Log{
		Address:     testContract,
		Topics:      []common.Hash{event.ID, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0x01"),
		Index:       index,
	}
}

func testConfig(t *testing.T) RunConfig {
	t.Helper()
	return RunConfig{
		Contract:          testContract,
		Kinds:             []model.EventKind{model.KindTransfer},
		FromBlock:         100,
		ToBlock:           105,
		PageSize:          3,
		CheckpointPath:    filepath.Join(t.TempDir(), "checkpoint.json"),
		CheckpointEnabled: true,
		MaxRetries:        2,
		RetryBackoff:      time.Millisecond,
	}
}

func TestRunnerScan(t *testing.T) {
	chain := &fakeChain{
		logs: []types.Log{
			transferLog(t, 105, 0, 300),
			transferLog(t, 100, 1, 100),
			transferLog(t, 103, 2, 200),
		},
		latest: 105,
	}
	sink := &memStorage{}

	cfg := testConfig(t)
	cfg.WithTimestamps = true

	runner := NewRunner(cfg, chain, sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(sink.events))
	}
	if len(sink.failures) != 0 {
		t.Fatalf("unexpected failures: %+v", sink.failures)
	}

	blocks := []uint64{sink.events[0].BlockNumber, sink.events[1].BlockNumber, sink.events[2].BlockNumber}
	if blocks[0] != 100 || blocks[1] != 103 || blocks[2] != 105 {
		t.Fatalf("event order mismatch: %v", blocks)
	}
	for _, ev := range sink.events {
		if ev.Timestamp != ev.BlockNumber*10 {
			t.Fatalf("timestamp not enriched: %+v", ev)
		}
	}

	cp, ok, err := NewCheckpointStore(cfg.CheckpointPath, true).Load()
	if err != nil || !ok {
		t.Fatalf("checkpoint load: ok=%v err=%v", ok, err)
	}
	if cp.Contract != testContract.Hex() || cp.LastProcessedBlock != 105 {
		t.Fatalf("checkpoint mismatch: %+v", cp)
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	chain := &fakeChain{
		logs: []types.Log{
			transferLog(t, 100, 0, 100),
			transferLog(t, 104, 0, 200),
		},
		latest: 105,
	}
	sink := &memStorage{}

	cfg := testConfig(t)
	if err := NewCheckpointStore(cfg.CheckpointPath, true).Save(testContract.Hex(), 102); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	runner := NewRunner(cfg, chain, sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event after resume, got %d", len(sink.events))
	}
	if sink.events[0].BlockNumber != 104 {
		t.Fatalf("resumed event mismatch: %+v", sink.events[0])
	}
}

func TestRunnerIgnoresForeignCheckpoint(t *testing.T) {
	chain := &fakeChain{
		logs:   []types.Log{transferLog(t, 100, 0, 100)},
		latest: 105,
	}
	sink := &memStorage{}

	cfg := testConfig(t)
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	if err := NewCheckpointStore(cfg.CheckpointPath, true).Save(other.Hex(), 104); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	runner := NewRunner(cfg, chain, sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("foreign checkpoint must not skip blocks, got %d events", len(sink.events))
	}
}

func TestRunnerResolvesLatestBlock(t *testing.T) {
	chain := &fakeChain{
		logs:   []types.Log{transferLog(t, 104, 0, 100)},
		latest: 104,
	}
	sink := &memStorage{}

	cfg := testConfig(t)
	cfg.ToBlock = 0

	runner := NewRunner(cfg, chain, sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
}

func TestRunnerRetriesTransientErrors(t *testing.T) {
	chain := &fakeChain{
		logs:      []types.Log{transferLog(t, 100, 0, 100)},
		latest:    105,
		failFirst: 2,
	}
	sink := &memStorage{}

	runner := NewRunner(testConfig(t), chain, sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event after retries, got %d", len(sink.events))
	}
}

func TestRunnerValidatesConfig(t *testing.T) {
	chain := &fakeChain{latest: 105}
	sink := &memStorage{}

	cfg := testConfig(t)
	cfg.Kinds = nil
	if err := NewRunner(cfg, chain, sink, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing kinds")
	}

	cfg = testConfig(t)
	cfg.PageSize = 0
	if err := NewRunner(cfg, chain, sink, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error for zero page size")
	}

	cfg = testConfig(t)
	cfg.Contract = common.Address{}
	if err := NewRunner(cfg, chain, sink, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing contract")
	}
}
