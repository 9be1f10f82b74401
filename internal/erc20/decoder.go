package erc20

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"pyusdscope/internal/model"
)

var zeroAddress = common.Address{}

// Decoder converts raw logs into typed token events. Each event kind has a
// fixed signature and a fixed decode path; there is no runtime schema.
type Decoder struct {
	tokenABI    abi.ABI
	kindByTopic map[common.Hash]model.EventKind
	topicByKind map[model.EventKind]common.Hash
}

// NewDecoder builds a decoder from the embedded token ABI.
func NewDecoder() (*Decoder, error) {
	tokenABI, err := TokenABI()
	if err != nil {
		return nil, err
	}

	kindByTopic := make(map[common.Hash]model.EventKind, len(model.Kinds()))
	topicByKind := make(map[model.EventKind]common.Hash, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		event, ok := tokenABI.Events[string(kind)]
		if !ok {
			return nil, fmt.Errorf("event %s missing from token abi", kind)
		}
		kindByTopic[event.ID] = kind
		topicByKind[kind] = event.ID
	}

	return &Decoder{
		tokenABI:    tokenABI,
		kindByTopic: kindByTopic,
		topicByKind: topicByKind,
	}, nil
}

// TopicFor returns the topic0 hash for the given event kind.
func (d *Decoder) TopicFor(kind model.EventKind) (common.Hash, error) {
	topic, ok := d.topicByKind[kind]
	if !ok {
		return common.Hash{}, fmt.Errorf("unsupported event kind: %s", kind)
	}
	return topic, nil
}

// KindFor returns the event kind matching a topic0 hash.
func (d *Decoder) KindFor(topic0 common.Hash) (model.EventKind, bool) {
	kind, ok := d.kindByTopic[topic0]
	return kind, ok
}

// Decode converts a raw log into a DecodedEvent of the given kind. The log's
// topic and data layout must match the kind's signature exactly.
func (d *Decoder) Decode(kind model.EventKind, log types.Log, chainID uint64) (model.DecodedEvent, error) {
	if len(log.Topics) == 0 {
		return model.DecodedEvent{}, fmt.Errorf("missing topics")
	}
	expected, ok := d.topicByKind[kind]
	if !ok {
		return model.DecodedEvent{}, fmt.Errorf("unsupported event kind: %s", kind)
	}
	if log.Topics[0] != expected {
		return model.DecodedEvent{}, fmt.Errorf("topic0 %s does not match %s", log.Topics[0].Hex(), kind)
	}

	var from, to common.Address
	var amount *big.Int
	var err error

	switch kind {
	case model.KindTransfer:
		from, to, amount, err = d.decodeTransfer(log)
	case model.KindApproval:
		from, to, amount, err = d.decodeApproval(log)
	case model.KindMint:
		to, amount, err = d.decodeMint(log)
		from = zeroAddress
	case model.KindBurn:
		from, amount, err = d.decodeBurn(log)
		to = zeroAddress
	default:
		err = fmt.Errorf("unsupported event kind: %s", kind)
	}
	if err != nil {
		return model.DecodedEvent{}, err
	}
	if amount.Sign() < 0 {
		return model.DecodedEvent{}, fmt.Errorf("negative amount: %s", amount)
	}

	return model.DecodedEvent{
		ChainID:     chainID,
		Kind:        kind,
		Contract:    log.Address.Hex(),
		From:        from.Hex(),
		To:          to.Hex(),
		Amount:      amount.String(),
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
	}, nil
}

func (d *Decoder) decodeTransfer(log types.Log) (common.Address, common.Address, *big.Int, error) {
	event := d.tokenABI.Events["Transfer"]
	if err := checkTopicCount(event, log); err != nil {
		return common.Address{}, common.Address{}, nil, err
	}

	var indexed struct {
		From common.Address
		To   common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), log.Topics[1:]); err != nil {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("parse topics: %w", err)
	}

	amount, err := unpackAmount(event, log.Data)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	return indexed.From, indexed.To, amount, nil
}

func (d *Decoder) decodeApproval(log types.Log) (common.Address, common.Address, *big.Int, error) {
	event := d.tokenABI.Events["Approval"]
	if err := checkTopicCount(event, log); err != nil {
		return common.Address{}, common.Address{}, nil, err
	}

	var indexed struct {
		Owner   common.Address
		Spender common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), log.Topics[1:]); err != nil {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("parse topics: %w", err)
	}

	amount, err := unpackAmount(event, log.Data)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	return indexed.Owner, indexed.Spender, amount, nil
}

func (d *Decoder) decodeMint(log types.Log) (common.Address, *big.Int, error) {
	event := d.tokenABI.Events["Mint"]
	if err := checkTopicCount(event, log); err != nil {
		return common.Address{}, nil, err
	}

	var indexed struct {
		To common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), log.Topics[1:]); err != nil {
		return common.Address{}, nil, fmt.Errorf("parse topics: %w", err)
	}

	amount, err := unpackAmount(event, log.Data)
	if err != nil {
		return common.Address{}, nil, err
	}
	return indexed.To, amount, nil
}

func (d *Decoder) decodeBurn(log types.Log) (common.Address, *big.Int, error) {
	event := d.tokenABI.Events["Burn"]
	if err := checkTopicCount(event, log); err != nil {
		return common.Address{}, nil, err
	}

	var indexed struct {
		From common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), log.Topics[1:]); err != nil {
		return common.Address{}, nil, fmt.Errorf("parse topics: %w", err)
	}

	amount, err := unpackAmount(event, log.Data)
	if err != nil {
		return common.Address{}, nil, err
	}
	return indexed.From, amount, nil
}

func checkTopicCount(event abi.Event, log types.Log) error {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(log.Topics) != indexedCount+1 {
		return fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(log.Topics))
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackAmount(event abi.Event, data []byte) (*big.Int, error) {
	nonIndexed := event.Inputs.NonIndexed()
	if len(data) != 32*len(nonIndexed) {
		return nil, fmt.Errorf("unexpected %s data length: %d", event.Name, len(data))
	}
	values, err := nonIndexed.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s amount type: %T", event.Name, values[0])
	}
	return amount, nil
}
