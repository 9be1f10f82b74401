package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pyusdscope/internal/cache"
	"pyusdscope/internal/erc20"
)

const (
	infoTTL    = time.Minute
	balanceTTL = 30 * time.Second
)

// Info holds token metadata read from the contract.
type Info struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
}

// ContractCaller is the eth_call capability the reader consumes.
// chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader fetches token metadata and balances for a single contract, caching
// results with an explicit TTL so repeated lookups do not hammer the RPC.
type Reader struct {
	caller   ContractCaller
	contract common.Address
	logger   *zap.Logger

	infoCache    *cache.TTL[common.Address, Info]
	balanceCache *cache.TTL[common.Address, string]
}

// NewReader builds a Reader for the given token contract.
func NewReader(caller ContractCaller, contract common.Address, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		caller:       caller,
		contract:     contract,
		logger:       logger,
		infoCache:    cache.NewTTL[common.Address, Info](infoTTL),
		balanceCache: cache.NewTTL[common.Address, string](balanceTTL),
	}
}

// Info returns the token's name, symbol, decimals, and total supply.
func (r *Reader) Info(ctx context.Context) (Info, error) {
	if cached, ok := r.infoCache.Get(r.contract); ok {
		return cached, nil
	}
	if r.caller == nil {
		return Info{}, fmt.Errorf("contract caller is nil")
	}

	tokenABI, err := erc20.TokenABI()
	if err != nil {
		return Info{}, fmt.Errorf("parse token abi: %w", err)
	}
	bytes32ABI, err := erc20.Bytes32MetaABI()
	if err != nil {
		return Info{}, fmt.Errorf("parse bytes32 abi: %w", err)
	}

	info := Info{Address: r.contract.Hex()}

	values, err := r.call(ctx, tokenABI, "decimals")
	if err != nil {
		return Info{}, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return Info{}, err
	}
	info.Decimals = decimals

	values, err = r.call(ctx, tokenABI, "totalSupply")
	if err != nil {
		return Info{}, err
	}
	supply, ok := values[0].(*big.Int)
	if !ok {
		return Info{}, fmt.Errorf("unexpected totalSupply type: %T", values[0])
	}
	info.TotalSupply = supply.String()

	if values, err := r.call(ctx, tokenABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			info.Symbol = symbol
		}
	} else if values, err := r.call(ctx, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			info.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", r.contract.Hex()), zap.Error(err))
	}

	if values, err := r.call(ctx, tokenABI, "name"); err == nil {
		if name, ok := values[0].(string); ok {
			info.Name = name
		}
	} else if values, err := r.call(ctx, bytes32ABI, "name"); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			info.Name = name
		}
	} else {
		r.logger.Debug("name call failed", zap.String("token", r.contract.Hex()), zap.Error(err))
	}

	r.infoCache.Set(r.contract, info)
	return info, nil
}

// BalanceOf returns the holder's balance in token base units.
func (r *Reader) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	if cached, ok := r.balanceCache.Get(holder); ok {
		balance, ok := new(big.Int).SetString(cached, 10)
		if ok {
			return balance, nil
		}
	}
	if r.caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}

	tokenABI, err := erc20.TokenABI()
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}

	data, err := tokenABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	contract := r.contract
	resp, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	values, err := tokenABI.Unpack("balanceOf", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf type: %T", values[0])
	}

	r.balanceCache.Set(holder, balance.String())
	return balance, nil
}

func (r *Reader) call(ctx context.Context, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	contract := r.contract
	resp, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported decimals type %T", value)
	}
}
