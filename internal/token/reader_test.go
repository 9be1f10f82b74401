package token

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"pyusdscope/internal/erc20"
)

var testToken = common.HexToAddress("0x6c3ea9036406852006290770bedfcaba0e23a0e8")

// fakeCaller answers eth_call by selector with canned ABI-encoded results.
// bytes32Meta switches symbol and name to the legacy bytes32 encoding.
type fakeCaller struct {
	t           *testing.T
	calls       int
	balance     *big.Int
	bytes32Meta bool
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.t.Helper()
	f.calls++

	tokenABI, err := erc20.TokenABI()
	if err != nil {
		f.t.Fatalf("abi parse: %v", err)
	}

	for name, method := range tokenABI.Methods {
		if !bytes.Equal(method.ID, msg.Data[:4]) {
			continue
		}
		switch name {
		case "decimals":
			return method.Outputs.Pack(uint8(6))
		case "totalSupply":
			return method.Outputs.Pack(big.NewInt(1_000_000_000_000))
		case "symbol":
			if f.bytes32Meta {
				return packBytes32(f.t, "symbol", "PYUSD")
			}
			return method.Outputs.Pack("PYUSD")
		case "name":
			if f.bytes32Meta {
				return packBytes32(f.t, "name", "PayPal USD")
			}
			return method.Outputs.Pack("PayPal USD")
		case "balanceOf":
			return method.Outputs.Pack(f.balance)
		}
	}
	return nil, errors.New("unknown selector")
}

func packBytes32(t *testing.T, method, value string) ([]byte, error) {
	t.Helper()
	metaABI, err := erc20.Bytes32MetaABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	var fixed [32]byte
	copy(fixed[:], value)
	return metaABI.Methods[method].Outputs.Pack(fixed)
}

func TestReaderInfo(t *testing.T) {
	caller := &fakeCaller{t: t}
	reader := NewReader(caller, testToken, nil)

	info, err := reader.Info(context.Background())
	if err != nil {
		t.Fatalf("info: %v", err)
	}

	if info.Address != testToken.Hex() {
		t.Fatalf("address mismatch: %s", info.Address)
	}
	if info.Symbol != "PYUSD" || info.Name != "PayPal USD" {
		t.Fatalf("metadata mismatch: %+v", info)
	}
	if info.Decimals != 6 {
		t.Fatalf("decimals mismatch: %d", info.Decimals)
	}
	if info.TotalSupply != "1000000000000" {
		t.Fatalf("supply mismatch: %s", info.TotalSupply)
	}

	before := caller.calls
	if _, err := reader.Info(context.Background()); err != nil {
		t.Fatalf("cached info: %v", err)
	}
	if caller.calls != before {
		t.Fatalf("expected cached read, got %d extra calls", caller.calls-before)
	}
}

func TestReaderInfoBytes32Fallback(t *testing.T) {
	caller := &fakeCaller{t: t, bytes32Meta: true}
	reader := NewReader(caller, testToken, nil)

	info, err := reader.Info(context.Background())
	if err != nil {
		t.Fatalf("info: %v", err)
	}

	if info.Symbol != "PYUSD" {
		t.Fatalf("symbol fallback failed: %q", info.Symbol)
	}
	if info.Name != "PayPal USD" {
		t.Fatalf("name fallback failed: %q", info.Name)
	}
}

func TestReaderBalanceOf(t *testing.T) {
	caller := &fakeCaller{t: t, balance: big.NewInt(2_500_000)}
	reader := NewReader(caller, testToken, nil)

	holder := common.HexToAddress("0x1111111111111111111111111111111111111111")

	balance, err := reader.BalanceOf(context.Background(), holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.String() != "2500000" {
		t.Fatalf("balance mismatch: %s", balance)
	}

	before := caller.calls
	cached, err := reader.BalanceOf(context.Background(), holder)
	if err != nil {
		t.Fatalf("cached balance: %v", err)
	}
	if caller.calls != before {
		t.Fatalf("expected cached read, got %d extra calls", caller.calls-before)
	}
	if cached.Cmp(balance) != 0 {
		t.Fatalf("cached balance mismatch: %s", cached)
	}
}
