package model

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// DecodedEvent is the normalized representation of a decoded token event.
// Amount is kept as a decimal string of unsigned token base units; no
// decimal scaling is applied here.
type DecodedEvent struct {
	ChainID     uint64    `json:"chain_id"`
	Kind        EventKind `json:"kind"`
	Contract    string    `json:"contract"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Amount      string    `json:"amount"`
	BlockNumber uint64    `json:"block_number"`
	BlockHash   string    `json:"block_hash"`
	TxHash      string    `json:"tx_hash"`
	LogIndex    uint64    `json:"log_index"`
	Timestamp   uint64    `json:"timestamp,omitempty"`
}

// AmountBig parses the amount string back into a big.Int.
func (e DecodedEvent) AmountBig() (*big.Int, error) {
	value, ok := new(big.Int).SetString(e.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", e.Amount)
	}
	return value, nil
}

// MarshalJSON ensures DecodedEvent is encoded with stable field names.
func (e DecodedEvent) MarshalJSON() ([]byte, error) {
	type Alias DecodedEvent
	return json.Marshal(Alias(e))
}

// UnmarshalJSON decodes a DecodedEvent from JSON.
func (e *DecodedEvent) UnmarshalJSON(data []byte) error {
	type Alias DecodedEvent
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = DecodedEvent(a)
	return nil
}
