package graph

import (
	"fmt"
	"math/big"
	"sort"

	"pyusdscope/internal/model"
)

// Edge is a directed transfer edge aggregated over (from, to) address pairs.
type Edge struct {
	From          string `json:"from"`
	To            string `json:"to"`
	TransferCount uint64 `json:"transfer_count"`
	TotalAmount   string `json:"total_amount"`
}

type edgeKey struct {
	from string
	to   string
}

type edgeAccum struct {
	count uint64
	total *big.Int
}

// Builder accumulates decoded events into a transfer graph.
type Builder struct {
	edges map[edgeKey]*edgeAccum
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{edges: make(map[edgeKey]*edgeAccum)}
}

// Add folds one event into the graph. The caller decides which kinds to
// feed in; approvals usually belong in a separate graph from transfers.
func (b *Builder) Add(event model.DecodedEvent) error {
	amount, err := event.AmountBig()
	if err != nil {
		return fmt.Errorf("event %s log %d: %w", event.TxHash, event.LogIndex, err)
	}

	key := edgeKey{from: event.From, to: event.To}
	accum, ok := b.edges[key]
	if !ok {
		accum = &edgeAccum{total: new(big.Int)}
		b.edges[key] = accum
	}
	accum.count++
	accum.total.Add(accum.total, amount)
	return nil
}

// Edges returns the aggregated edges, heaviest first, with ties broken by
// from then to address so output is deterministic.
func (b *Builder) Edges() []Edge {
	out := make([]Edge, 0, len(b.edges))
	for key, accum := range b.edges {
		out = append(out, Edge{
			From:          key.from,
			To:            key.to,
			TransferCount: accum.count,
			TotalAmount:   accum.total.String(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TransferCount != out[j].TransferCount {
			return out[i].TransferCount > out[j].TransferCount
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Len returns the number of distinct edges.
func (b *Builder) Len() int {
	return len(b.edges)
}
