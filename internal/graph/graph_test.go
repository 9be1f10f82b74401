package graph

import (
	"reflect"
	"testing"

	"pyusdscope/internal/model"
)

func transfer(from, to, amount string) model.DecodedEvent {
	return model.DecodedEvent{
		Kind:   model.KindTransfer,
		From:   from,
		To:     to,
		Amount: amount,
	}
}

func TestBuilderAggregatesEdges(t *testing.T) {
	b := NewBuilder()

	events := []model.DecodedEvent{
		transfer("0xaaa", "0xbbb", "100"),
		transfer("0xaaa", "0xbbb", "250"),
		transfer("0xbbb", "0xaaa", "50"),
		transfer("0xaaa", "0xccc", "75"),
		transfer("0xaaa", "0xbbb", "1"),
	}
	for _, ev := range events {
		if err := b.Add(ev); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if b.Len() != 3 {
		t.Fatalf("edge count = %d, want 3", b.Len())
	}

	got := b.Edges()
	want := []Edge{
		{From: "0xaaa", To: "0xbbb", TransferCount: 3, TotalAmount: "351"},
		{From: "0xaaa", To: "0xccc", TransferCount: 1, TotalAmount: "75"},
		{From: "0xbbb", To: "0xaaa", TransferCount: 1, TotalAmount: "50"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("edges mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestBuilderLargeAmounts(t *testing.T) {
	b := NewBuilder()

	big := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	if err := b.Add(transfer("0xaaa", "0xbbb", big)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.Add(transfer("0xaaa", "0xbbb", "1")); err != nil {
		t.Fatalf("add: %v", err)
	}

	edges := b.Edges()
	if len(edges) != 1 {
		t.Fatalf("edge count = %d", len(edges))
	}
	want := "115792089237316195423570985008687907853269984665640564039457584007913129639936"
	if edges[0].TotalAmount != want {
		t.Fatalf("total mismatch: %s", edges[0].TotalAmount)
	}
}

func TestBuilderRejectsBadAmount(t *testing.T) {
	b := NewBuilder()
	if err := b.Add(transfer("0xaaa", "0xbbb", "not-a-number")); err == nil {
		t.Fatalf("expected error for invalid amount")
	}
	if b.Len() != 0 {
		t.Fatalf("invalid event must not create an edge")
	}
}

func TestBuilderEmpty(t *testing.T) {
	b := NewBuilder()
	if edges := b.Edges(); len(edges) != 0 {
		t.Fatalf("expected no edges, got %+v", edges)
	}
}
