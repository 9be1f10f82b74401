package stats

import (
	"fmt"
	"math/big"
	"sort"

	"pyusdscope/internal/model"
)

// OtherLabel marks the rollup row holding everything past the top N.
const OtherLabel = "other"

// BlockStats aggregates events that landed in one block.
type BlockStats struct {
	BlockNumber uint64 `json:"block_number"`
	EventCount  uint64 `json:"event_count"`
	Volume      string `json:"volume"`
}

// Bucket counts events whose amount falls in one order-of-magnitude band.
type Bucket struct {
	Label      string `json:"label"`
	EventCount uint64 `json:"event_count"`
}

// AddressVolume aggregates events by one side of the transfer.
type AddressVolume struct {
	Address    string `json:"address"`
	EventCount uint64 `json:"event_count"`
	Volume     string `json:"volume"`
}

// Summary is the full per-window statistics bundle.
type Summary struct {
	EventCount   int             `json:"event_count"`
	TotalVolume  string          `json:"total_volume"`
	FirstBlock   uint64          `json:"first_block"`
	LastBlock    uint64          `json:"last_block"`
	PerBlock     []BlockStats    `json:"per_block"`
	Distribution []Bucket        `json:"distribution"`
	TopSenders   []AddressVolume `json:"top_senders"`
	TopReceivers []AddressVolume `json:"top_receivers"`
}

type accum struct {
	count  uint64
	volume *big.Int
}

// Summarize computes per-block counts and volumes plus top sender/receiver
// rankings over decoded events. Amounts are summed as big integers in token
// base units.
func Summarize(events []model.DecodedEvent, topN int) (Summary, error) {
	if topN <= 0 {
		topN = 10
	}

	total := new(big.Int)
	perBlock := make(map[uint64]*accum)
	bySender := make(map[string]*accum)
	byReceiver := make(map[string]*accum)
	byMagnitude := make(map[int]uint64)

	summary := Summary{EventCount: len(events)}

	for _, event := range events {
		amount, err := event.AmountBig()
		if err != nil {
			return Summary{}, fmt.Errorf("event %s log %d: %w", event.TxHash, event.LogIndex, err)
		}

		total.Add(total, amount)
		fold(perBlock, event.BlockNumber, amount)
		fold(bySender, event.From, amount)
		fold(byReceiver, event.To, amount)
		byMagnitude[magnitude(amount)]++

		if summary.FirstBlock == 0 || event.BlockNumber < summary.FirstBlock {
			summary.FirstBlock = event.BlockNumber
		}
		if event.BlockNumber > summary.LastBlock {
			summary.LastBlock = event.BlockNumber
		}
	}

	summary.TotalVolume = total.String()
	summary.PerBlock = blockRows(perBlock)
	summary.Distribution = bucketRows(byMagnitude)
	summary.TopSenders = topRows(bySender, topN)
	summary.TopReceivers = topRows(byReceiver, topN)
	return summary, nil
}

func fold[K comparable](m map[K]*accum, key K, amount *big.Int) {
	a, ok := m[key]
	if !ok {
		a = &accum{volume: new(big.Int)}
		m[key] = a
	}
	a.count++
	a.volume.Add(a.volume, amount)
}

// magnitude returns the decimal order of magnitude of an amount in base
// units; zero amounts get -1 so they land in their own bucket.
func magnitude(amount *big.Int) int {
	if amount.Sign() == 0 {
		return -1
	}
	return len(amount.String()) - 1
}

func bucketRows(byMagnitude map[int]uint64) []Bucket {
	mags := make([]int, 0, len(byMagnitude))
	for mag := range byMagnitude {
		mags = append(mags, mag)
	}
	sort.Ints(mags)

	rows := make([]Bucket, 0, len(mags))
	for _, mag := range mags {
		label := "0"
		if mag >= 0 {
			label = fmt.Sprintf("1e%d-1e%d", mag, mag+1)
		}
		rows = append(rows, Bucket{Label: label, EventCount: byMagnitude[mag]})
	}
	return rows
}

func blockRows(perBlock map[uint64]*accum) []BlockStats {
	rows := make([]BlockStats, 0, len(perBlock))
	for block, a := range perBlock {
		rows = append(rows, BlockStats{
			BlockNumber: block,
			EventCount:  a.count,
			Volume:      a.volume.String(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].BlockNumber < rows[j].BlockNumber })
	return rows
}

// topRows ranks addresses by volume and rolls everything past topN into a
// single "other" row, mirroring how the top-address breakdown is presented.
func topRows(byAddr map[string]*accum, topN int) []AddressVolume {
	rows := make([]AddressVolume, 0, len(byAddr))
	for addr, a := range byAddr {
		rows = append(rows, AddressVolume{
			Address:    addr,
			EventCount: a.count,
			Volume:     a.volume.String(),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		vi, _ := new(big.Int).SetString(rows[i].Volume, 10)
		vj, _ := new(big.Int).SetString(rows[j].Volume, 10)
		if cmp := vi.Cmp(vj); cmp != 0 {
			return cmp > 0
		}
		return rows[i].Address < rows[j].Address
	})

	if len(rows) <= topN {
		return rows
	}

	top := rows[:topN:topN]
	otherCount := uint64(0)
	otherVolume := new(big.Int)
	for _, row := range rows[topN:] {
		v, _ := new(big.Int).SetString(row.Volume, 10)
		otherCount += row.EventCount
		otherVolume.Add(otherVolume, v)
	}
	return append(top, AddressVolume{
		Address:    OtherLabel,
		EventCount: otherCount,
		Volume:     otherVolume.String(),
	})
}
