package postgres

import (
	"context"

	"pyusdscope/internal/model"
)

// Sink adapts Store to the batch storage interface the scan runner consumes.
// The context is bound at construction because that interface is
// context-free; it should span the whole scan.
type Sink struct {
	ctx   context.Context
	store *Store
	state string
}

// NewSink wraps a Store. When stateName is set, the scan_state watermark is
// advanced to the highest block of every stored batch.
func NewSink(ctx context.Context, store *Store, stateName string) *Sink {
	return &Sink{ctx: ctx, store: store, state: stateName}
}

func (s *Sink) PutEventBatch(events []model.DecodedEvent) error {
	if err := s.store.UpsertEvents(s.ctx, events); err != nil {
		return err
	}
	if s.state == "" || len(events) == 0 {
		return nil
	}
	return s.store.SaveScanState(s.ctx, s.state, events[len(events)-1].BlockNumber)
}

func (s *Sink) PutFailureBatch(failures []model.DecodeFailure) error {
	return s.store.InsertFailures(s.ctx, failures)
}
