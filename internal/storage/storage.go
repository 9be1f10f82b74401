package storage

import "pyusdscope/internal/model"

// Storage persists decoded events and the decode failures that accompany them.
type Storage interface {
	PutEventBatch(events []model.DecodedEvent) error
	PutFailureBatch(failures []model.DecodeFailure) error
}

// Multi fans each batch out to several sinks in order, stopping at the first
// error.
type Multi []Storage

func (m Multi) PutEventBatch(events []model.DecodedEvent) error {
	for _, sink := range m {
		if err := sink.PutEventBatch(events); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutFailureBatch(failures []model.DecodeFailure) error {
	for _, sink := range m {
		if err := sink.PutFailureBatch(failures); err != nil {
			return err
		}
	}
	return nil
}
