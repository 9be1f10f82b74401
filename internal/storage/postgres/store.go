package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pyusdscope/internal/model"
)

// Store provides Postgres persistence for decoded events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertEvents inserts decoded events, skipping rows already present. A row
// is identified by (chain_id, tx_hash, log_index).
func (s *Store) UpsertEvents(ctx context.Context, events []model.DecodedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO token_events (
				chain_id, kind, contract, from_addr, to_addr, amount,
				block_number, block_hash, tx_hash, log_index, block_ts, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
		`,
			int64(event.ChainID),
			string(event.Kind),
			event.Contract,
			event.From,
			event.To,
			event.Amount,
			int64(event.BlockNumber),
			event.BlockHash,
			event.TxHash,
			int64(event.LogIndex),
			int64(event.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertFailures records decode failures for later inspection.
func (s *Store) InsertFailures(ctx context.Context, failures []model.DecodeFailure) error {
	if len(failures) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, failure := range failures {
		batch.Queue(`
			INSERT INTO decode_failures (
				chain_id, block_number, tx_hash, log_index, address, topic0, error, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,now())
			ON CONFLICT DO NOTHING
		`,
			int64(failure.ChainID),
			int64(failure.BlockNumber),
			failure.TxHash,
			int64(failure.LogIndex),
			failure.Address,
			failure.Topic0,
			failure.Error,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range failures {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadScanState returns the last processed block for a named scan.
func (s *Store) LoadScanState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("scan name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM scan_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveScanState upserts the last processed block for a named scan.
func (s *Store) SaveScanState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("scan name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, block)
	return err
}
