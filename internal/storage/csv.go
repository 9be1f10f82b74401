package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"pyusdscope/internal/model"
)

var csvHeader = []string{
	"block_number", "timestamp", "tx_hash", "log_index",
	"kind", "contract", "from", "to", "amount",
}

// WriteCSV exports decoded events to a CSV file. Events are written in the
// order given; the fetcher guarantees chronological order.
func WriteCSV(path string, events []model.DecodedEvent) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	if err := WriteCSVTo(file, events); err != nil {
		return err
	}
	return file.Close()
}

// WriteCSVTo writes decoded events as CSV rows to the writer.
func WriteCSVTo(w io.Writer, events []model.DecodedEvent) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, event := range events {
		row := []string{
			strconv.FormatUint(event.BlockNumber, 10),
			strconv.FormatUint(event.Timestamp, 10),
			event.TxHash,
			strconv.FormatUint(event.LogIndex, 10),
			string(event.Kind),
			event.Contract,
			event.From,
			event.To,
			event.Amount,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
