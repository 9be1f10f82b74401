package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pyusdscope/internal/model"
)

// JsonlStorage appends decoded events and decode failures to JSONL files.
type JsonlStorage struct {
	eventsPath   string
	failuresPath string
	mu           sync.Mutex
}

func NewJsonlStorage(eventsPath, failuresPath string) *JsonlStorage {
	return &JsonlStorage{eventsPath: eventsPath, failuresPath: failuresPath}
}

// PutEventBatch appends a batch of decoded events as JSON lines.
func (s *JsonlStorage) PutEventBatch(events []model.DecodedEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(events))
	for _, event := range events {
		rows = append(rows, event)
	}
	return s.appendLines(s.eventsPath, rows)
}

// PutFailureBatch appends a batch of decode failures as JSON lines.
func (s *JsonlStorage) PutFailureBatch(failures []model.DecodeFailure) error {
	if len(failures) == 0 {
		return nil
	}
	if s.failuresPath == "" {
		return fmt.Errorf("failures path not configured")
	}
	rows := make([]interface{}, 0, len(failures))
	for _, failure := range failures {
		rows = append(rows, failure)
	}
	return s.appendLines(s.failuresPath, rows)
}

func (s *JsonlStorage) appendLines(path string, rows []interface{}) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
