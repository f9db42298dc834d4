package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"seat-monitor/internal/models"

	"go.uber.org/zap"
)

// File names inside the data directory
const (
	EventLogFile     = "sensor_data.jsonl"
	AggregateLogFile = "sensor_agg_10s.jsonl"
)

// FileStore JSON-lines logs on local disk, one file per log
type FileStore struct {
	mu            sync.Mutex
	eventPath     string
	aggregatePath string
	logger        *zap.Logger
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{
		eventPath:     filepath.Join(dir, EventLogFile),
		aggregatePath: filepath.Join(dir, AggregateLogFile),
		logger:        logger,
	}, nil
}

func (f *FileStore) LoadEvents(ctx context.Context) ([]models.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return readLines[models.LogEntry](f.eventPath, f.logger)
}

func (f *FileStore) AppendEvent(ctx context.Context, entry models.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return appendLine(f.eventPath, entry)
}

func (f *FileStore) LoadAggregates(ctx context.Context) ([]models.AggregateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return readLines[models.AggregateRecord](f.aggregatePath, f.logger)
}

func (f *FileStore) AppendAggregate(ctx context.Context, record models.AggregateRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return appendLine(f.aggregatePath, record)
}

// Reset opens both files first so that a permission problem leaves both intact.
func (f *FileStore) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	events, err := os.OpenFile(f.eventPath, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer events.Close()

	aggregates, err := os.OpenFile(f.aggregatePath, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open aggregate log: %w", err)
	}
	defer aggregates.Close()

	if err := events.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate event log: %w", err)
	}
	if err := aggregates.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate aggregate log: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

func appendLine(path string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal log line: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readLines a missing file is an empty log; undecodable lines are skipped.
func readLines[T any](path string, logger *zap.Logger) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	out := make([]T, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Warn("Skipping malformed log line",
				zap.String("file", filepath.Base(path)),
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			continue
		}
		out = append(out, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return out, nil
}
