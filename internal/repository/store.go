package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"seat-monitor/internal/models"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// ErrUnknownBackend store backend name not recognised
var ErrUnknownBackend = errors.New("unknown store backend")

// Store durable append-only event log plus aggregate log.
// Reset must clear both logs together or neither.
type Store interface {
	LoadEvents(ctx context.Context) ([]models.LogEntry, error)
	AppendEvent(ctx context.Context, entry models.LogEntry) error
	LoadAggregates(ctx context.Context) ([]models.AggregateRecord, error)
	AppendAggregate(ctx context.Context, record models.AggregateRecord) error
	Reset(ctx context.Context) error
	Close() error
}

// ValidateBackend normalizes a backend name.
func ValidateBackend(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	switch backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
		return backend, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
