package repository

import (
	"context"
	"sync"

	"seat-monitor/internal/models"
)

// MemoryStore in-process store (tests, ephemeral runs)
type MemoryStore struct {
	mu         sync.RWMutex
	events     []models.LogEntry
	aggregates []models.AggregateRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadEvents(ctx context.Context) ([]models.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.LogEntry, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *MemoryStore) AppendEvent(ctx context.Context, entry models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, entry)
	return nil
}

func (m *MemoryStore) LoadAggregates(ctx context.Context) ([]models.AggregateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.AggregateRecord, len(m.aggregates))
	copy(out, m.aggregates)
	return out, nil
}

func (m *MemoryStore) AppendAggregate(ctx context.Context, record models.AggregateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregates = append(m.aggregates, record)
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.aggregates = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
