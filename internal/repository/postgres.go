package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"seat-monitor/internal/models"

	"go.uber.org/zap"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS seat_events (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS seat_aggregates (
	seq          BIGSERIAL PRIMARY KEY,
	window_start TIMESTAMPTZ NOT NULL,
	avg          DOUBLE PRECISION NOT NULL,
	samples      INTEGER NOT NULL
);`

// PostgresStore event log as a jsonb table, aggregates as plain columns
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore wraps an open pool; Close closes it.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the tables if missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (p *PostgresStore) LoadEvents(ctx context.Context) ([]models.LogEntry, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT payload FROM seat_events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		var entry models.LogEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			p.logger.Warn("Skipping malformed event row", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return entries, nil
}

func (p *PostgresStore) AppendEvent(ctx context.Context, entry models.LogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO seat_events (id, kind, payload) VALUES ($1, $2, $3)`,
		entry.ID, string(entry.Kind), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (p *PostgresStore) LoadAggregates(ctx context.Context) ([]models.AggregateRecord, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT window_start, avg, samples FROM seat_aggregates ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates: %w", err)
	}
	defer rows.Close()

	var records []models.AggregateRecord
	for rows.Next() {
		var r models.AggregateRecord
		if err := rows.Scan(&r.Time, &r.Avg, &r.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		r.Time = r.Time.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregates: %w", err)
	}
	return records, nil
}

func (p *PostgresStore) AppendAggregate(ctx context.Context, record models.AggregateRecord) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO seat_aggregates (window_start, avg, samples) VALUES ($1, $2, $3)`,
		record.Time, record.Avg, record.Samples,
	)
	if err != nil {
		return fmt.Errorf("failed to insert aggregate: %w", err)
	}
	return nil
}

// Reset truncates both tables in one transaction.
func (p *PostgresStore) Reset(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE seat_events RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to truncate events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE seat_aggregates RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to truncate aggregates: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
