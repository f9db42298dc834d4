package aggregator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"seat-monitor/internal/models"

	"go.uber.org/zap"
)

// DefaultInterval tumbling window length
const DefaultInterval = 10 * time.Second

// Sink receives completed windows
type Sink interface {
	AppendAggregate(ctx context.Context, record models.AggregateRecord) error
}

// Window fixed-interval tumbling aggregation of raw pressure load.
// Event-path pushes and the ticker flush serialize on mu.
type Window struct {
	mu       sync.Mutex
	interval time.Duration
	sink     Sink
	logger   *zap.Logger
	now      func() time.Time

	sum     int64 // sum of every scalar value in the window
	scalars int   // number of scalar values
	samples int   // number of readings
	start   time.Time
}

// NewWindow creates a window starting at the current time.
func NewWindow(interval time.Duration, sink Sink, logger *zap.Logger, now func() time.Time) *Window {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Window{
		interval: interval,
		sink:     sink,
		logger:   logger,
		now:      now,
		start:    now(),
	}
}

// Add buffers one reading (all eight scalar values).
func (w *Window) Add(reading models.SensorReading) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, v := range reading.Values() {
		w.sum += int64(v)
		w.scalars++
	}
	w.samples++
}

// Pending number of readings buffered in the open window.
func (w *Window) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samples
}

// Flush closes the open window. An empty window emits nothing and keeps its start time.
func (w *Window) Flush(ctx context.Context) (*models.AggregateRecord, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.samples == 0 {
		return nil, nil
	}

	record := models.AggregateRecord{
		Time:    w.start,
		Avg:     round2(float64(w.sum) / float64(w.scalars)),
		Samples: w.samples,
	}

	// the window is closed whether or not the sink accepts it
	w.clearLocked(w.now())

	if err := w.sink.AppendAggregate(ctx, record); err != nil {
		return &record, fmt.Errorf("failed to append aggregate record: %w", err)
	}

	w.logger.Debug("Aggregate window flushed",
		zap.Time("window_start", record.Time),
		zap.Float64("avg", record.Avg),
		zap.Int("samples", record.Samples),
	)

	return &record, nil
}

// Reset runs clear while holding the window lock and, if it succeeds, empties
// the buffer and restarts the window.
func (w *Window) Reset(clear func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if clear != nil {
		if err := clear(); err != nil {
			return err
		}
	}
	w.clearLocked(w.now())
	return nil
}

// Run flushes on every tick until ctx is cancelled.
func (w *Window) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Aggregation window started",
		zap.Duration("interval", w.interval),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Aggregation window stopped")
			return
		case <-ticker.C:
			if _, err := w.Flush(ctx); err != nil {
				w.logger.Error("Failed to flush aggregate window",
					zap.Error(err),
				)
			}
		}
	}
}

func (w *Window) clearLocked(start time.Time) {
	w.sum = 0
	w.scalars = 0
	w.samples = 0
	w.start = start
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
