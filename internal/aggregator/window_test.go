package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"seat-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSink struct {
	mu      sync.Mutex
	records []models.AggregateRecord
	err     error
}

func (f *fakeSink) AppendAggregate(ctx context.Context, record models.AggregateRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestWindow(sink Sink) (*Window, *fakeClock) {
	clock := &fakeClock{now: start}
	return NewWindow(DefaultInterval, sink, zap.NewNop(), clock.Now), clock
}

func TestWindow_FlushAveragesScalarsAndCountsReadings(t *testing.T) {
	sink := &fakeSink{}
	w, clock := newTestWindow(sink)

	w.Add(models.SensorReading{SeatTopLeft: 10})
	w.Add(models.SensorReading{SeatTopLeft: 20})
	w.Add(models.SensorReading{SeatTopLeft: 30})
	clock.Advance(10 * time.Second)

	record, err := w.Flush(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)

	// 60 spread over 24 scalar values
	assert.Equal(t, 2.5, record.Avg)
	assert.Equal(t, 3, record.Samples)
	assert.Equal(t, start, record.Time)
	require.Len(t, sink.records, 1)
	assert.Equal(t, *record, sink.records[0])
	assert.Equal(t, 0, w.Pending())
}

func TestWindow_AverageRoundsToTwoDecimals(t *testing.T) {
	sink := &fakeSink{}
	w, _ := newTestWindow(sink)

	w.Add(models.SensorReading{BackTopRight: 10, BackTopLeft: 20, BackBottomRight: 30})
	w.Add(models.SensorReading{BackTopRight: 1})
	w.Add(models.SensorReading{SeatTopLeft: 1})

	record, err := w.Flush(context.Background())
	require.NoError(t, err)
	// 62 / 24 = 2.58333...
	assert.Equal(t, 2.58, record.Avg)
	assert.Equal(t, 3, record.Samples)
}

func TestWindow_EmptyWindowEmitsNothing(t *testing.T) {
	sink := &fakeSink{}
	w, clock := newTestWindow(sink)

	clock.Advance(10 * time.Second)
	record, err := w.Flush(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Empty(t, sink.records)

	// start time only moves on a real flush
	w.Add(models.SensorReading{SeatTopLeft: 8})
	clock.Advance(10 * time.Second)
	record, err = w.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start, record.Time)

	w.Add(models.SensorReading{SeatTopLeft: 8})
	record, err = w.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.Add(20*time.Second), record.Time)
}

func TestWindow_SinkErrorStillClosesWindow(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	w, _ := newTestWindow(sink)
	w.Add(models.SensorReading{SeatTopLeft: 8})

	record, err := w.Flush(context.Background())
	assert.Error(t, err)
	assert.NotNil(t, record)
	assert.Equal(t, 0, w.Pending())
}

func TestWindow_Reset(t *testing.T) {
	sink := &fakeSink{}
	w, clock := newTestWindow(sink)
	w.Add(models.SensorReading{SeatTopLeft: 8})

	err := w.Reset(func() error { return errors.New("store down") })
	assert.Error(t, err)
	assert.Equal(t, 1, w.Pending())

	clock.Advance(5 * time.Second)
	require.NoError(t, w.Reset(nil))
	assert.Equal(t, 0, w.Pending())

	w.Add(models.SensorReading{SeatTopLeft: 8})
	record, err := w.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.Add(5*time.Second), record.Time)
}

func TestWindow_ConcurrentAddAndFlush(t *testing.T) {
	sink := &fakeSink{}
	w, _ := newTestWindow(sink)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.Add(models.SensorReading{SeatTopLeft: 1})
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			_, _ = w.Flush(context.Background())
		}
	}()
	wg.Wait()
	_, err := w.Flush(context.Background())
	require.NoError(t, err)

	total := 0
	for _, r := range sink.records {
		total += r.Samples
	}
	assert.Equal(t, 800, total)
}

func TestWindow_RunFlushesOnTicker(t *testing.T) {
	sink := &fakeSink{}
	w := NewWindow(20*time.Millisecond, sink, zap.NewNop(), nil)
	w.Add(models.SensorReading{SeatTopLeft: 100})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.records) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
