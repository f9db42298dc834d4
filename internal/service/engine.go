package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"seat-monitor/internal/aggregator"
	"seat-monitor/internal/broadcast"
	"seat-monitor/internal/evaluator"
	"seat-monitor/internal/models"
	"seat-monitor/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrEngineClosed Submit after Close
	ErrEngineClosed = errors.New("engine closed")
	// ErrInvalidMessage inbound payload is not a JSON object
	ErrInvalidMessage = errors.New("invalid message")
)

// Options engine tuning
type Options struct {
	AggregateInterval time.Duration
	InboxSize         int
	ProlongedMinutes  int
	Now               func() time.Time
}

// Engine owns the event log, the incremental state cache, the de-dup cursor
// and the aggregation window. Ingest, queries and Reset serialize on mu;
// the window has its own lock and is always taken after mu.
type Engine struct {
	mu      sync.Mutex
	store   repository.Store
	tracker *evaluator.Tracker
	decider *evaluator.Decider
	dedup   *evaluator.Deduplicator
	window  *aggregator.Window
	hub     *broadcast.Hub
	logger  *zap.Logger
	now     func() time.Time

	inbox     chan []byte
	done      chan struct{}
	closeOnce sync.Once

	runMu   sync.Mutex
	stopped chan struct{} // closed when Run returns
}

// NewEngine rebuilds cached state from the store. A store read failure is
// logged and treated as an empty log.
func NewEngine(ctx context.Context, store repository.Store, hub *broadcast.Hub, opts Options, logger *zap.Logger) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AggregateInterval <= 0 {
		opts.AggregateInterval = aggregator.DefaultInterval
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}

	e := &Engine{
		store:   store,
		tracker: evaluator.NewTracker(),
		decider: evaluator.NewDecider(opts.ProlongedMinutes),
		dedup:   evaluator.NewDeduplicator(),
		window:  aggregator.NewWindow(opts.AggregateInterval, store, logger, opts.Now),
		hub:     hub,
		logger:  logger,
		now:     opts.Now,
		inbox:   make(chan []byte, opts.InboxSize),
		done:    make(chan struct{}),
	}

	events, err := store.LoadEvents(ctx)
	if err != nil {
		logger.Warn("Failed to load event log, starting empty", zap.Error(err))
		events = nil
	}
	e.tracker.Rebuild(events)

	logger.Info("Engine initialized",
		zap.Int("events", len(events)),
		zap.Bool("seated", e.tracker.IsSeated()),
	)
	return e
}

// Submit queues a raw inbound message for the engine loop.
func (e *Engine) Submit(ctx context.Context, payload []byte) error {
	select {
	case <-e.done:
		return ErrEngineClosed
	default:
	}

	msg := make([]byte, len(payload))
	copy(msg, payload)

	select {
	case e.inbox <- msg:
		return nil
	case <-e.done:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes the inbox and drives the aggregation ticker until ctx is
// cancelled or Close is called.
func (e *Engine) Run(ctx context.Context) {
	e.runMu.Lock()
	select {
	case <-e.done:
		e.runMu.Unlock()
		return
	default:
	}
	stopped := make(chan struct{})
	e.stopped = stopped
	e.runMu.Unlock()
	defer close(stopped)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.window.Run(ctx)
	}()

	e.logger.Info("Engine loop started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return
		case <-e.done:
			e.logger.Info("Engine loop stopped")
			return
		case payload := <-e.inbox:
			if _, err := e.Ingest(ctx, payload); err != nil {
				e.logger.Warn("Dropping inbound message", zap.Error(err))
			}
		}
	}
}

// Close rejects further submissions and waits for a running Run to finish
// the message it is processing.
func (e *Engine) Close() {
	e.runMu.Lock()
	e.closeOnce.Do(func() {
		close(e.done)
	})
	stopped := e.stopped
	e.runMu.Unlock()

	if stopped != nil {
		<-stopped
	}
}

// Ingest processes one raw message synchronously and returns the state it broadcast.
func (e *Engine) Ingest(ctx context.Context, payload []byte) (models.CurrentState, error) {
	now := e.now().UTC()
	msg, err := models.ParseInbound(payload, now)
	if err != nil {
		return models.CurrentState{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if msg.IsEmpty() {
		e.logger.Debug("Heartbeat message, recomputing state")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// 1. append to the log, presence part first
	if msg.Presence != nil {
		e.append(ctx, models.NewPresenceEntry(*msg.Presence))
	}
	if msg.Sensor != nil {
		e.append(ctx, models.NewSensorEntry(*msg.Sensor))
		e.window.Add(msg.Sensor.Sensors)
	}

	// 2. recompute and push state
	state := e.tracker.State(e.decider, now)
	e.hub.Broadcast(models.StateEnvelope(state))

	// 3. push the alert unless it repeats the last one
	decision := evaluator.Decision{Level: state.Level, Alert: state.Alert()}
	if alert := e.dedup.Filter(decision); alert != nil {
		e.hub.Broadcast(models.AlertEnvelope(*alert))
		e.logger.Info("Alert emitted",
			zap.String("level", string(state.Level)),
			zap.String("title", alert.Title),
			zap.String("posture", state.Posture),
		)
	}

	return state, nil
}

// append writes one entry; a store failure is logged and the cache still advances.
func (e *Engine) append(ctx context.Context, entry models.LogEntry) {
	if err := e.store.AppendEvent(ctx, entry); err != nil {
		e.logger.Error("Failed to append event",
			zap.String("kind", string(entry.Kind)),
			zap.Error(err),
		)
	}
	e.tracker.Apply(entry)
}

// CurrentState snapshot as of now.
func (e *Engine) CurrentState() models.CurrentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.State(e.decider, e.now().UTC())
}

// LatestReading most recent normalized reading, nil when none.
func (e *Engine) LatestReading() *models.SensorReading {
	e.mu.Lock()
	defer e.mu.Unlock()
	latest := e.tracker.LatestSensor()
	if latest == nil {
		return nil
	}
	return &latest.Sensors
}

// Aggregates full aggregate history; read failures yield an empty list.
func (e *Engine) Aggregates(ctx context.Context) []models.AggregateRecord {
	records, err := e.store.LoadAggregates(ctx)
	if err != nil {
		e.logger.Warn("Failed to load aggregate log", zap.Error(err))
		return []models.AggregateRecord{}
	}
	if records == nil {
		records = []models.AggregateRecord{}
	}
	return records
}

// FlushAggregates closes the open window now.
func (e *Engine) FlushAggregates(ctx context.Context) (*models.AggregateRecord, error) {
	return e.window.Flush(ctx)
}

// Reset clears both logs, the window buffer, the cached state and the de-dup
// cursor. In-memory state is only cleared once the store reset succeeds.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.window.Reset(func() error {
		return e.store.Reset(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	e.tracker.Reset()
	e.dedup.Reset()

	e.logger.Info("Monitoring state reset")
	e.hub.Broadcast(models.StateEnvelope(e.tracker.State(e.decider, e.now().UTC())))
	return nil
}

// Subscribe registers s and immediately sends it the current state.
func (e *Engine) Subscribe(s broadcast.Subscriber) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	msg, err := broadcast.Encode(models.StateEnvelope(e.tracker.State(e.decider, e.now().UTC())))
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.Send(msg); err != nil && !errors.Is(err, broadcast.ErrQueueFull) {
		return fmt.Errorf("failed to send initial state: %w", err)
	}
	e.hub.Register(s)
	return nil
}

// Unsubscribe removes a subscriber.
func (e *Engine) Unsubscribe(id string) {
	e.hub.Unregister(id)
}

// Subscribers number of push subscribers.
func (e *Engine) Subscribers() int {
	return e.hub.Count()
}
