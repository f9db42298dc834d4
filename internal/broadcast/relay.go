package broadcast

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers encoded envelopes to an external system
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Relay subscribes a Notifier through its own bounded queue so slow
// external systems never hold up the hub. Delivery is at most once.
type Relay struct {
	notifier Notifier
	queue    *Queue
	types    map[string]bool
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRelay forwards only the listed message types; none means all.
func NewRelay(n Notifier, size int, timeout time.Duration, logger *zap.Logger, types ...string) *Relay {
	r := &Relay{
		notifier: n,
		queue:    NewQueue("relay:"+n.Name(), size),
		timeout:  timeout,
		logger:   logger.With(zap.String("notifier", n.Name())),
	}
	if len(types) > 0 {
		r.types = make(map[string]bool, len(types))
		for _, t := range types {
			r.types[t] = true
		}
	}
	return r
}

func (r *Relay) ID() string { return r.queue.ID() }

// Send filters by type and enqueues.
func (r *Relay) Send(msg Message) error {
	if r.types != nil && !r.types[msg.Type] {
		return nil
	}
	return r.queue.Send(msg)
}

// Run delivers queued messages until ctx is done or Close is called.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-r.queue.C():
			if !ok {
				return
			}
			r.deliver(ctx, msg)
		}
	}
}

// Close stops Run after the queue drains.
func (r *Relay) Close() {
	r.queue.Close()
}

func (r *Relay) deliver(ctx context.Context, msg Message) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.notifier.Notify(ctx, msg); err != nil {
		r.logger.Warn("Failed to deliver notification",
			zap.String("type", msg.Type),
			zap.Error(err),
		)
	}
}
