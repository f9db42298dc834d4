package broadcast

import (
	"encoding/json"
	"errors"
	"sync"

	"seat-monitor/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull message dropped for this subscriber only; it stays registered
	ErrQueueFull = errors.New("subscriber queue full")
	// ErrClosed subscriber has gone away and is removed on the next send
	ErrClosed = errors.New("subscriber closed")
)

// Message one encoded envelope
type Message struct {
	Type string
	Data []byte
}

// Subscriber push endpoint. Send must not block.
// Any error other than ErrQueueFull unregisters the subscriber.
type Subscriber interface {
	ID() string
	Send(msg Message) error
}

// Hub subscriber registry and fan-out
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	logger      *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]Subscriber),
		logger:      logger,
	}
}

// Register adds or replaces a subscriber by id.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subscribers[s.ID()] = s
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Debug("Subscriber registered", zap.String("subscriber", s.ID()), zap.Int("count", count))
}

// Unregister removes a subscriber; unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.subscribers[id]
	delete(h.subscribers, id)
	count := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		h.logger.Debug("Subscriber unregistered", zap.String("subscriber", id), zap.Int("count", count))
	}
}

// Count number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Encode marshals an envelope into a Message.
func Encode(env models.Envelope) (Message, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: env.Type, Data: data}, nil
}

// Broadcast encodes env once and offers it to a snapshot of the subscribers.
// It returns the number of subscribers that accepted the message.
func (h *Hub) Broadcast(env models.Envelope) int {
	msg, err := Encode(env)
	if err != nil {
		h.logger.Error("Failed to encode envelope", zap.String("type", env.Type), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	snapshot := make([]Subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range snapshot {
		err := s.Send(msg)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrQueueFull):
			h.logger.Warn("Dropping message for slow subscriber",
				zap.String("subscriber", s.ID()),
				zap.String("type", msg.Type),
			)
		default:
			h.logger.Info("Removing failed subscriber",
				zap.String("subscriber", s.ID()),
				zap.Error(err),
			)
			h.Unregister(s.ID())
		}
	}
	return delivered
}
