package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"seat-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingSubscriber struct {
	id  string
	err error
}

func (f *failingSubscriber) ID() string           { return f.id }
func (f *failingSubscriber) Send(_ Message) error { return f.err }

func TestHub_BroadcastEncodesEnvelopeOnce(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := NewQueue("a", 4)
	b := NewQueue("b", 4)
	hub.Register(a)
	hub.Register(b)

	n := hub.Broadcast(models.AlertEnvelope(models.Alert{Title: "Warning", Message: "stand up"}))
	assert.Equal(t, 2, n)

	msgA := <-a.C()
	msgB := <-b.C()
	assert.Equal(t, models.MessageTypeAlert, msgA.Type)
	assert.JSONEq(t, `{"type":"alert","payload":{"title":"Warning","message":"stand up"}}`, string(msgA.Data))
	assert.Equal(t, msgA.Data, msgB.Data)
}

func TestHub_SlowSubscriberDropsButStays(t *testing.T) {
	hub := NewHub(zap.NewNop())
	slow := NewQueue("slow", 1)
	fast := NewQueue("fast", 8)
	hub.Register(slow)
	hub.Register(fast)

	for i := 0; i < 3; i++ {
		hub.Broadcast(models.StateEnvelope(models.CurrentState{Level: models.LevelNormal}))
	}

	assert.Len(t, slow.C(), 1)
	assert.Len(t, fast.C(), 3)
	assert.Equal(t, 2, hub.Count())
}

func TestHub_FailedSubscriberIsRemoved(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ok := NewQueue("ok", 4)
	hub.Register(ok)
	hub.Register(&failingSubscriber{id: "gone", err: errors.New("broken pipe")})

	n := hub.Broadcast(models.StateEnvelope(models.CurrentState{}))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, hub.Count())
	assert.Len(t, ok.C(), 1)
}

func TestHub_ClosedQueueIsRemoved(t *testing.T) {
	hub := NewHub(zap.NewNop())
	q := NewQueue("q", 1)
	hub.Register(q)
	q.Close()

	hub.Broadcast(models.StateEnvelope(models.CurrentState{}))
	assert.Zero(t, hub.Count())
}

func TestHub_ConcurrentRegisterAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		q := NewQueue(string(rune('a'+i)), 64)
		go func() {
			defer wg.Done()
			hub.Register(q)
		}()
		go func() {
			defer wg.Done()
			hub.Broadcast(models.StateEnvelope(models.CurrentState{}))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, hub.Count())
}

func TestHub_StateWireShape(t *testing.T) {
	hub := NewHub(zap.NewNop())
	q := NewQueue("q", 1)
	hub.Register(q)

	hub.Broadcast(models.StateEnvelope(models.CurrentState{Level: models.LevelWarn, Posture: "unseated"}))
	msg := <-q.C()

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "state", decoded["type"])
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "warn", payload["level"])
	assert.Nil(t, payload["alertTitle"])
	assert.Nil(t, payload["sensors"])
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := NewQueue("q", 0)
	require.NoError(t, q.Send(Message{Type: "state"}))
	assert.ErrorIs(t, q.Send(Message{Type: "state"}), ErrQueueFull)
	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Send(Message{Type: "state"}), ErrClosed)

	_, ok := <-q.C()
	assert.True(t, ok, "buffered message survives close")
	_, ok = <-q.C()
	assert.False(t, ok)
}
