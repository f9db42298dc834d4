package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"seat-monitor/internal/broadcast"
	"seat-monitor/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// SocketHandler bidirectional WebSocket: device messages in, state and alerts out
type SocketHandler struct {
	engine   *service.Engine
	upgrader websocket.Upgrader
	buffer   int
	logger   *zap.Logger
}

// NewSocketHandler buffer is the per-connection outbound queue size.
func NewSocketHandler(engine *service.Engine, buffer int, logger *zap.Logger) *SocketHandler {
	return &SocketHandler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		buffer: buffer,
		logger: logger,
	}
}

// ServeWS upgrades and runs one connection until either side closes.
func (s *SocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusBadRequest, "websocket upgrade required")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	queue := broadcast.NewQueue("ws:"+uuid.New().String(), s.buffer)
	logger := s.logger.With(zap.String("subscriber", queue.ID()), zap.String("remote", r.RemoteAddr))

	if err := s.engine.Subscribe(queue); err != nil {
		logger.Warn("Failed to subscribe connection", zap.Error(err))
		conn.Close()
		return
	}
	logger.Info("WebSocket connected")

	go s.writePump(conn, queue, logger)
	s.readPump(r.Context(), conn, queue, logger)
}

// readPump forwards every text frame to the engine inbox.
func (s *SocketHandler) readPump(ctx context.Context, conn *websocket.Conn, queue *broadcast.Queue, logger *zap.Logger) {
	defer func() {
		s.engine.Unsubscribe(queue.ID())
		queue.Close()
		conn.Close()
		logger.Info("WebSocket disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := s.engine.Submit(ctx, payload); err != nil {
			logger.Warn("Failed to submit message", zap.Error(err))
			if errors.Is(err, service.ErrEngineClosed) {
				return
			}
		}
	}
}

// writePump drains the subscriber queue; it owns all writes on conn.
func (s *SocketHandler) writePump(conn *websocket.Conn, queue *broadcast.Queue, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-queue.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
				logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
