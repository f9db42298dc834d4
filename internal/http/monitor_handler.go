package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"seat-monitor/internal/service"

	"go.uber.org/zap"
)

// MonitorHandler state, history and reset endpoints
type MonitorHandler struct {
	engine  *service.Engine
	backend string
	logger  *zap.Logger
}

func NewMonitorHandler(engine *service.Engine, backend string, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{engine: engine, backend: backend, logger: logger}
}

// GetCurrentState GET /api/state/current
func (m *MonitorHandler) GetCurrentState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.engine.CurrentState())
}

// GetLatestSensors GET /api/sensors/latest, null before the first reading
func (m *MonitorHandler) GetLatestSensors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.engine.LatestReading())
}

// GetAggregates GET /api/agg/10s
func (m *MonitorHandler) GetAggregates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.engine.Aggregates(r.Context()))
}

// ExportAggregates GET /api/agg/10s/export
func (m *MonitorHandler) ExportAggregates(w http.ResponseWriter, r *http.Request) {
	data, err := GenerateAggregateExport(m.engine.Aggregates(r.Context()))
	if err != nil {
		m.logger.Error("Failed to generate aggregate export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate export")
		return
	}

	filename := fmt.Sprintf("seat-aggregates-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ResetState POST /api/state/reset
func (m *MonitorHandler) ResetState(w http.ResponseWriter, r *http.Request) {
	if err := m.engine.Reset(r.Context()); err != nil {
		m.logger.Error("Failed to reset state", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Health GET /healthz
func (m *MonitorHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"store":       m.backend,
		"subscribers": m.engine.Subscribers(),
	})
}
