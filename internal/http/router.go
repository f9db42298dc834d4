package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router stdlib http.ServeMux with method guards
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterMonitorRoutes pull API
func (r *Router) RegisterMonitorRoutes(m *MonitorHandler) {
	r.Handle("/api/state/current", only(http.MethodGet, m.GetCurrentState))
	r.Handle("/api/sensors/latest", only(http.MethodGet, m.GetLatestSensors))
	r.Handle("/api/agg/10s", only(http.MethodGet, m.GetAggregates))
	r.Handle("/api/agg/10s/export", only(http.MethodGet, m.ExportAggregates))
	r.Handle("/api/state/reset", only(http.MethodPost, m.ResetState))
	r.Handle("/healthz", only(http.MethodGet, m.Health))
}

// RegisterSocketRoutes push channel, on /ws and on the bare root
func (r *Router) RegisterSocketRoutes(s *SocketHandler) {
	r.Handle("/ws", s.ServeWS)
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		s.ServeWS(w, req)
	})
}

func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}
