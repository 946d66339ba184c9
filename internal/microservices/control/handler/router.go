package handler

import (
	"net/http"
	"strings"
	"time"
)

// Router serves every route at the root and again under /api.
func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.RobotHandler.Root)
	mux.HandleFunc("GET /health", h.RobotHandler.Health)
	mux.HandleFunc("GET /status", h.RobotHandler.Status)
	mux.HandleFunc("POST /pick", h.RobotHandler.Pick)
	mux.HandleFunc("POST /robot/reset", h.RobotHandler.Reset)

	mux.HandleFunc("POST /orders", h.OrderHandler.CreateOrder)
	mux.HandleFunc("GET /orders", h.OrderHandler.ListOrders)
	mux.HandleFunc("GET /orders/{order_id}", h.OrderHandler.GetOrder)
	mux.HandleFunc("DELETE /orders/{order_id}", h.OrderHandler.DeleteOrder)

	mux.HandleFunc("GET /ws", h.StreamHandler.Serve)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", mux))
	root.Handle("/", mux)
	return h.logRequests(h.cors(root))
}

type originSet map[string]struct{}

func newOriginSet(origins []string) originSet {
	s := make(originSet, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			s[o] = struct{}{}
		}
	}
	return s
}

func (s originSet) allows(origin string) bool {
	if _, ok := s["*"]; ok {
		return true
	}
	_, ok := s[origin]
	return ok
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && h.origins.allows(origin) {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Credentials", "true")
			hdr.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				hdr.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				hdr.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				hdr.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" || r.URL.Path == "/api/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.lg.Debug("http_request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
