package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/domain"
	"robot-pick-system/internal/microservices/control/service"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamHandler upgrades /ws clients and registers each one as a status
// observer until the socket goes away.
type StreamHandler struct {
	service  service.RobotServiceInterface
	upgrader websocket.Upgrader
	lg       *logger.Logger
}

func NewStreamHandler(s service.RobotServiceInterface, origins originSet, lg *logger.Logger) *StreamHandler {
	return &StreamHandler{
		service: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				o := r.Header.Get("Origin")
				return o == "" || origins.allows(o)
			},
		},
		lg: lg,
	}
}

func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.lg.Warn("ws_upgrade_failed", map[string]any{"remote": r.RemoteAddr, "error": err.Error()})
		return
	}
	obs := &wsObserver{id: "ws-" + uuid.NewString(), conn: conn}
	h.lg.Info("ws_connected", map[string]any{"observer": obs.id, "remote": r.RemoteAddr})

	h.service.Subscribe(obs)
	defer func() {
		h.service.Unsubscribe(obs.id)
		_ = conn.Close()
		h.lg.Info("ws_disconnected", map[string]any{"observer": obs.id})
	}()

	stop := make(chan struct{})
	defer close(stop)
	go obs.keepAlive(stop)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// Client frames carry nothing; reading only detects the close.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

type wsObserver struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
	once sync.Once
}

var _ service.Evictable = (*wsObserver)(nil)

func (o *wsObserver) ID() string { return o.id }

func (o *wsObserver) Send(ctx context.Context, snap domain.Snapshot) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = o.conn.SetWriteDeadline(dl)
	}
	return o.conn.WriteJSON(snap)
}

// Evict sends a close frame and closes the socket, which ends the read loop
// in Serve so the client sees the disconnect and can reconnect.
func (o *wsObserver) Evict(reason service.EvictReason) {
	o.once.Do(func() {
		code := websocket.ClosePolicyViolation
		if reason == service.EvictShutdown {
			code = websocket.CloseGoingAway
		}
		msg := websocket.FormatCloseMessage(code, string(reason))
		_ = o.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = o.conn.Close()
	})
}

func (o *wsObserver) keepAlive(stop <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			o.mu.Lock()
			err := o.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			o.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
