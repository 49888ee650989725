package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"goattend/attendance"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12
	subscriberBuffer = 64
)

type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type progressEvent struct {
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Date    string `json:"date"`
	Success bool   `json:"success"`
}

type finishedEvent struct {
	RunID  string                     `json:"run_id"`
	Result attendance.RecordingResult `json:"result"`
}

// The UI is served from the same localhost origin.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans progress envelopes out to every connected socket. Slow
// subscribers lose events instead of blocking the batch.
type hub struct {
	mu   sync.Mutex
	subs map[chan wsEnvelope]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan wsEnvelope]struct{})}
}

func (h *hub) subscribe() (<-chan wsEnvelope, func()) {
	ch := make(chan wsEnvelope, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *hub) publish(envelope wsEnvelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- envelope:
		default:
		}
	}
}

func (s *Server) handleProgressSocket(c *gin.Context) {
	// subscribe before the upgrade so no event published after the
	// handshake is missed
	events, unsubscribe := s.hub.subscribe()
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.opts.Log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go s.drainSocket(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.opts.Log.Infow("ws_ping_failed", "err", err)
				return
			}
		case envelope := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(envelope); err != nil {
				s.opts.Log.Infow("ws_write_failed", "err", err)
				return
			}
		}
	}
}

// drainSocket reads until the client goes away so control frames are handled.
func (s *Server) drainSocket(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.opts.Log.Debugw("ws_read_closed", "err", err)
			return
		}
	}
}
