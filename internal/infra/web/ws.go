package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var _ adapter.JobObserver = (*Hub)(nil)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	clientBuffer = 16
)

// Hub pushes job updates to subscribed browsers. It is the UI-observer side
// of the job record contract: every mutation arrives as one JSON frame,
// never a partial write.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zerolog.Logger

	mu      sync.Mutex
	clients map[string]*wsClient
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *zerolog.Logger) *Hub {
	hubLog := logger.With().Str("component", "web.Hub").Logger()
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin UI; auth already happened in the middleware chain.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     &hubLog,
		clients: make(map[string]*wsClient),
	}
}

// HandleWS upgrades the connection and keeps it registered until it drops.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &wsClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.Debug().Str("client_id", c.id).Msg("websocket client connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.drop(c)
		c.conn.Close()
	}()
	for {
		// Browsers send nothing meaningful; reading only detects the close.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) broadcast(payload interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal ws payload")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// slow consumer, skip this frame
		}
	}
}

// JobUpdated implements adapter.JobObserver.
func (h *Hub) JobUpdated(job *model.ResearchJob) {
	h.broadcast(struct {
		Type string             `json:"type"`
		Job  *model.ResearchJob `json:"job"`
	}{Type: "job", Job: job})
}

// JobProgress implements adapter.JobObserver.
func (h *Hub) JobProgress(jobID string, status model.NormalizedStatus) {
	h.broadcast(struct {
		Type   string                 `json:"type"`
		JobID  string                 `json:"job_id"`
		Status model.NormalizedStatus `json:"status"`
	}{Type: "progress", JobID: jobID, Status: status})
}
