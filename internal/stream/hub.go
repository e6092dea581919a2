package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/san-kum/physbox/internal/sim"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Poster runs commands on the goroutine that owns the simulator.
// *sim.Loop implements it.
type Poster interface {
	Post(fn func(*sim.Simulator)) bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frame snapshots out to websocket viewers and feeds their
// commands back to the loop. Frames whose objects did not change since the
// last broadcast are skipped.
type Hub struct {
	poster Poster
	log    *log.Logger

	mu         sync.Mutex
	clients    map[*client]struct{}
	digest     uint64
	last       []byte
	broadcasts int
}

func NewHub(p Poster, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		poster:  p,
		log:     logger,
		clients: make(map[*client]struct{}),
	}
}

// OnFrame is a sim.FrameHook.
func (h *Hub) OnFrame(f sim.Frame) {
	objs := objects(f)
	body, err := json.Marshal(objs)
	if err != nil {
		h.log.Error("encode objects", "err", err)
		return
	}
	sum := xxhash.Sum64(body)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last != nil && sum == h.digest {
		return
	}
	msg, err := json.Marshal(FrameMessage{Type: "frame", Index: f.Index, Time: f.Time, Objects: objs})
	if err != nil {
		h.log.Error("encode frame", "err", err)
		return
	}
	h.digest = sum
	h.last = msg
	h.broadcasts++

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("viewer too slow, dropping", "addr", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

// Broadcasts counts frames that were sent rather than skipped.
func (h *Hub) Broadcasts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.broadcasts
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/healthz", h.healthz)
	return mux
}

func (h *Hub) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": h.Clients()})
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	h.log.Info("viewer connected", "addr", conn.RemoteAddr())

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("write failed", "addr", c.conn.RemoteAddr(), "err", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
		h.log.Info("viewer disconnected", "addr", c.conn.RemoteAddr())
	}()

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}
		fn := commandFunc(cmd.Action)
		if fn == nil {
			h.log.Warn("unknown action", "action", cmd.Action)
			continue
		}
		if !h.poster.Post(fn) {
			h.log.Warn("command dropped", "action", cmd.Action)
		}
	}
}

func commandFunc(action string) func(*sim.Simulator) {
	switch action {
	case "sphere", "box":
		return func(s *sim.Simulator) {
			if _, err := s.SpawnNamed(action); err != nil {
				s.Logger().Error("spawn", "err", err)
			}
		}
	case "reset":
		return (*sim.Simulator).Reset
	}
	return nil
}
