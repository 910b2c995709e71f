package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/dumbstore/pkg/store"
)

// ClientMessage is sent by the client.
type ClientMessage struct {
	Set store.State `json:"set"`
}

// ServerMessage is sent by the server after connecting and after every change.
// State is always present on state frames, as {} when the store is empty.
type ServerMessage struct {
	State store.State `json:"state"`
	Error string      `json:"error,omitempty"`
}

// Config configures a Handler.
type Config struct {
	// ReadBufferSize and WriteBufferSize size the upgrader's buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header. Nil uses gorilla's same-origin check.
	CheckOrigin func(r *http.Request) bool

	// ReadTimeout bounds the wait for the next client message (default: 60s).
	ReadTimeout time.Duration

	// WriteTimeout bounds each state push (default: 10s).
	WriteTimeout time.Duration

	// Slot is the global slot name (default: store.DefaultSlot).
	Slot string

	// Initial returns the state a new connection starts with.
	Initial func(r *http.Request) store.State

	// Logger is used for connection errors (default: slog.Default()).
	Logger *slog.Logger
}

// Handler upgrades requests and serves one store per connection.
type Handler struct {
	config   Config
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler.
func NewHandler(config Config) *Handler {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 60 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.Slot == "" {
		config.Slot = store.DefaultSlot
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Handler{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.config.Logger.Warn("live upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	win := store.NewWindow()
	if h.config.Initial != nil {
		if initial := h.config.Initial(r); initial != nil {
			win.SetGlobal(h.config.Slot, initial)
		}
	}
	s := store.New(store.WithWindow(win), store.WithSlot(h.config.Slot), store.WithLogger(h.config.Logger))

	c := &connection{conn: conn, store: s, config: &h.config}
	s.Observe(c.push)
	c.push()
	c.readLoop()
}

type connection struct {
	conn     *websocket.Conn
	store    *store.Store
	config   *Config
	writeErr error
}

// push is the store observer. It runs on the read loop goroutine, which is the
// connection's only writer.
func (c *connection) push() {
	c.send(ServerMessage{State: c.store.All()})
}

func (c *connection) send(msg ServerMessage) {
	if c.writeErr != nil {
		return
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.writeErr = err
	}
}

func (c *connection) readLoop() {
	for c.writeErr == nil {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.config.Logger.Error("live read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.config.Logger.Warn("live message decode error", "error", err)
			c.send(ServerMessage{Error: "invalid message"})
			continue
		}
		if msg.Set == nil {
			c.send(ServerMessage{Error: "missing set"})
			continue
		}

		c.store.Set(msg.Set)
	}

	c.config.Logger.Warn("live write error", "error", c.writeErr)
}
