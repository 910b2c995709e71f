package live

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/dumbstore/pkg/store"
)

func dial(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func quietConfig() Config {
	return Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestLiveInitialAndSet(t *testing.T) {
	config := quietConfig()
	config.Initial = func(r *http.Request) store.State {
		return store.State{"count": 1.0, "name": "a"}
	}
	conn := dial(t, NewHandler(config))

	first := readMessage(t, conn)
	if first.State["count"] != 1.0 || first.State["name"] != "a" {
		t.Fatalf("initial state = %v", first.State)
	}

	if err := conn.WriteJSON(ClientMessage{Set: store.State{"count": 2.0}}); err != nil {
		t.Fatal(err)
	}
	next := readMessage(t, conn)
	if next.State["count"] != 2.0 {
		t.Errorf("count = %v, want 2", next.State["count"])
	}
	if next.State["name"] != "a" {
		t.Error("shallow merge dropped an untouched key")
	}
}

func TestLiveEmptyInitialState(t *testing.T) {
	conn := dial(t, NewHandler(quietConfig()))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != `{"state":{}}` {
		t.Errorf("initial frame = %s, want {\"state\":{}}", got)
	}
}

func TestLiveInvalidMessages(t *testing.T) {
	conn := dial(t, NewHandler(quietConfig()))
	readMessage(t, conn)

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"not json", "nope", "invalid message"},
		{"missing set", `{"other":1}`, "missing set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)); err != nil {
				t.Fatal(err)
			}
			if msg := readMessage(t, conn); msg.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", msg.Error, tt.wantErr)
			}
		})
	}
}

func TestLiveConnectionsAreIsolated(t *testing.T) {
	h := NewHandler(quietConfig())
	a := dial(t, h)
	b := dial(t, h)
	readMessage(t, a)
	readMessage(t, b)

	if err := a.WriteJSON(ClientMessage{Set: store.State{"owner": "a"}}); err != nil {
		t.Fatal(err)
	}
	readMessage(t, a)

	if err := b.WriteJSON(ClientMessage{Set: store.State{"other": true}}); err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, b)
	if _, ok := msg.State["owner"]; ok {
		t.Error("state leaked between connections")
	}
}

func TestNewHandlerDefaults(t *testing.T) {
	h := NewHandler(Config{})
	if h.config.ReadTimeout != 60*time.Second || h.config.WriteTimeout != 10*time.Second {
		t.Errorf("timeouts = %v/%v", h.config.ReadTimeout, h.config.WriteTimeout)
	}
	if h.config.Slot != store.DefaultSlot || h.config.Logger == nil {
		t.Errorf("config = %+v", h.config)
	}
}

func TestLiveRejectsPlainHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(quietConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
