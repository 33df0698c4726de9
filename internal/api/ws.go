package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RunStreamWS streams a run's events over a WebSocket. The server sends
// connection_ack once subscribed, then one message per event, and closes
// after the completed or failed message.
func (s *Server) RunStreamWS(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.Store.GetRun(r.Context(), id); err != nil {
		writeError(w, err, r.URL.Path, id)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	var mu sync.Mutex
	write := func(v any) error {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}
	send := func(evt Event) error {
		b, _ := json.Marshal(evt.Data)
		return write(wsMessage{Type: evt.Type, ID: id, Payload: b})
	}

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)
	if err := write(wsMessage{Type: "connection_ack", ID: id}); err != nil {
		return
	}
	if evt, done := s.finalEvent(r.Context(), id); done {
		_ = send(evt)
		closeNormal(conn, &mu)
		return
	}

	// Read loop answers pings and notices the client going away.
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if msg.Type == "ping" {
				_ = write(wsMessage{Type: "pong"})
			}
		}
	}()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := send(evt); err != nil {
				return
			}
			if terminal(evt.Type) {
				closeNormal(conn, &mu)
				return
			}
		case <-ticker.C:
			if err := write(wsMessage{Type: "ping"}); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func closeNormal(conn *websocket.Conn, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
