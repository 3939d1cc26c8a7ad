package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is sent to websocket clients. Type is "board", "gameover",
// "error" or "ping".
type wsMessage struct {
	Type   string   `json:"type"`
	Game   *gameDTO `json:"game,omitempty"`
	Error  string   `json:"error,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// ws streams snapshots of a game and accepts {"cell":n} moves from the client.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok || !app.ValidID(id) {
		h.writeServiceError(w, app.ErrNotFound)
		return
	}
	var pid string
	if c, err := r.Cookie("player_id"); err == nil {
		pid = c.Value
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "game", id, "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	events, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	replies := make(chan wsMessage, 1)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	reply := func(m wsMessage) bool {
		select {
		case replies <- m:
			return true
		case <-quit:
			return false
		}
	}
	go func() {
		defer close(done)
		for {
			var move moveRequest
			if err := conn.ReadJSON(&move); err != nil {
				return
			}
			if move.Cell == nil {
				if !reply(wsMessage{Type: "error", Error: malformedJSONDesc}) {
					return
				}
				continue
			}
			if _, err := h.svc.Play(id, pid, *move.Cell); err != nil {
				h.log.Debugw("websocket move rejected", "game", id, "cell", *move.Cell, "error", err)
				if !reply(wsMessage{Type: "error", Error: err.Error(), Reason: reason(err)}) {
					return
				}
			}
		}
	}()

	first := toDTO(*gs)
	if err := conn.WriteJSON(wsMessage{Type: string(app.EventBoard), Game: &first}); err != nil {
		return
	}
	if err := h.pumpWS(conn, events, replies, done); err != nil {
		h.log.Debugw("websocket closed", "game", id, "error", err)
	}
}

func (h *handlers) pumpWS(conn *websocket.Conn, events <-chan app.Event, replies <-chan wsMessage, done <-chan struct{}) error {
	ticker := time.NewTicker(h.opts.Heartbeat)
	defer ticker.Stop()
	lastWrite := time.Now()
	for {
		var msg wsMessage
		select {
		case <-done:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			dto := toDTO(ev.Session)
			msg = wsMessage{Type: string(ev.Kind), Game: &dto}
		case msg = <-replies:
		case <-ticker.C:
			if time.Since(lastWrite) < h.opts.Heartbeat {
				continue
			}
			msg = wsMessage{Type: "ping"}
		}
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
		lastWrite = time.Now()
	}
}
