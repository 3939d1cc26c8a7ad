package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/app"
)

type envelope[T any] struct {
	Status int `json:"Status"`
	Body   T   `json:"Body"`
}

func doJSON(t *testing.T, h http.Handler, method, path, pid, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if pid != "" {
		req.AddCookie(&http.Cookie{Name: "player_id", Value: pid})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	if env.Status != rr.Code {
		t.Fatalf("envelope status %d does not match %d", env.Status, rr.Code)
	}
	return env
}

func TestAPICreateAndGet(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, "POST", "/api/games", "p1", `{"mode":"pvp"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[gameDTO](t, rr).Body
	if created.Mode != "pvp" || created.Turn != "X" || created.Result != "none" || created.Last != -1 {
		t.Fatalf("unexpected game %+v", created)
	}

	rr = doJSON(t, h, "GET", "/api/games/"+created.ID, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decode[gameDTO](t, rr).Body; got.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, got.ID)
	}
}

func TestAPICreateDefaultsAndRejects(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, "POST", "/api/games", "", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if got := decode[gameDTO](t, rr).Body; got.Mode != "pvc" {
		t.Fatalf("expected default mode pvc, got %q", got.Mode)
	}

	cases := []struct {
		name string
		body string
		code int
	}{
		{"unknown mode", `{"mode":"chess"}`, http.StatusBadRequest},
		{"malformed", `{"mode":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, h, "POST", "/api/games", "", tc.body)
			if rr.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rr.Code)
			}
		})
	}
}

func TestAPIMoveRejections(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.ModeHumanVsHuman)
	svc.Join(gs.ID, "p1")
	svc.Join(gs.ID, "p2")
	path := "/api/games/" + gs.ID + "/moves"

	rr := doJSON(t, h, "POST", path, "p1", `{"cell":4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[gameDTO](t, rr).Body; got.Board[4] != "X" || got.Turn != "O" || got.Last != 4 {
		t.Fatalf("unexpected game after move %+v", got)
	}

	cases := []struct {
		name   string
		pid    string
		body   string
		code   int
		reason string
	}{
		{"occupied", "p2", `{"cell":4}`, http.StatusConflict, "CellOccupied"},
		{"not your turn", "p1", `{"cell":0}`, http.StatusConflict, "NotYourTurn"},
		{"out of bounds", "p2", `{"cell":9}`, http.StatusConflict, "OutOfBounds"},
		{"spectator", "p3", `{"cell":0}`, http.StatusForbidden, ""},
		{"missing cell", "p2", `{}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, h, "POST", path, tc.pid, tc.body)
			if rr.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rr.Code, rr.Body.String())
			}
			if got := decode[errorResponse](t, rr).Body.Reason; got != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, got)
			}
		})
	}

	rr = doJSON(t, h, "POST", "/api/games/nope/moves", "p1", `{"cell":0}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAPIFinishedGame(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.ModeMinimal)
	path := "/api/games/" + gs.ID + "/moves"
	var rr *httptest.ResponseRecorder
	for _, body := range []string{`{"cell":0}`, `{"cell":3}`, `{"cell":1}`, `{"cell":4}`, `{"cell":2}`} {
		rr = doJSON(t, h, "POST", path, "", body)
	}
	got := decode[gameDTO](t, rr).Body
	if !got.Over || got.Result != "win" || got.Winner != "X" || got.Status != "X won!" {
		t.Fatalf("unexpected finished game %+v", got)
	}
	if len(got.Line) != 3 || got.Line[0] != 0 || got.Line[1] != 1 || got.Line[2] != 2 {
		t.Fatalf("expected line 0,1,2, got %v", got.Line)
	}
	rr = doJSON(t, h, "POST", path, "", `{"cell":8}`)
	if rr.Code != http.StatusConflict || decode[errorResponse](t, rr).Body.Reason != "AlreadyFinished" {
		t.Fatalf("expected AlreadyFinished, got %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, "POST", "/api/games/"+gs.ID+"/reset", "", "")
	if got := decode[gameDTO](t, rr).Body; got.Over || got.Moves != 0 || got.Turn != "X" {
		t.Fatalf("expected fresh game after reset, got %+v", got)
	}
}

func TestAPIComputerMove(t *testing.T) {
	svc, h := newTestServerWithDelay(t, time.Hour)
	gs, _ := svc.CreateGame(app.ModeHumanVsComputer)
	svc.Join(gs.ID, "p1")

	rr := doJSON(t, h, "POST", "/api/games/"+gs.ID+"/moves", "p1", `{"cell":4}`)
	if got := decode[gameDTO](t, rr).Body; !got.Pending {
		t.Fatalf("expected pending computer move, got %+v", got)
	}
	rr = doJSON(t, h, "POST", "/api/games/"+gs.ID+"/moves", "p1", `{"cell":0}`)
	if rr.Code != http.StatusConflict || decode[errorResponse](t, rr).Body.Reason != "NotYourTurn" {
		t.Fatalf("expected NotYourTurn while pending, got %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, "POST", "/api/games/"+gs.ID+"/computer", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got := decode[computerResponse](t, rr).Body
	if got.Cell != 0 || got.Game.Board[0] != "O" || got.Game.Pending {
		t.Fatalf("expected corner reply, got %+v", got)
	}

	rr = doJSON(t, h, "POST", "/api/games/"+gs.ID+"/computer", "", "")
	if rr.Code != http.StatusConflict || decode[errorResponse](t, rr).Body.Reason != "NotComputerTurn" {
		t.Fatalf("expected NotComputerTurn, got %d %s", rr.Code, rr.Body.String())
	}

	pvp, _ := svc.CreateGame(app.ModeHumanVsHuman)
	rr = doJSON(t, h, "POST", "/api/games/"+pvp.ID+"/computer", "", "")
	if rr.Code != http.StatusConflict || decode[errorResponse](t, rr).Body.Reason != "NoComputer" {
		t.Fatalf("expected NoComputer, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestAPIJoin(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.ModeHumanVsHuman)
	for i, want := range []string{"X", "O", ""} {
		pid := []string{"a", "b", "c"}[i]
		rr := doJSON(t, h, "POST", "/api/games/"+gs.ID+"/join", pid, "")
		if got := decode[joinResponse](t, rr).Body.Side; got != want {
			t.Fatalf("player %s: expected side %q, got %q", pid, want, got)
		}
	}
}

// newWSServer serves over a real listener. Hijacked connections can outlive
// the test, so it logs to a no-op logger.
func newWSServer(t *testing.T) (*app.Service, *httptest.Server) {
	t.Helper()
	log := zap.NewNop().Sugar()
	svc := app.NewService(log, 0)
	srv := httptest.NewServer(NewServer(svc, log, Options{Heartbeat: time.Second}))
	t.Cleanup(srv.Close)
	return svc, srv
}

func dialWS(t *testing.T, srv *httptest.Server, id, pid string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + id + "/ws"
	hdr := http.Header{}
	if pid != "" {
		hdr.Set("Cookie", "player_id="+pid)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != "ping" {
			return msg
		}
	}
}

func TestWebsocketStreamsSnapshotsAndMoves(t *testing.T) {
	svc, srv := newWSServer(t)
	gs, _ := svc.CreateGame(app.ModeHumanVsComputer)
	svc.Join(gs.ID, "p1")

	conn := dialWS(t, srv, gs.ID, "p1")
	defer conn.Close()

	first := readWS(t, conn)
	if first.Type != "board" || first.Game == nil || first.Game.Moves != 0 {
		t.Fatalf("expected initial snapshot, got %+v", first)
	}

	if err := conn.WriteJSON(map[string]int{"cell": 4}); err != nil {
		t.Fatalf("write: %v", err)
	}
	human := readWS(t, conn)
	if human.Type != "board" || human.Game.Board[4] != "X" {
		t.Fatalf("expected human move snapshot, got %+v", human)
	}
	reply := readWS(t, conn)
	if reply.Type != "board" || reply.Game.Last != 0 || reply.Game.Board[0] != "O" {
		t.Fatalf("expected computer reply snapshot, got %+v", reply)
	}

	if err := conn.WriteJSON(map[string]int{"cell": 4}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rejected := readWS(t, conn)
	if rejected.Type != "error" || rejected.Reason != "CellOccupied" {
		t.Fatalf("expected CellOccupied error, got %+v", rejected)
	}
}

func TestWebsocketSeesMovesFromOtherClients(t *testing.T) {
	svc, srv := newWSServer(t)
	gs, _ := svc.CreateGame(app.ModeMinimal)

	conn := dialWS(t, srv, gs.ID, "")
	defer conn.Close()
	readWS(t, conn)

	for _, cell := range []int{0, 3, 1, 4, 2} {
		if _, err := svc.Play(gs.ID, "", cell); err != nil {
			t.Fatalf("play %d: %v", cell, err)
		}
	}
	for i := 0; i < 5; i++ {
		if msg := readWS(t, conn); msg.Type != "board" {
			t.Fatalf("expected board snapshot %d, got %+v", i, msg)
		}
	}
	over := readWS(t, conn)
	if over.Type != "gameover" || over.Game.Status != "X won!" {
		t.Fatalf("expected gameover, got %+v", over)
	}
}

func TestWebsocketUnknownGame(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, "GET", "/api/games/nope/ws", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
