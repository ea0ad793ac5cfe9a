package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mines_webapp/internal/game"
	"mines_webapp/internal/service"

	"github.com/gorilla/websocket"
)

func TestHub_PublishSkipsSender(t *testing.T) {
	hub := NewHub()
	a := &Client{PlayerID: "p1", Send: make(chan []byte, 1)}
	b := &Client{PlayerID: "p1", Send: make(chan []byte, 1)}
	other := &Client{PlayerID: "p2", Send: make(chan []byte, 1)}
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	hub.Publish("p1", a, "session", map[string]string{"status": "playing"})

	select {
	case msg := <-b.Send:
		var m Message
		if err := json.Unmarshal(msg, &m); err != nil || m.Type != "session" {
			t.Fatalf("неожиданное сообщение: %s", msg)
		}
	default:
		t.Fatal("второе соединение игрока не получило событие")
	}
	if len(a.Send) != 0 || len(other.Send) != 0 {
		t.Fatal("событие ушло отправителю или чужому игроку")
	}

	// полная очередь не блокирует рассылку
	hub.Publish("p1", nil, "session", nil)
	hub.Publish("p1", nil, "session", nil)

	hub.Unregister(a)
	hub.Unregister(a)
	if hub.Connections("p1") != 1 {
		t.Fatalf("ожидалось 1 соединение, получено %d", hub.Connections("p1"))
	}
	hub.Unregister(b)
	if hub.Connections("p1") != 0 {
		t.Fatal("игрок без соединений должен удаляться")
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := service.NewMinesService(service.Config{RNGMode: service.RNGMath}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(NewHub(), svc, "")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := srv.Serve(w, r, r.URL.Query().Get("player_id")); err != nil {
			t.Logf("upgrade: %v", err)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, playerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?player_id=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if m := read(t, conn); m.Type != "ready" {
		t.Fatalf("ожидалось ready, получено %q", m.Type)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m Message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestClient_Commands(t *testing.T) {
	ts := newTestServer(t)
	tab1 := dial(t, ts, "p1")
	tab2 := dial(t, ts, "p1")

	send(t, tab1, `{"type":"start","id":"1","data":{"bet":"1.50","mine_count":3}}`)
	m := read(t, tab1)
	if m.Type != "start_result" || m.ID != "1" {
		t.Fatalf("неожиданный ответ: %+v", m)
	}
	var view service.SessionView
	if err := json.Unmarshal(m.Data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Status != game.StatusPlaying || view.ID == "" || view.Mines != nil {
		t.Fatalf("неверный снимок: %+v", view)
	}

	// вторая вкладка получает то же состояние
	if m := read(t, tab2); m.Type != "session" {
		t.Fatalf("вторая вкладка: ожидалось session, получено %q", m.Type)
	}

	send(t, tab1, `{"type":"reveal","id":"2","data":{"session_id":"`+view.ID+`"}}`)
	m = read(t, tab1)
	if m.Type != "error" || !strings.Contains(string(m.Data), "invalid_request") {
		t.Fatalf("ожидалась ошибка invalid_request: %+v", m)
	}

	send(t, tab1, `{"type":"cashout","id":"3","data":{"session_id":"`+view.ID+`"}}`)
	m = read(t, tab1)
	if m.Type != "error" || !strings.Contains(string(m.Data), "no_progress") {
		t.Fatalf("ожидалась ошибка no_progress: %s", m.Data)
	}

	send(t, tab1, `{"type":"reveal","id":"4","data":{"session_id":"`+view.ID+`","cell":0}}`)
	m = read(t, tab1)
	if m.Type != "reveal_result" {
		t.Fatalf("ожидался reveal_result: %+v", m)
	}
	var res service.RevealView
	if err := json.Unmarshal(m.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Cell != 0 || len(res.Session.Revealed) != 1 {
		t.Fatalf("неверный результат: %+v", res)
	}
}

func TestClient_Errors(t *testing.T) {
	ts := newTestServer(t)
	owner := dial(t, ts, "p1")
	intruder := dial(t, ts, "p2")

	send(t, owner, `{"type":"start","data":{"bet":"1","mine_count":5}}`)
	var view service.SessionView
	if err := json.Unmarshal(read(t, owner).Data, &view); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		conn *websocket.Conn
		raw  string
		code string
	}{
		{intruder, `{"type":"state","data":{"session_id":"` + view.ID + `"}}`, "forbidden"},
		{owner, `{"type":"state","data":{"session_id":"missing"}}`, "session_not_found"},
		{owner, `{"type":"fly"}`, "unknown_command"},
		{owner, `not json`, "invalid_request"},
		{owner, `{"type":"start","data":{"bet":"1","mine_count":25}}`, "invalid_mine_count"},
	}
	for _, tt := range tests {
		send(t, tt.conn, tt.raw)
		m := read(t, tt.conn)
		var e errorData
		if err := json.Unmarshal(m.Data, &e); err != nil {
			t.Fatal(err)
		}
		if m.Type != "error" || e.Code != tt.code {
			t.Fatalf("%s: ожидалась ошибка %s, получено %+v", tt.raw, tt.code, m)
		}
	}
}
