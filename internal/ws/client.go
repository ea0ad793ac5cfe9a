package ws

import (
	"context"
	"encoding/json"
	"time"

	"mines_webapp/internal/logger"
	"mines_webapp/internal/service"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	commandTimeout = 5 * time.Second
	maxMessageSize = 4096
)

// Games - операции сервиса, доступные через WebSocket
type Games interface {
	StartGame(ctx context.Context, playerID string, bet decimal.Decimal, mineCount int, clientSeed string) (*service.SessionView, error)
	RestartGame(ctx context.Context, playerID, sessionID string, bet decimal.Decimal, mineCount int, clientSeed string) (*service.SessionView, error)
	Reveal(ctx context.Context, playerID, sessionID string, cell int) (*service.RevealView, error)
	CashOut(ctx context.Context, playerID, sessionID string) (*service.SessionView, error)
	Reset(ctx context.Context, playerID, sessionID string) (*service.SessionView, error)
	State(ctx context.Context, playerID, sessionID string) (*service.SessionView, error)
}

// данные команд клиента
type commandData struct {
	SessionID  string          `json:"session_id"`
	Bet        decimal.Decimal `json:"bet"`
	MineCount  int             `json:"mine_count"`
	ClientSeed string          `json:"client_seed"`
	Cell       *int            `json:"cell"`
}

type errorData struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type Client struct {
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte

	hub   *Hub
	games Games
	done  chan struct{}
}

func NewClient(playerID string, conn *websocket.Conn, hub *Hub, games Games) *Client {
	return &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		hub:      hub,
		games:    games,
		done:     make(chan struct{}),
	}
}

// Run регистрирует клиента и обслуживает соединение до его закрытия
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()

	c.reply(Message{Type: "ready"})
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: ошибка чтения", "player_id", c.PlayerID, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.replyError("", "invalid message", "invalid_request")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws: ошибка записи", "player_id", c.PlayerID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle выполняет одну команду и отвечает отправителю.
// Остальные соединения игрока получают обновленное состояние сессии.
func (c *Client) handle(msg Message) {
	var data commandData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.ID, "invalid data", "invalid_request")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var (
		result  interface{}
		session *service.SessionView
		err     error
	)

	switch msg.Type {
	case "start":
		if data.SessionID == "" {
			session, err = c.games.StartGame(ctx, c.PlayerID, data.Bet, data.MineCount, data.ClientSeed)
		} else {
			session, err = c.games.RestartGame(ctx, c.PlayerID, data.SessionID, data.Bet, data.MineCount, data.ClientSeed)
		}
		result = session
	case "reveal":
		if data.Cell == nil {
			c.replyError(msg.ID, "cell required", "invalid_request")
			return
		}
		var res *service.RevealView
		res, err = c.games.Reveal(ctx, c.PlayerID, data.SessionID, *data.Cell)
		if err == nil {
			result, session = res, &res.Session
		}
	case "cashout":
		session, err = c.games.CashOut(ctx, c.PlayerID, data.SessionID)
		result = session
	case "reset":
		session, err = c.games.Reset(ctx, c.PlayerID, data.SessionID)
		result = session
	case "state":
		session, err = c.games.State(ctx, c.PlayerID, data.SessionID)
		result = session
	default:
		c.replyError(msg.ID, "unknown command", "unknown_command")
		return
	}

	if err != nil {
		code := service.ErrorCode(err)
		text := err.Error()
		if code == "" {
			logger.Error("ws: ошибка команды", "player_id", c.PlayerID, "type", msg.Type, "error", err)
			code, text = "internal", "internal error"
		}
		c.replyError(msg.ID, text, code)
		return
	}

	payload, _ := json.Marshal(result)
	c.reply(Message{Type: msg.Type + "_result", ID: msg.ID, Data: payload})

	if msg.Type != "state" {
		c.hub.Publish(c.PlayerID, c, "session", session)
	}
}

func (c *Client) replyError(id, text, code string) {
	payload, _ := json.Marshal(errorData{Error: text, Code: code})
	c.reply(Message{Type: "error", ID: id, Data: payload})
}

func (c *Client) reply(msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.Send <- raw:
	case <-c.done:
	}
}
