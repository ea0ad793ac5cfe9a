package ws

import (
	"encoding/json"
	"sync"

	"mines_webapp/internal/logger"
)

// Message - конверт всех сообщений канала
type Message struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hub держит открытые соединения по игрокам, чтобы изменения сессии
// из одной вкладки (или REST) доходили до остальных вкладок игрока
type Hub struct {
	mu      sync.RWMutex
	players map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		players: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.players[c.PlayerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.players[c.PlayerID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws: клиент подключен", "player_id", c.PlayerID, "connections", len(set))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.players[c.PlayerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.players, c.PlayerID)
	}
	logger.Debug("ws: клиент отключен", "player_id", c.PlayerID)
}

// Publish рассылает событие всем соединениям игрока, кроме except.
// Медленный клиент пропускает событие, а не блокирует рассылку.
func (h *Hub) Publish(playerID string, except *Client, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("ws: не удалось сериализовать событие", "error", err, "type", msgType)
		return
	}
	msg, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.players[playerID] {
		if c == except {
			continue
		}
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws: очередь клиента заполнена, событие пропущено", "player_id", playerID, "type", msgType)
		}
	}
}

// Connections возвращает число открытых соединений игрока
func (h *Hub) Connections(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players[playerID])
}
