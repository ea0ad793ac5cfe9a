package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Server поднимает WebSocket-соединения игроков
type Server struct {
	Hub      *Hub
	games    Games
	upgrader websocket.Upgrader
}

// NewServer; пустой allowedOrigin пропускает любой Origin
func NewServer(hub *Hub, games Games, allowedOrigin string) *Server {
	return &Server{
		Hub:   hub,
		games: games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Serve обновляет соединение и запускает клиента в отдельной горутине
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, playerID string) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(playerID, conn, s.Hub, s.games)
	go client.Run()
	return nil
}
