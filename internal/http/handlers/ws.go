package handlers

import (
	"net/http"

	"mines_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

// ServeWS поднимает командный канал Mines для игрока
func (h *Handler) ServeWS(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player id required", "code": "unauthorized"})
		return
	}
	if h.WS == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "websocket disabled", "code": "unavailable"})
		return
	}

	// при ошибке upgrader уже записал ответ клиенту
	if err := h.WS.Serve(c.Writer, c.Request, playerID); err != nil {
		logger.Warn("ws upgrade error", "player_id", playerID, "error", err)
	}
}
