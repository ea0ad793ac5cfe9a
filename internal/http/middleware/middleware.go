package middleware

import (
	"net/http"
	"time"

	"mines_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	PlayerIDHeader = "X-Player-ID"
	playerIDKey    = "player_id"
	maxPlayerIDLen = 64
)

// CORS для фронта на другом домене; пустой allowedOrigin разрешает любой
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+PlayerIDHeader)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequirePlayer берет идентификатор игрока из заголовка шлюза
func RequirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(PlayerIDHeader)
		if id == "" {
			// браузерный WebSocket не умеет ставить заголовки
			id = c.Query("player_id")
		}
		if id == "" || len(id) > maxPlayerIDLen {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "player id required", "code": "unauthorized"})
			return
		}
		c.Set(playerIDKey, id)
		c.Next()
	}
}

// PlayerID возвращает игрока, установленного RequirePlayer
func PlayerID(c *gin.Context) string {
	return c.GetString(playerIDKey)
}

// RequestLogger пишет каждый запрос в slog
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"player_id", PlayerID(c),
		)
	}
}
