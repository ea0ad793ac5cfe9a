package handlers

import (
	"errors"
	"net/http"

	"mines_webapp/internal/fairness"
	"mines_webapp/internal/game"
	"mines_webapp/internal/http/middleware"
	"mines_webapp/internal/logger"
	"mines_webapp/internal/service"
	"mines_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Mines   *service.MinesService
	Audit   *service.AuditService
	WS      *ws.Server
	Version string
}

func New(mines *service.MinesService, audit *service.AuditService, wsServer *ws.Server, version string) *Handler {
	return &Handler{
		Mines:   mines,
		Audit:   audit,
		WS:      wsServer,
		Version: version,
	}
}

func getPlayerID(c *gin.Context) (string, bool) {
	id := middleware.PlayerID(c)
	return id, id != ""
}

// publish отправляет новое состояние сессии в открытые вкладки игрока
func (h *Handler) publish(playerID string, view *service.SessionView) {
	if h.WS == nil || view == nil {
		return
	}
	h.WS.Hub.Publish(playerID, nil, "session", view)
}

// writeError переводит ошибки движка и сервиса в HTTP-ответ
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrAlreadyRevealed),
		errors.Is(err, game.ErrSessionActive),
		errors.Is(err, game.ErrNotPlaying),
		errors.Is(err, game.ErrNoProgress):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInvalidBet),
		errors.Is(err, game.ErrInvalidMineCount),
		errors.Is(err, game.ErrInvalidCell),
		errors.Is(err, game.ErrInvalidGridSize),
		errors.Is(err, service.ErrBetTooLow),
		errors.Is(err, service.ErrBetTooHigh),
		errors.Is(err, fairness.ErrHashMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		logger.Error("http: внутренняя ошибка", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error", "code": "internal"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": service.ErrorCode(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "code": "invalid_request"})
}

// Health - проверка живости
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"version":         h.Version,
		"active_sessions": h.Mines.ActiveGamesCount(),
	})
}
