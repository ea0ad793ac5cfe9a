package http

import (
	"mines_webapp/internal/http/handlers"
	"mines_webapp/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API; limiter может быть nil
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, limiter *middleware.RateLimiter) {
	r.GET("/health", h.Health)

	api := r.Group("/api/mines")

	// публичные
	public := api.Group("", limiter.Middleware())
	public.GET("/info", h.Info)
	public.GET("/leaderboard", h.GetLeaderboard)
	public.POST("/verify", h.Verify)

	// игрок определяется до лимитера, чтобы лимит считался по игроку
	player := api.Group("", middleware.RequirePlayer(), limiter.Middleware())
	player.POST("/sessions", h.StartSession)
	player.GET("/sessions/:id", h.State)
	player.POST("/sessions/:id/start", h.RestartSession)
	player.POST("/sessions/:id/reveal", h.Reveal)
	player.POST("/sessions/:id/cashout", h.CashOut)
	player.POST("/sessions/:id/reset", h.Reset)
	player.GET("/sessions/:id/audit", h.GetSessionAudit)
	player.GET("/history", h.GetHistory)
	player.GET("/audit", h.GetAudit)

	r.GET("/ws/mines", middleware.RequirePlayer(), limiter.Middleware(), h.ServeWS)
}
