package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mines_webapp/internal/config"
	"mines_webapp/internal/db"
	httpServer "mines_webapp/internal/http"
	"mines_webapp/internal/http/handlers"
	"mines_webapp/internal/http/middleware"
	"mines_webapp/internal/logger"
	"mines_webapp/internal/metrics"
	"mines_webapp/internal/repository"
	"mines_webapp/internal/service"
	"mines_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version устанавливается при сборке
var Version = "dev"

const cleanupInterval = time.Minute

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogFormat == "json")
	log := logger.Get()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// без DATABASE_URL история и аудит не сохраняются
	var (
		history    service.HistoryStore
		auditStore service.AuditStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect failed", "error", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate failed", "error", err)
		}
		history = repository.NewGameHistoryRepository(pool)
		auditStore = repository.NewAuditRepository(pool)
	} else {
		log.Warn("DATABASE_URL не задан - история и аудит только в логах")
	}

	audit := service.NewAuditService(auditStore)
	minesService, err := service.NewMinesService(service.Config{
		GridSize: cfg.GridSize,
		Limits: service.GameLimits{
			MinBet: cfg.MinBet,
			MaxBet: cfg.MaxBet,
		},
		SessionTTL: cfg.SessionTTL,
		RNGMode:    cfg.RNGMode,
		MathSeed:   time.Now().UnixNano(),
	}, history, audit, metrics.New(nil))
	if err != nil {
		logger.Fatal("mines service init failed", "error", err)
	}
	go minesService.RunCleanup(ctx, cleanupInterval)

	limiter := middleware.NewRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RateLimitPerMinute)
	defer limiter.Close()

	wsServer := ws.NewServer(ws.NewHub(), minesService, cfg.AllowedOrigin)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(cfg.AllowedOrigin))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.New(minesService, audit, wsServer, Version)
	httpServer.RegisterRoutes(r, h, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version, "rng_mode", cfg.RNGMode, "grid_size", cfg.GridSize)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// дописываем раунды, завершенные до остановки
	if err := minesService.Wait(shutdownCtx); err != nil {
		log.Error("archive writes not finished", "error", err)
	}

	log.Info("server exited")
}
