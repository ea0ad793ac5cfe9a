package handlers

import (
	"net/http"

	"mines_webapp/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// StartRequest - запрос на начало раунда; ставка и число мин проверяются сервисом
type StartRequest struct {
	Bet        decimal.Decimal `json:"bet"`
	MineCount  int             `json:"mine_count"`
	ClientSeed string          `json:"client_seed" binding:"max=64"`
}

type RevealRequest struct {
	Cell *int `json:"cell" binding:"required"`
}

type VerifyRequest struct {
	ServerSeed     string `json:"server_seed" binding:"required"`
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed" binding:"required"`
	Nonce          uint64 `json:"nonce"`
	GridSize       int    `json:"grid_size" binding:"omitempty,min=2,max=100"`
	MineCount      int    `json:"mine_count" binding:"required"`
}

// StartSession создает сессию и сразу начинает раунд
func (h *Handler) StartSession(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found", "code": "unauthorized"})
		return
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.Mines.StartGame(c.Request.Context(), playerID, req.Bet, req.MineCount, req.ClientSeed)
	if err != nil {
		writeError(c, err)
		return
	}
	h.publish(playerID, view)

	c.JSON(http.StatusCreated, view)
}

// RestartSession начинает новый раунд в существующей сессии
func (h *Handler) RestartSession(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found", "code": "unauthorized"})
		return
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.Mines.RestartGame(c.Request.Context(), playerID, c.Param("id"), req.Bet, req.MineCount, req.ClientSeed)
	if err != nil {
		writeError(c, err)
		return
	}
	h.publish(playerID, view)

	c.JSON(http.StatusOK, view)
}

// Reveal открывает ячейку
func (h *Handler) Reveal(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found", "code": "unauthorized"})
		return
	}

	var req RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Mines.Reveal(c.Request.Context(), playerID, c.Param("id"), *req.Cell)
	if err != nil {
		writeError(c, err)
		return
	}
	h.publish(playerID, &res.Session)

	c.JSON(http.StatusOK, res)
}

// CashOut забирает выигрыш
func (h *Handler) CashOut(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found", "code": "unauthorized"})
		return
	}

	view, err := h.Mines.CashOut(c.Request.Context(), playerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.publish(playerID, view)

	c.JSON(http.StatusOK, view)
}

func (h *Handler) Reset(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found", "code": "unauthorized"})
		return
	}

	view, err := h.Mines.Reset(c.Request.Context(), playerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.publish(playerID, view)

	c.JSON(http.StatusOK, view)
}

// State возвращает текущее состояние сессии
func (h *Handler) State(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found", "code": "unauthorized"})
		return
	}

	view, err := h.Mines.State(c.Request.Context(), playerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Info возвращает конфигурацию игры
func (h *Handler) Info(c *gin.Context) {
	gridSize := h.Mines.GridSize()
	maxMines := game.MaxMines(gridSize)

	// таблицы множителей для каждого допустимого количества мин
	tables := make(map[int][]string, maxMines)
	for mines := game.MinMines; mines <= maxMines; mines++ {
		row := game.MultiplierTable(gridSize, mines)
		out := make([]string, len(row))
		for i, m := range row {
			out[i] = m.StringFixed(2)
		}
		tables[mines] = out
	}

	limits := h.Mines.Limits()
	c.JSON(http.StatusOK, gin.H{
		"version":           game.ViewVersion,
		"grid_size":         gridSize,
		"min_mines":         game.MinMines,
		"max_mines":         maxMines,
		"mine_menu":         game.DefaultMineMenu,
		"min_bet":           limits.MinBet,
		"max_bet":           limits.MaxBet,
		"multiplier_tables": tables,
	})
}

// Verify пересчитывает расположение мин завершенного раунда
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mines, err := h.Mines.Verify(req.ServerSeed, req.ClientSeed, req.Nonce, req.ServerSeedHash, req.GridSize, req.MineCount)
	if err != nil {
		writeError(c, err)
		return
	}

	gridSize := req.GridSize
	if gridSize == 0 {
		gridSize = h.Mines.GridSize()
	}

	// hash_checked - sha256(server_seed) совпал с переданным server_seed_hash;
	// без хэша мины просто пересчитаны из сидов
	c.JSON(http.StatusOK, gin.H{
		"mines":        mines,
		"grid_size":    gridSize,
		"mine_count":   req.MineCount,
		"nonce":        req.Nonce,
		"hash_checked": req.ServerSeedHash != "",
	})
}
