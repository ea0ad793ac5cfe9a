package game

import (
	"time"

	"github.com/shopspring/decimal"
)

// View - снимок сессии для клиента.
// Mines и HitCell заполняются только в состояниях won/lost.
type View struct {
	Version        int             `json:"version"`
	Status         Status          `json:"status"`
	GridSize       int             `json:"grid_size"`
	MineCount      int             `json:"mine_count"`
	Bet            decimal.Decimal `json:"bet"`
	GemsFound      int             `json:"gems_found"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	NextMultiplier decimal.Decimal `json:"next_multiplier"`
	Payout         decimal.Decimal `json:"payout"`
	Revealed       []int           `json:"revealed"`
	Mines          []int           `json:"mines,omitempty"`
	HitCell        *int            `json:"hit_cell,omitempty"`
	CashedOut      bool            `json:"cashed_out"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
}

// RevealResult - ответ на открытие ячейки
type RevealResult struct {
	Version    int             `json:"version"`
	Outcome    Outcome         `json:"outcome"`
	Cell       int             `json:"cell"`
	GemsFound  int             `json:"gems_found"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Session    View            `json:"session"`
}

// Profit возвращает чистый результат раунда (выигрыш - ставка)
func (v View) Profit() decimal.Decimal {
	if v.Status == StatusWon {
		return v.Payout.Sub(v.Bet)
	}
	return v.Bet.Neg()
}
