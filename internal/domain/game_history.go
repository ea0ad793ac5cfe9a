package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type GameResult string

const (
	GameResultWin  GameResult = "win"
	GameResultLose GameResult = "lose"
)

// Архив завершенного раунда: неизменяемая запись для аудита и повторной проверки
type GameHistory struct {
	ID             int64           `db:"id" json:"id"`
	SessionID      string          `db:"session_id" json:"session_id"`
	PlayerID       string          `db:"player_id" json:"player_id"`
	Result         GameResult      `db:"result" json:"result"`
	BetAmount      decimal.Decimal `db:"bet_amount" json:"bet_amount"`
	Multiplier     decimal.Decimal `db:"multiplier" json:"multiplier"`
	Payout         decimal.Decimal `db:"payout" json:"payout"`
	MineCount      int             `db:"mine_count" json:"mine_count"`
	GridSize       int             `db:"grid_size" json:"grid_size"`
	GemsFound      int             `db:"gems_found" json:"gems_found"`
	CashedOut      bool            `db:"cashed_out" json:"cashed_out"`
	Mines          []int           `db:"mines" json:"mines"`
	Revealed       []int           `db:"revealed" json:"revealed"`
	ServerSeed     string          `db:"server_seed" json:"server_seed,omitempty"`
	ServerSeedHash string          `db:"server_seed_hash" json:"server_seed_hash,omitempty"`
	ClientSeed     string          `db:"client_seed" json:"client_seed,omitempty"`
	Nonce          uint64          `db:"nonce" json:"nonce"`
	StartedAt      time.Time       `db:"started_at" json:"started_at"`
	FinishedAt     time.Time       `db:"finished_at" json:"finished_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Строка таблицы лидеров по множителю
type LeaderboardEntry struct {
	PlayerID   string          `json:"player_id"`
	SessionID  string          `json:"session_id"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	MineCount  int             `json:"mine_count"`
	FinishedAt time.Time       `json:"finished_at"`
}
