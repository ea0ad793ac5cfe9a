package domain

import "time"

// Логирование мастхев важных действий
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	PlayerID  string                 `db:"player_id" json:"player_id"`
	SessionID string                 `db:"session_id" json:"session_id,omitempty"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Категории совершенных действий
const (
	AuditCategoryGame     = "game"
	AuditCategorySecurity = "security"
)

const (
	// Игры
	AuditActionGameStart   = "game_start"
	AuditActionGameCashOut = "game_cashout"
	AuditActionGameWin     = "game_win"
	AuditActionGameLose    = "game_lose"
	AuditActionGameReset   = "game_reset"

	// Отклоненные запросы
	AuditActionForbidden = "forbidden_session"
)
