package repository

import (
	"context"
	"encoding/json"

	"mines_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// отвечает за операции с базой данных для логов аудита
type AuditRepository struct {
	db *pgxpool.Pool
}

// создает новый репозиторий для логов аудита
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// создает новую запись в логе аудита
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (player_id, session_id, action, category, details, ip)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.PlayerID, log.SessionID, log.Action, log.Category, detailsJSON, log.IP)
	return err
}

// возвращает логи аудита игрока
func (r *AuditRepository) GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, session_id, action, category, details, ip, created_at
		FROM audit_logs
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// возвращает логи аудита по сессии
func (r *AuditRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, session_id, action, category, details, ip, created_at
		FROM audit_logs
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// преобразует строки из БД в структуры AuditLog
func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.PlayerID, &log.SessionID, &log.Action, &log.Category, &detailsJSON, &log.IP, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
