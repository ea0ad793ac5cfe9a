package service

import (
	"context"

	"mines_webapp/internal/domain"
	"mines_webapp/internal/logger"
)

// AuditStore - хранилище записей аудита
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*domain.AuditLog, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]*domain.AuditLog, error)
}

// обрабатывает логирование аудита
type AuditService struct {
	repo AuditStore
}

// создает новый сервис аудита; nil repo - аудит только в лог
func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// создает новую запись в журнале аудита
func (s *AuditService) Log(ctx context.Context, entry *domain.AuditLog) {
	if s == nil {
		return
	}
	if s.repo == nil {
		logger.Debug("audit", "action", entry.Action, "player_id", entry.PlayerID, "session_id", entry.SessionID)
		return
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", entry.Action, "player_id", entry.PlayerID)
	}
}

// логирует игровое действие
func (s *AuditService) LogGame(ctx context.Context, playerID, sessionID, action string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["game_type"] = "mines"

	s.Log(ctx, &domain.AuditLog{
		PlayerID:  playerID,
		SessionID: sessionID,
		Action:    action,
		Category:  domain.AuditCategoryGame,
		Details:   details,
	})
}

// логирует попытку доступа к чужой сессии
func (s *AuditService) LogForbidden(ctx context.Context, playerID, sessionID, owner string) {
	s.Log(ctx, &domain.AuditLog{
		PlayerID:  playerID,
		SessionID: sessionID,
		Action:    domain.AuditActionForbidden,
		Category:  domain.AuditCategorySecurity,
		Details:   map[string]interface{}{"owner": owner},
	})
}

// возвращает последние действия игрока
func (s *AuditService) ForPlayer(ctx context.Context, playerID string, limit int) ([]*domain.AuditLog, error) {
	if s == nil || s.repo == nil {
		return []*domain.AuditLog{}, nil
	}
	return s.repo.GetByPlayerID(ctx, playerID, clampLimit(limit))
}

// возвращает журнал сессии; записи других игроков (попытки доступа) не отдаются
func (s *AuditService) ForSession(ctx context.Context, playerID, sessionID string) ([]*domain.AuditLog, error) {
	if s == nil || s.repo == nil {
		return []*domain.AuditLog{}, nil
	}

	logs, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	own := make([]*domain.AuditLog, 0, len(logs))
	for _, l := range logs {
		if l.PlayerID == playerID {
			own = append(own, l)
		}
	}
	return own, nil
}
