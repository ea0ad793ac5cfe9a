package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mines_webapp/internal/domain"
	"mines_webapp/internal/fairness"
	"mines_webapp/internal/game"
	"mines_webapp/internal/logger"
	"mines_webapp/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound = errors.New("сессия не найдена")
	ErrForbidden       = errors.New("сессия принадлежит другому игроку")
	ErrUnknownRNGMode  = errors.New("неизвестный режим RNG")
)

// Режимы генератора случайности. Выбор делается на границе сервиса:
// crypto и fair подходят для реальных ставок, math - только для демо.
const (
	RNGFair   = "fair"
	RNGCrypto = "crypto"
	RNGMath   = "math"
)

// HistoryStore - архив завершенных раундов
type HistoryStore interface {
	Create(ctx context.Context, h *domain.GameHistory) error
	GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*domain.GameHistory, error)
	GetTopMultipliers(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error)
}

type Config struct {
	GridSize   int
	Limits     GameLimits
	SessionTTL time.Duration
	RNGMode    string
	MathSeed   int64
}

// SessionView - снимок сессии с идентификатором и данными честности раунда
type SessionView struct {
	ID string `json:"id"`
	game.View
	Fairness *fairness.Commitment `json:"fairness,omitempty"`
}

// RevealView - результат открытия ячейки
type RevealView struct {
	Version    int             `json:"version"`
	Outcome    game.Outcome    `json:"outcome"`
	Cell       int             `json:"cell"`
	GemsFound  int             `json:"gems_found"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Session    SessionView     `json:"session"`
}

// запись реестра: сессия движка и параметры ее текущего раунда
type minesGame struct {
	id       string
	playerID string
	session  *game.Session

	mu         sync.Mutex
	round      *fairness.Round
	nonce      uint64
	lastActive time.Time
}

// управляет активными сессиями Mines
type MinesService struct {
	cfg     Config
	history HistoryStore
	audit   *AuditService
	metrics *metrics.Metrics
	mathSrc *game.MathSource
	now     func() time.Time

	games map[string]*minesGame
	mu    sync.RWMutex

	// фоновые записи в архив
	wg sync.WaitGroup
}

// создает новый сервис Mines; history и audit могут быть nil
func NewMinesService(cfg Config, history HistoryStore, audit *AuditService, m *metrics.Metrics) (*MinesService, error) {
	if cfg.GridSize == 0 {
		cfg.GridSize = game.DefaultGridSize
	}
	if !game.ValidGridSize(cfg.GridSize) {
		return nil, game.ErrInvalidGridSize
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}

	s := &MinesService{
		cfg:     cfg,
		history: history,
		audit:   audit,
		metrics: m,
		now:     time.Now,
		games:   make(map[string]*minesGame),
	}

	switch cfg.RNGMode {
	case "", RNGFair:
		s.cfg.RNGMode = RNGFair
	case RNGCrypto:
	case RNGMath:
		s.mathSrc = game.NewMathSource(cfg.MathSeed)
		logger.Warn("mines: math/rand генератор включен, только для демо")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRNGMode, cfg.RNGMode)
	}

	// без внешнего реестра метрики пишутся в приватный
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}

	return s, nil
}

func (s *MinesService) Limits() GameLimits { return s.cfg.Limits }
func (s *MinesService) GridSize() int      { return s.cfg.GridSize }

// начинает новую сессию и сразу первый раунд
func (s *MinesService) StartGame(ctx context.Context, playerID string, bet decimal.Decimal, mineCount int, clientSeed string) (*SessionView, error) {
	if err := s.cfg.Limits.ValidateBet(bet); err != nil {
		s.metrics.ObserveRejected(ErrorCode(err))
		return nil, err
	}

	session, err := game.NewSession(s.cfg.GridSize, s.defaultSource())
	if err != nil {
		return nil, err
	}

	g := &minesGame{
		id:         uuid.New().String(),
		playerID:   playerID,
		session:    session,
		lastActive: s.now(),
	}

	view, err := s.startRound(ctx, g, bet, mineCount, clientSeed)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.games[g.id] = g
	s.metrics.ActiveSessions.Set(float64(len(s.games)))
	s.mu.Unlock()

	return view, nil
}

// перезапускает существующую сессию (из idle или после окончания раунда)
func (s *MinesService) RestartGame(ctx context.Context, playerID, sessionID string, bet decimal.Decimal, mineCount int, clientSeed string) (*SessionView, error) {
	g, err := s.getOwned(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.Limits.ValidateBet(bet); err != nil {
		s.metrics.ObserveRejected(ErrorCode(err))
		return nil, err
	}

	return s.startRound(ctx, g, bet, mineCount, clientSeed)
}

func (s *MinesService) startRound(ctx context.Context, g *minesGame, bet decimal.Decimal, mineCount int, clientSeed string) (*SessionView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// при ошибке валидации раунд не тратится и nonce не растет
	if st := g.session.Status(); st == game.StatusPlaying {
		s.metrics.ObserveRejected(ErrorCode(game.ErrSessionActive))
		return nil, game.ErrSessionActive
	}

	var src game.Source
	var round *fairness.Round
	if s.cfg.RNGMode == RNGFair {
		var err error
		round, err = fairness.NewRound(clientSeed, g.nonce)
		if err != nil {
			return nil, err
		}
		src = round.Source()
	}

	view, err := g.session.StartWith(src, bet, mineCount)
	if err != nil {
		s.metrics.ObserveRejected(ErrorCode(err))
		return nil, err
	}

	g.round = round
	g.nonce++
	g.lastActive = s.now()

	s.metrics.ObserveStart(mineCount)
	s.audit.LogGame(ctx, g.playerID, g.id, domain.AuditActionGameStart, map[string]interface{}{
		"bet":        bet.String(),
		"mine_count": mineCount,
	})
	logger.Info("mines: раунд начат", "session_id", g.id, "player_id", g.playerID, "mine_count", mineCount, "bet", bet.String())

	return g.viewLocked(view), nil
}

// открывает ячейку
func (s *MinesService) Reveal(ctx context.Context, playerID, sessionID string, cell int) (*RevealView, error) {
	g, err := s.getOwned(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := g.session.Reveal(cell)
	if err != nil {
		s.metrics.ObserveRejected(ErrorCode(err))
		return nil, err
	}
	g.lastActive = s.now()
	s.metrics.ObserveReveal(res)

	if res.Session.Status.IsTerminal() {
		s.finish(g, res.Session)
	}

	return &RevealView{
		Version:    res.Version,
		Outcome:    res.Outcome,
		Cell:       res.Cell,
		GemsFound:  res.GemsFound,
		Multiplier: res.Multiplier,
		Payout:     res.Payout,
		Session:    *g.viewLocked(res.Session),
	}, nil
}

// забирает текущий выигрыш
func (s *MinesService) CashOut(ctx context.Context, playerID, sessionID string) (*SessionView, error) {
	g, err := s.getOwned(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	view, err := g.session.CashOut()
	if err != nil {
		s.metrics.ObserveRejected(ErrorCode(err))
		return nil, err
	}
	g.lastActive = s.now()
	s.metrics.ObserveCashOut(view)
	s.finish(g, view)

	return g.viewLocked(view), nil
}

// сбрасывает сессию в idle
func (s *MinesService) Reset(ctx context.Context, playerID, sessionID string) (*SessionView, error) {
	g, err := s.getOwned(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.session.Status()
	view := g.session.Reset()
	g.round = nil
	g.lastActive = s.now()

	s.audit.LogGame(ctx, g.playerID, g.id, domain.AuditActionGameReset, map[string]interface{}{
		"previous_status": string(prev),
	})

	return g.viewLocked(view), nil
}

// возвращает текущее состояние сессии
func (s *MinesService) State(ctx context.Context, playerID, sessionID string) (*SessionView, error) {
	g, err := s.getOwned(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked(g.session.View()), nil
}

// возвращает архив раундов игрока
func (s *MinesService) History(ctx context.Context, playerID string, limit int) ([]*domain.GameHistory, error) {
	if s.history == nil {
		return []*domain.GameHistory{}, nil
	}
	return s.history.GetByPlayerID(ctx, playerID, clampLimit(limit))
}

// лучшие множители
func (s *MinesService) Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	if s.history == nil {
		return []*domain.LeaderboardEntry{}, nil
	}
	return s.history.GetTopMultipliers(ctx, clampLimit(limit))
}

// пересчитывает раскладку доказуемо честного раунда
func (s *MinesService) Verify(serverSeed, clientSeed string, nonce uint64, serverSeedHash string, gridSize, mineCount int) ([]int, error) {
	if gridSize == 0 {
		gridSize = s.cfg.GridSize
	}
	return fairness.Verify(serverSeed, clientSeed, nonce, serverSeedHash, gridSize, mineCount)
}

// возвращает количество сессий в реестре
func (s *MinesService) ActiveGamesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// удаляет брошенные сессии, пока ctx не отменен
func (s *MinesService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictExpired(); n > 0 {
				logger.Info("mines: удалены неактивные сессии", "count", n)
			}
		}
	}
}

func (s *MinesService) evictExpired() int {
	deadline := s.now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, g := range s.games {
		g.mu.Lock()
		stale := g.lastActive.Before(deadline)
		g.mu.Unlock()
		if stale {
			delete(s.games, id)
			evicted++
		}
	}
	s.metrics.ActiveSessions.Set(float64(len(s.games)))
	return evicted
}

// Wait дожидается фоновых записей в архив
func (s *MinesService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MinesService) defaultSource() game.Source {
	if s.mathSrc != nil {
		return s.mathSrc
	}
	return game.CryptoSource{}
}

func (s *MinesService) getOwned(ctx context.Context, playerID, sessionID string) (*minesGame, error) {
	s.mu.RLock()
	g, ok := s.games[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if g.playerID != playerID {
		s.audit.LogForbidden(ctx, playerID, sessionID, g.playerID)
		return nil, ErrForbidden
	}
	return g, nil
}

// архивирует завершенный раунд; вызывается под g.mu
func (s *MinesService) finish(g *minesGame, view game.View) {
	result := domain.GameResultLose
	action := domain.AuditActionGameLose
	if view.Status == game.StatusWon {
		result = domain.GameResultWin
		action = domain.AuditActionGameWin
		if view.CashedOut {
			action = domain.AuditActionGameCashOut
		}
	}

	record := &domain.GameHistory{
		SessionID:  g.id,
		PlayerID:   g.playerID,
		Result:     result,
		BetAmount:  view.Bet,
		Multiplier: view.Multiplier,
		Payout:     view.Payout,
		MineCount:  view.MineCount,
		GridSize:   view.GridSize,
		GemsFound:  view.GemsFound,
		CashedOut:  view.CashedOut,
		Mines:      view.Mines,
		Revealed:   view.Revealed,
	}
	if view.StartedAt != nil {
		record.StartedAt = *view.StartedAt
	}
	if view.FinishedAt != nil {
		record.FinishedAt = *view.FinishedAt
	}
	if g.round != nil {
		record.ServerSeed = g.round.ServerSeed
		record.ServerSeedHash = g.round.ServerSeedHash()
		record.ClientSeed = g.round.ClientSeed
		record.Nonce = g.round.Nonce
	}

	logger.Info("mines: раунд завершен",
		"session_id", g.id,
		"player_id", g.playerID,
		"result", string(result),
		"gems_found", view.GemsFound,
		"payout", view.Payout.String(),
	)

	details := map[string]interface{}{
		"bet":        view.Bet.String(),
		"payout":     view.Payout.String(),
		"multiplier": view.Multiplier.String(),
		"profit":     view.Profit().String(),
		"gems_found": view.GemsFound,
	}

	// запись в архив не блокирует игрока
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.audit.LogGame(ctx, record.PlayerID, record.SessionID, action, details)
		if s.history == nil {
			return
		}
		if err := s.history.Create(ctx, record); err != nil {
			logger.Error("mines: не удалось сохранить раунд", "error", err, "session_id", record.SessionID)
		}
	}()
}

// viewLocked дополняет снимок движка id и данными честности; вызывается под g.mu
func (g *minesGame) viewLocked(v game.View) *SessionView {
	sv := &SessionView{ID: g.id, View: v}
	if g.round != nil {
		c := g.round.Commitment(v.Status.IsTerminal())
		sv.Fairness = &c
	}
	return sv
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
