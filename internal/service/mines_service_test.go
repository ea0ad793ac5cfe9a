package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mines_webapp/internal/domain"
	"mines_webapp/internal/fairness"
	"mines_webapp/internal/game"
	"mines_webapp/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type fakeHistory struct {
	mu      sync.Mutex
	records []*domain.GameHistory
}

func (f *fakeHistory) Create(ctx context.Context, h *domain.GameHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = int64(len(f.records) + 1)
	f.records = append(f.records, h)
	return nil
}

func (f *fakeHistory) GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*domain.GameHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.GameHistory
	for _, r := range f.records {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistory) GetTopMultipliers(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	return nil, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAudit) Create(ctx context.Context, log *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeAudit) GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for _, e := range f.entries {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAudit) GetBySessionID(ctx context.Context, sessionID string) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for _, e := range f.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

func newTestService(t *testing.T, mode string) (*MinesService, *fakeHistory, *fakeAudit) {
	t.Helper()
	history := &fakeHistory{}
	audit := &fakeAudit{}
	svc, err := NewMinesService(Config{
		Limits:  DefaultLimits(),
		RNGMode: mode,
	}, history, NewAuditService(audit), metrics.New(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("NewMinesService: %v", err)
	}
	return svc, history, audit
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// safeCell возвращает первую ячейку без мины, пересчитывая раскладку по сиду раунда
func safeCell(t *testing.T, svc *MinesService, id string, mineCount int) int {
	t.Helper()
	svc.mu.RLock()
	g := svc.games[id]
	svc.mu.RUnlock()

	g.mu.Lock()
	round := g.round
	g.mu.Unlock()

	mines, err := fairness.Verify(round.ServerSeed, round.ClientSeed, round.Nonce, "", game.DefaultGridSize, mineCount)
	if err != nil {
		t.Fatal(err)
	}
	isMine := make(map[int]bool)
	for _, m := range mines {
		isMine[m] = true
	}
	for cell := 0; cell < game.DefaultGridSize; cell++ {
		if !isMine[cell] {
			return cell
		}
	}
	t.Fatal("нет безопасных ячеек")
	return -1
}

func TestMinesService_StartHidesLayout(t *testing.T) {
	svc, _, _ := newTestService(t, RNGFair)
	ctx := context.Background()

	view, err := svc.StartGame(ctx, "p1", dec("1.00"), 5, "my-seed")
	if err != nil {
		t.Fatal(err)
	}
	if view.ID == "" || view.Status != game.StatusPlaying {
		t.Fatalf("неожиданный снимок: %+v", view)
	}
	if view.Mines != nil {
		t.Fatalf("мины раскрыты во время игры")
	}
	if view.Fairness == nil || view.Fairness.ServerSeed != "" || view.Fairness.ServerSeedHash == "" {
		t.Fatalf("ожидался только хэш серверного сида: %+v", view.Fairness)
	}
	if view.Fairness.ClientSeed != "my-seed" || view.Fairness.Nonce != 0 {
		t.Fatalf("неверные параметры раунда: %+v", view.Fairness)
	}
	if svc.ActiveGamesCount() != 1 {
		t.Fatalf("ожидалась 1 сессия в реестре")
	}
}

func TestMinesService_CashOutArchivesRound(t *testing.T) {
	svc, history, audit := newTestService(t, RNGFair)
	ctx := context.Background()

	view, err := svc.StartGame(ctx, "p1", dec("2"), 3, "")
	if err != nil {
		t.Fatal(err)
	}
	hash := view.Fairness.ServerSeedHash

	cell := safeCell(t, svc, view.ID, 3)
	res, err := svc.Reveal(ctx, "p1", view.ID, cell)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != game.OutcomeGem || res.GemsFound != 1 {
		t.Fatalf("ожидался gem: %+v", res)
	}

	final, err := svc.CashOut(ctx, "p1", view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != game.StatusWon || !final.CashedOut {
		t.Fatalf("ожидался won: %+v", final)
	}
	if final.Fairness.ServerSeed == "" || fairness.HashSeed(final.Fairness.ServerSeed) != hash {
		t.Fatalf("серверный сид не раскрыт или не совпадает с хэшем")
	}

	mines, err := svc.Verify(final.Fairness.ServerSeed, final.Fairness.ClientSeed, final.Fairness.Nonce, hash, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range mines {
		if mines[i] != final.Mines[i] {
			t.Fatalf("проверка не воспроизвела раскладку: %v != %v", mines, final.Mines)
		}
	}

	if err := svc.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	records, _ := svc.History(ctx, "p1", 10)
	if len(records) != 1 {
		t.Fatalf("ожидалась 1 запись в архиве, получено %d", len(history.records))
	}
	rec := records[0]
	if rec.Result != domain.GameResultWin || !rec.CashedOut || !rec.Payout.Equal(final.Payout) || rec.ServerSeedHash != hash {
		t.Fatalf("неверная запись архива: %+v", rec)
	}

	actions := audit.actions()
	if len(actions) != 2 || actions[0] != domain.AuditActionGameStart || actions[1] != domain.AuditActionGameCashOut {
		t.Fatalf("неожиданный аудит: %v", actions)
	}
}

func TestMinesService_Ownership(t *testing.T) {
	svc, _, audit := newTestService(t, RNGCrypto)
	ctx := context.Background()

	view, err := svc.StartGame(ctx, "p1", dec("1"), 5, "")
	if err != nil {
		t.Fatal(err)
	}
	if view.Fairness != nil {
		t.Fatalf("в режиме crypto блока fairness быть не должно")
	}

	if _, err := svc.Reveal(ctx, "p2", view.ID, 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("ожидалась ErrForbidden, получено %v", err)
	}
	if _, err := svc.State(ctx, "p1", "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("ожидалась ErrSessionNotFound, получено %v", err)
	}

	found := false
	for _, a := range audit.actions() {
		if a == domain.AuditActionForbidden {
			found = true
		}
	}
	if !found {
		t.Fatalf("попытка доступа к чужой сессии не попала в аудит")
	}

	// владелец не видит чужие попытки в журнале своей сессии
	trail, err := svc.audit.ForSession(ctx, "p1", view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trail) != 1 || trail[0].Action != domain.AuditActionGameStart {
		t.Fatalf("неожиданный журнал сессии: %+v", trail)
	}
	mine, _ := svc.audit.ForPlayer(ctx, "p2", 10)
	if len(mine) != 1 || mine[0].Action != domain.AuditActionForbidden {
		t.Fatalf("неожиданный журнал игрока: %+v", mine)
	}
}

func TestMinesService_BetLimits(t *testing.T) {
	svc, _, _ := newTestService(t, RNGFair)
	ctx := context.Background()

	tests := []struct {
		bet     string
		wantErr error
	}{
		{"0", game.ErrInvalidBet},
		{"0.01", ErrBetTooLow},
		{"1000.01", ErrBetTooHigh},
		{"1000", nil},
	}
	for _, tt := range tests {
		_, err := svc.StartGame(ctx, "p1", dec(tt.bet), 5, "")
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("bet %s: ожидалась %v, получено %v", tt.bet, tt.wantErr, err)
		}
	}

	if _, err := svc.StartGame(ctx, "p1", dec("1"), 25, ""); !errors.Is(err, game.ErrInvalidMineCount) {
		t.Fatalf("ожидалась ErrInvalidMineCount, получено %v", err)
	}
	if svc.ActiveGamesCount() != 1 {
		t.Fatalf("отклоненные старты не должны попадать в реестр")
	}
}

func TestMinesService_RestartAndReset(t *testing.T) {
	svc, _, _ := newTestService(t, RNGFair)
	ctx := context.Background()

	view, err := svc.StartGame(ctx, "p1", dec("1"), 24, "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RestartGame(ctx, "p1", view.ID, dec("1"), 3, ""); !errors.Is(err, game.ErrSessionActive) {
		t.Fatalf("ожидалась ErrSessionActive, получено %v", err)
	}

	idle, err := svc.Reset(ctx, "p1", view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if idle.Status != game.StatusIdle || idle.Fairness != nil || idle.Mines != nil {
		t.Fatalf("reset не очистил сессию: %+v", idle)
	}

	again, err := svc.RestartGame(ctx, "p1", view.ID, dec("3"), 3, "")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != view.ID || again.Status != game.StatusPlaying || again.Fairness.Nonce != 1 {
		t.Fatalf("ожидался новый раунд той же сессии с nonce=1: %+v", again)
	}
}

func TestMinesService_MathModeDeterministic(t *testing.T) {
	play := func() []int {
		svc, _, _ := newTestService(t, RNGMath)
		ctx := context.Background()
		view, err := svc.StartGame(ctx, "p1", dec("1"), 10, "")
		if err != nil {
			t.Fatal(err)
		}
		for cell := 0; cell < game.DefaultGridSize; cell++ {
			res, err := svc.Reveal(ctx, "p1", view.ID, cell)
			if err != nil {
				t.Fatal(err)
			}
			if res.Session.Status.IsTerminal() {
				return res.Session.Mines
			}
		}
		t.Fatal("раунд не завершился")
		return nil
	}

	a, b := play(), play()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("один и тот же сид дал разные раскладки: %v != %v", a, b)
		}
	}

	if _, err := NewMinesService(Config{RNGMode: "dice"}, nil, nil, nil); !errors.Is(err, ErrUnknownRNGMode) {
		t.Fatalf("ожидалась ErrUnknownRNGMode, получено %v", err)
	}
}

func TestMinesService_GridSizeBounds(t *testing.T) {
	if _, err := NewMinesService(Config{GridSize: game.MaxGridSize + 1}, nil, nil, nil); !errors.Is(err, game.ErrInvalidGridSize) {
		t.Fatalf("ожидалась ErrInvalidGridSize, получено %v", err)
	}

	svc, err := NewMinesService(Config{GridSize: 16}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewMinesService: %v", err)
	}
	if _, err := svc.Verify("s", "c", 1, "", game.MaxGridSize+1, 1); !errors.Is(err, game.ErrInvalidGridSize) {
		t.Fatalf("ожидалась ErrInvalidGridSize, получено %v", err)
	}
}

func TestMinesService_EvictExpired(t *testing.T) {
	svc, _, _ := newTestService(t, RNGCrypto)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	old, err := svc.StartGame(ctx, "p1", dec("1"), 5, "")
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(50 * time.Minute)
	fresh, err := svc.StartGame(ctx, "p2", dec("1"), 5, "")
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(20 * time.Minute)
	if n := svc.evictExpired(); n != 1 {
		t.Fatalf("ожидалось удаление 1 сессии, удалено %d", n)
	}
	if _, err := svc.State(ctx, "p1", old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("устаревшая сессия должна быть удалена, получено %v", err)
	}
	if _, err := svc.State(ctx, "p2", fresh.ID); err != nil {
		t.Fatalf("активная сессия удалена: %v", err)
	}
}

func TestMinesService_NoStores(t *testing.T) {
	svc, err := NewMinesService(Config{}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	view, err := svc.StartGame(ctx, "p1", dec("5"), 1, "")
	if err != nil {
		t.Fatal(err)
	}
	for cell := 0; cell < game.DefaultGridSize; cell++ {
		res, err := svc.Reveal(ctx, "p1", view.ID, cell)
		if err != nil {
			t.Fatal(err)
		}
		if res.Session.Status.IsTerminal() {
			break
		}
	}
	if err := svc.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	records, err := svc.History(ctx, "p1", 10)
	if err != nil || len(records) != 0 {
		t.Fatalf("без хранилища история должна быть пустой: %v %v", records, err)
	}
}
