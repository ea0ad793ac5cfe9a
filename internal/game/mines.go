package game

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Session хранит все состояние одной игры в мины.
// Все мутирующие операции сериализуются мьютексом сессии,
// разные сессии не разделяют изменяемого состояния.
type Session struct {
	mu       sync.Mutex
	gridSize int
	src      Source
	now      clock

	status     Status
	bet        decimal.Decimal
	mineCount  int
	mines      []int  // позиции мин в порядке выбора
	isMine     []bool // индекс -> мина
	revealed   []int  // ячейки, открытые игроком, в порядке открытия
	isRevealed []bool
	gemsFound  int
	multiplier decimal.Decimal
	payout     decimal.Decimal
	hitCell    int
	cashedOut  bool
	startedAt  time.Time
	finishedAt time.Time
}

// NewSession создает сессию в состоянии Idle
func NewSession(gridSize int, src Source) (*Session, error) {
	if !ValidGridSize(gridSize) {
		return nil, ErrInvalidGridSize
	}
	if src == nil {
		src = CryptoSource{}
	}

	s := &Session{
		gridSize: gridSize,
		src:      src,
		now:      time.Now,
	}
	s.resetLocked()
	return s, nil
}

// SetClock подменяет источник времени (для тестов)
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Session) GridSize() int { return s.gridSize }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start начинает раунд с источником случайности сессии
func (s *Session) Start(bet decimal.Decimal, mineCount int) (View, error) {
	return s.StartWith(nil, bet, mineCount)
}

// StartWith начинает раунд, расставляя мины из src (nil - источник сессии).
// Из терминального состояния работает как неявный Reset.
func (s *Session) StartWith(src Source, bet decimal.Decimal, mineCount int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusPlaying {
		return View{}, ErrSessionActive
	}
	if !bet.IsPositive() {
		return View{}, ErrInvalidBet
	}
	if mineCount < MinMines || mineCount > MaxMines(s.gridSize) {
		return View{}, ErrInvalidMineCount
	}
	if src == nil {
		src = s.src
	}

	s.resetLocked()
	s.bet = bet
	s.mineCount = mineCount
	s.mines = PlaceMines(src, s.gridSize, mineCount)
	for _, m := range s.mines {
		s.isMine[m] = true
	}
	s.status = StatusPlaying
	s.startedAt = s.now()

	return s.viewLocked(), nil
}

// Reveal открывает ячейку cell
func (s *Session) Reveal(cell int) (RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying {
		return RevealResult{}, ErrNotPlaying
	}
	if cell < 0 || cell >= s.gridSize {
		return RevealResult{}, ErrInvalidCell
	}
	if s.isRevealed[cell] {
		return RevealResult{}, ErrAlreadyRevealed
	}

	s.revealed = append(s.revealed, cell)
	s.isRevealed[cell] = true

	var outcome Outcome
	if s.isMine[cell] {
		outcome = OutcomeMine
		s.status = StatusLost
		s.payout = decimal.Zero
		s.hitCell = cell
		s.finishedAt = s.now()
	} else {
		outcome = OutcomeGem
		s.gemsFound++
		s.multiplier = Multiplier(s.gridSize, s.mineCount, s.gemsFound)
		s.payout = Payout(s.bet, s.gridSize, s.mineCount, s.gemsFound)

		// полное открытие - автоматическая победа
		if s.gemsFound == s.gridSize-s.mineCount {
			outcome = OutcomeGemAndWon
			s.status = StatusWon
			s.finishedAt = s.now()
		}
	}

	return RevealResult{
		Version:    ViewVersion,
		Outcome:    outcome,
		Cell:       cell,
		GemsFound:  s.gemsFound,
		Multiplier: s.multiplier,
		Payout:     s.payout,
		Session:    s.viewLocked(),
	}, nil
}

// CashOut фиксирует текущий выигрыш
func (s *Session) CashOut() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying {
		return View{}, ErrNotPlaying
	}
	if s.gemsFound == 0 {
		return View{}, ErrNoProgress
	}

	s.payout = Payout(s.bet, s.gridSize, s.mineCount, s.gemsFound)
	s.status = StatusWon
	s.cashedOut = true
	s.finishedAt = s.now()

	return s.viewLocked(), nil
}

// Reset возвращает сессию в Idle, отбрасывая все данные раунда
func (s *Session) Reset() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	return s.viewLocked()
}

// View возвращает снимок состояния, безопасный для клиента
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) resetLocked() {
	s.status = StatusIdle
	s.bet = decimal.Zero
	s.mineCount = 0
	s.mines = nil
	s.isMine = make([]bool, s.gridSize)
	s.revealed = []int{}
	s.isRevealed = make([]bool, s.gridSize)
	s.gemsFound = 0
	s.multiplier = decimal.NewFromInt(1)
	s.payout = decimal.Zero
	s.hitCell = -1
	s.cashedOut = false
	s.startedAt = time.Time{}
	s.finishedAt = time.Time{}
}

func (s *Session) viewLocked() View {
	v := View{
		Version:        ViewVersion,
		Status:         s.status,
		GridSize:       s.gridSize,
		MineCount:      s.mineCount,
		Bet:            s.bet,
		GemsFound:      s.gemsFound,
		Multiplier:     s.multiplier,
		NextMultiplier: s.multiplier,
		Payout:         s.payout,
		Revealed:       append([]int{}, s.revealed...),
		CashedOut:      s.cashedOut,
	}

	if s.status == StatusPlaying && s.gemsFound < s.gridSize-s.mineCount {
		v.NextMultiplier = Multiplier(s.gridSize, s.mineCount, s.gemsFound+1)
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		v.StartedAt = &t
	}

	// расположение мин раскрывается только после окончания раунда
	if s.status.IsTerminal() {
		v.Mines = append([]int{}, s.mines...)
		t := s.finishedAt
		v.FinishedAt = &t
		if s.hitCell >= 0 {
			hit := s.hitCell
			v.HitCell = &hit
		}
	}

	return v
}
