package game

import "time"

type GameType string

const TypeMines GameType = "mines"

// Status - состояние сессии
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// IsTerminal сообщает, завершен ли раунд
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

// Outcome - результат одного открытия ячейки
type Outcome string

const (
	OutcomeMine      Outcome = "mine"
	OutcomeGem       Outcome = "gem"
	OutcomeGemAndWon Outcome = "gem_and_won"
)

const (
	DefaultGridSize = 25 // 5x5
	MinGridSize     = 2
	MaxGridSize     = 100 // 10x10
	MinMines        = 1

	// версия формата SessionView/RevealResult
	ViewVersion = 1
)

// DefaultMineMenu - варианты количества мин для интерфейса, движок принимает любое 1..N-1
var DefaultMineMenu = []int{1, 3, 5, 7, 10, 15}

// ValidGridSize сообщает, допустим ли размер поля
func ValidGridSize(gridSize int) bool {
	return gridSize >= MinGridSize && gridSize <= MaxGridSize
}

// MaxMines возвращает наибольшее допустимое количество мин для сетки
func MaxMines(gridSize int) int {
	return gridSize - 1
}

type clock func() time.Time
