package game

import "errors"

// Все ошибки движка - ошибки ввода или последовательности вызовов.
// Отклоненный вызов не меняет состояние сессии.
var (
	ErrInvalidBet       = errors.New("ставка должна быть положительной")
	ErrInvalidMineCount = errors.New("недопустимое количество мин")
	ErrInvalidCell      = errors.New("неверная позиция ячейки")
	ErrAlreadyRevealed  = errors.New("ячейка уже открыта")
	ErrNotPlaying       = errors.New("игра не активна")
	ErrNoProgress       = errors.New("нужно открыть хотя бы одну ячейку перед кэшаутом")
	ErrSessionActive    = errors.New("раунд уже идет")

	ErrInvalidGridSize = errors.New("размер поля должен быть от 2 до 100")
)

// ErrorCode возвращает машиночитаемый код ошибки движка или пустую строку
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidBet):
		return "invalid_bet"
	case errors.Is(err, ErrInvalidMineCount):
		return "invalid_mine_count"
	case errors.Is(err, ErrInvalidCell):
		return "invalid_cell"
	case errors.Is(err, ErrAlreadyRevealed):
		return "already_revealed"
	case errors.Is(err, ErrNotPlaying):
		return "not_playing"
	case errors.Is(err, ErrNoProgress):
		return "no_progress"
	case errors.Is(err, ErrSessionActive):
		return "session_active"
	}
	return ""
}
