package service

import (
	"errors"

	"mines_webapp/internal/fairness"
	"mines_webapp/internal/game"
)

// ErrorCode возвращает машиночитаемый код для ошибок движка и сервиса.
// Неизвестные ошибки получают пустой код.
func ErrorCode(err error) string {
	if code := game.ErrorCode(err); code != "" {
		return code
	}

	switch {
	case errors.Is(err, ErrBetTooLow):
		return "bet_too_low"
	case errors.Is(err, ErrBetTooHigh):
		return "bet_too_high"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, fairness.ErrHashMismatch):
		return "hash_mismatch"
	case errors.Is(err, game.ErrInvalidGridSize):
		return "invalid_grid_size"
	}
	return ""
}
