package service

import (
	"errors"

	"mines_webapp/internal/game"

	"github.com/shopspring/decimal"
)

var (
	ErrBetTooLow  = errors.New("ставка ниже минимальной")
	ErrBetTooHigh = errors.New("ставка превышает максимальную")
)

// содержит конфигурацию лимитов ставок
type GameLimits struct {
	MinBet decimal.Decimal `json:"min_bet"`
	MaxBet decimal.Decimal `json:"max_bet"`
}

// лимиты по умолчанию
func DefaultLimits() GameLimits {
	return GameLimits{
		MinBet: decimal.RequireFromString("0.10"),
		MaxBet: decimal.NewFromInt(1000),
	}
}

// проверяет, находится ли ставка в разрешенных пределах.
// Неположительная ставка - ошибка движка, лимиты - политика сервиса.
func (l GameLimits) ValidateBet(bet decimal.Decimal) error {
	if !bet.IsPositive() {
		return game.ErrInvalidBet
	}
	if !l.MinBet.IsZero() && bet.LessThan(l.MinBet) {
		return ErrBetTooLow
	}
	if !l.MaxBet.IsZero() && bet.GreaterThan(l.MaxBet) {
		return ErrBetTooHigh
	}
	return nil
}
