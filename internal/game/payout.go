package game

import "github.com/shopspring/decimal"

var (
	gemStep   = decimal.RequireFromString("0.25")
	riskBonus = decimal.RequireFromString("0.1")
)

// Multiplier рассчитывает множитель для gems открытых безопасных ячеек:
//
//	M = 1 + 0.25*gems + 0.1*gems/max(remaining, 1)
//
// где remaining - число еще не открытых безопасных ячеек.
// Результат округляется до 2 знаков (half-up).
func Multiplier(gridSize, mineCount, gems int) decimal.Decimal {
	if gems <= 0 {
		return decimal.NewFromInt(1)
	}

	safe := gridSize - mineCount
	remaining := safe - gems
	if remaining < 1 {
		remaining = 1
	}

	g := decimal.NewFromInt(int64(gems))
	m := decimal.NewFromInt(1).
		Add(gemStep.Mul(g)).
		Add(riskBonus.Mul(g).Div(decimal.NewFromInt(int64(remaining))))

	return m.Round(2)
}

// Payout = bet * M, всегда считается заново из (gems, mineCount, bet)
func Payout(bet decimal.Decimal, gridSize, mineCount, gems int) decimal.Decimal {
	return bet.Mul(Multiplier(gridSize, mineCount, gems))
}

// MultiplierTable возвращает множители для 1..safe открытых ячеек
func MultiplierTable(gridSize, mineCount int) []decimal.Decimal {
	safe := gridSize - mineCount
	if safe <= 0 {
		return nil
	}

	table := make([]decimal.Decimal, safe)
	for gems := 1; gems <= safe; gems++ {
		table[gems-1] = Multiplier(gridSize, mineCount, gems)
	}
	return table
}
