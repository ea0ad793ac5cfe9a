package game

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
)

// Source - источник случайности для расстановки мин.
// Intn возвращает равномерно распределенное число в [0, n).
type Source interface {
	Intn(n int) int
}

// CryptoSource использует crypto/rand. Подходит для игры на реальные ставки.
type CryptoSource struct{}

func (CryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибок
		panic("game: crypto/rand failed: " + err.Error())
	}
	return int(v.Int64())
}

// MathSource - детерминированный генератор math/rand.
// Только для демо-режима и тестов, не для реальных ставок.
type MathSource struct {
	mu  sync.Mutex
	rnd *mrand.Rand
}

func NewMathSource(seed int64) *MathSource {
	return &MathSource{rnd: mrand.New(mrand.NewSource(seed))}
}

func (s *MathSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// PlaceMines выбирает mineCount различных ячеек из gridSize
// частичной перетасовкой Фишера-Йетса: ровно mineCount обращений к src,
// каждое подмножество равновероятно. Порядок результата - порядок выбора.
func PlaceMines(src Source, gridSize, mineCount int) []int {
	pool := make([]int, gridSize)
	for i := range pool {
		pool[i] = i
	}

	for i := 0; i < mineCount; i++ {
		j := i + src.Intn(gridSize-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	mines := make([]int, mineCount)
	copy(mines, pool[:mineCount])
	return mines
}
