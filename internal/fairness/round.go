package fairness

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"mines_webapp/internal/game"
)

var ErrHashMismatch = errors.New("server seed не соответствует опубликованному хэшу")

// Round - параметры доказуемо честного раунда.
// Хэш серверного сида публикуется до начала игры,
// сам сид раскрывается только после окончания раунда.
type Round struct {
	ServerSeed string
	ClientSeed string
	Nonce      uint64
}

// Commitment - то, что видит клиент
type Commitment struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          uint64 `json:"nonce"`
	ServerSeed     string `json:"server_seed,omitempty"`
}

// NewRound генерирует новый серверный сид. Пустой clientSeed заменяется случайным.
func NewRound(clientSeed string, nonce uint64) (*Round, error) {
	serverSeed, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate server seed: %w", err)
	}
	if clientSeed == "" {
		if clientSeed, err = randomHex(8); err != nil {
			return nil, fmt.Errorf("generate client seed: %w", err)
		}
	}

	return &Round{
		ServerSeed: serverSeed,
		ClientSeed: clientSeed,
		Nonce:      nonce,
	}, nil
}

// Source возвращает источник случайности раунда
func (r *Round) Source() game.Source {
	return NewByteGenerator(r.ServerSeed, r.ClientSeed, r.Nonce)
}

func (r *Round) ServerSeedHash() string {
	return HashSeed(r.ServerSeed)
}

// Commitment возвращает публичные данные; revealSeed раскрывает серверный сид
func (r *Round) Commitment(revealSeed bool) Commitment {
	c := Commitment{
		ServerSeedHash: r.ServerSeedHash(),
		ClientSeed:     r.ClientSeed,
		Nonce:          r.Nonce,
	}
	if revealSeed {
		c.ServerSeed = r.ServerSeed
	}
	return c
}

func HashSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// Verify пересчитывает расположение мин по раскрытым параметрам раунда.
// Непустой expectedHash сверяется с хэшем серверного сида.
// Размер поля ограничен game.MaxGridSize: он приходит от клиента.
func Verify(serverSeed, clientSeed string, nonce uint64, expectedHash string, gridSize, mineCount int) ([]int, error) {
	if expectedHash != "" && HashSeed(serverSeed) != expectedHash {
		return nil, ErrHashMismatch
	}
	if !game.ValidGridSize(gridSize) {
		return nil, game.ErrInvalidGridSize
	}
	if mineCount < game.MinMines || mineCount > game.MaxMines(gridSize) {
		return nil, game.ErrInvalidMineCount
	}

	return game.PlaceMines(NewByteGenerator(serverSeed, clientSeed, nonce), gridSize, mineCount), nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
