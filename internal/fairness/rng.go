package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// ByteGenerator выдает поток байт HMAC-SHA256(serverSeed, "clientSeed:nonce:round")
type ByteGenerator struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

func NewByteGenerator(serverSeed, clientSeed string, nonce uint64) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
		nonce:      nonce,
	}
	bg.generateRound()
	return bg
}

// Next возвращает следующий байт потока
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= len(bg.buffer) {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat собирает число в [0, 1) из 4 байт
func (bg *ByteGenerator) NextFloat() float64 {
	result := 0.0
	for i := 0; i < 4; i++ {
		result += float64(bg.Next()) / math.Pow(256, float64(i+1))
	}
	return result
}

// NextUint32 собирает big-endian число из 4 байт
func (bg *ByteGenerator) NextUint32() uint32 {
	var b [4]byte
	for i := range b {
		b[i] = bg.Next()
	}
	return binary.BigEndian.Uint32(b[:])
}

// Intn реализует game.Source. Значения из неполного хвоста
// диапазона uint32 отбрасываются, поэтому распределение равномерное.
func (bg *ByteGenerator) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	const span = uint64(1) << 32
	limit := span - span%uint64(n)
	for {
		v := uint64(bg.NextUint32())
		if v < limit {
			return int(v % uint64(n))
		}
	}
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	fmt.Fprintf(h, "%s:%d:%d", bg.clientSeed, bg.nonce, bg.currentRound)
	copy(bg.buffer[:], h.Sum(nil))
}
