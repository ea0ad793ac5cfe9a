package fairness

import (
	"testing"
)

func TestByteGenerator_Deterministic(t *testing.T) {
	a := NewByteGenerator("server", "client", 1)
	b := NewByteGenerator("server", "client", 1)

	// 40 байт - переход через границу 32-байтного блока
	for i := 0; i < 40; i++ {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("байт %d различается: %d != %d", i, x, y)
		}
	}
}

func TestByteGenerator_NonceChangesStream(t *testing.T) {
	a := NewByteGenerator("server", "client", 1)
	b := NewByteGenerator("server", "client", 2)

	same := true
	for i := 0; i < 8; i++ {
		if a.Next() != b.Next() {
			same = false
		}
	}
	if same {
		t.Fatalf("разные nonce дали одинаковый поток")
	}
}

func TestByteGenerator_FloatRange(t *testing.T) {
	bg := NewByteGenerator("test_server_seed", "test_client_seed", 7)
	for i := 0; i < 1000; i++ {
		f := bg.NextFloat()
		if f < 0 || f >= 1 {
			t.Fatalf("float %d вне [0, 1): %f", i, f)
		}
		if n := bg.Intn(25); n < 0 || n >= 25 {
			t.Fatalf("Intn вне [0, 25): %d", n)
		}
	}
}

func TestByteGenerator_IntnUsesWholeWord(t *testing.T) {
	a := NewByteGenerator("server", "client", 3)
	b := NewByteGenerator("server", "client", 3)

	// 2^32 mod 25 = 21: отбрасывание на первых словах практически исключено
	for i := 0; i < 16; i++ {
		want := int(b.NextUint32() % 25)
		if got := a.Intn(25); got != want {
			t.Fatalf("draw %d: получено %d, ожидалось %d", i, got, want)
		}
	}
}

func TestByteGenerator_IntnEdgeCases(t *testing.T) {
	bg := NewByteGenerator("server", "client", 5)
	for i := 0; i < 10; i++ {
		if n := bg.Intn(1); n != 0 {
			t.Fatalf("Intn(1) = %d", n)
		}
	}
	// Intn(1) не расходует поток
	fresh := NewByteGenerator("server", "client", 5)
	if bg.Next() != fresh.Next() {
		t.Fatalf("Intn(1) сдвинул поток")
	}
}

func TestByteGenerator_IntnCoversRange(t *testing.T) {
	const n, draws = 25, 25 * 400
	bg := NewByteGenerator("uniform_server", "uniform_client", 11)

	counts := make([]int, n)
	for i := 0; i < draws; i++ {
		counts[bg.Intn(n)]++
	}
	// ожидание 400 на значение, стандартное отклонение около 20
	for v, c := range counts {
		if c < 300 || c > 500 {
			t.Fatalf("значение %d выпало %d раз из %d", v, c, draws)
		}
	}
}
