package deck

import (
	"testing"

	"github.com/lox/lanjack/internal/randutil"
)

func TestNewDeckHoldsAllFiftyTwo(t *testing.T) {
	d := NewDeck(randutil.New(1))

	if d.Remaining() != 52 {
		t.Fatalf("Remaining() = %d, want 52", d.Remaining())
	}

	seen := make(map[Card]bool)
	for i := 0; i < 52; i++ {
		c := d.Draw()
		if !c.Valid() {
			t.Fatalf("draw %d produced invalid card %+v", i, c)
		}
		if seen[c] {
			t.Fatalf("draw %d produced duplicate card %s", i, c)
		}
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Errorf("drew %d distinct cards, want 52", len(seen))
	}
}

func TestDrawPastExhaustionReshuffles(t *testing.T) {
	d := NewDeck(randutil.New(7))

	for i := 0; i < 52; i++ {
		d.Draw()
	}
	if d.Remaining() != 0 {
		t.Fatalf("Remaining() after 52 draws = %d, want 0", d.Remaining())
	}

	// The 53rd draw must succeed from a silent refill rather than fail.
	c := d.Draw()
	if !c.Valid() {
		t.Fatalf("53rd draw produced invalid card %+v", c)
	}
	if d.Remaining() != 51 {
		t.Errorf("Remaining() after refill draw = %d, want 51", d.Remaining())
	}
}

func TestSameSeedSameOrder(t *testing.T) {
	a := NewDeck(randutil.New(42))
	b := NewDeck(randutil.New(42))

	for i := 0; i < 52; i++ {
		if ca, cb := a.Draw(), b.Draw(); ca != cb {
			t.Fatalf("draw %d differs: %s vs %s", i, ca, cb)
		}
	}
}

func TestDifferentSeedsDifferentOrder(t *testing.T) {
	a := NewDeck(randutil.New(1))
	b := NewDeck(randutil.New(2))

	same := true
	for i := 0; i < 52; i++ {
		if a.Draw() != b.Draw() {
			same = false
			break
		}
	}
	if same {
		t.Error("decks seeded differently drew identical sequences")
	}
}
