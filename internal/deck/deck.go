package deck

import rand "math/rand/v2"

// Deck is a shuffled 52-card sequence owned by exactly one round at a
// time. Drawing from an exhausted deck refills and reshuffles in place, so
// a draw never fails; past 52 draws within one round this can hand out a
// card that was already seen, which is accepted behavior for runs that
// long.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a full deck shuffled with the provided RNG. The deck
// keeps the RNG for later reshuffles; callers must not share one RNG
// across concurrently-used decks.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.refill()
	d.shuffle()
	return d
}

// Draw removes and returns the top card. On an empty deck it first
// refills and reshuffles, so there is no error path.
func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		d.refill()
		d.shuffle()
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card
}

// Remaining returns the number of cards left before the next reshuffle.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

func (d *Deck) refill() {
	d.cards = d.cards[:0]
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Ace; rank <= King; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
}

// shuffle is a Fisher-Yates pass over the current contents.
func (d *Deck) shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}
