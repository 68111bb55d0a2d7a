package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit. The numeric values are the ones carried on
// the wire (0 through 3).
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Ace is low on the wire (1) even though it
// always counts for 11 points.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the rank label used in game logs and the TUI
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten:
		return fmt.Sprintf("%d", int(r))
	default:
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Value returns the card's point value. Aces always count 11 and face
// cards count 10; there is no soft/hard distinction in this ruleset.
func (c Card) Value() int {
	switch {
	case c.Rank == Ace:
		return 11
	case c.Rank >= Jack:
		return 10
	default:
		return int(c.Rank)
	}
}

// Valid reports whether rank and suit are inside the ranges the wire
// format allows.
func (c Card) Valid() bool {
	return c.Rank >= Ace && c.Rank <= King && c.Suit >= Spades && c.Suit <= Clubs
}

// Hand is the ordered sequence of cards held by the player or the dealer
// for one round. It only ever grows by appending drawn cards.
type Hand []Card

// Total sums the point values of every card in the hand.
func (h Hand) Total() int {
	total := 0
	for _, c := range h {
		total += c.Value()
	}
	return total
}

// Bust returns true once the hand's total exceeds 21.
func (h Hand) Bust() bool {
	return h.Total() > 21
}

// String renders the hand for logs, e.g. "A♠ 10♥ (21)".
func (h Hand) String() string {
	if len(h) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s (%d)", strings.Join(parts, " "), h.Total())
}
