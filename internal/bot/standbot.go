package bot

import (
	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/protocol"
)

// StandBot stands on everything, sending each round straight to the
// dealer's turn. Useful as a predictable baseline.
type StandBot struct{}

// NewStandBot creates a new StandBot instance.
func NewStandBot() *StandBot {
	return &StandBot{}
}

func (b *StandBot) Name() string { return "stand" }

func (b *StandBot) Decide(deck.Hand, deck.Card) protocol.Decision {
	return protocol.DecisionStand
}
