package bot

import (
	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/protocol"
)

// BasicBot adjusts to the dealer's up card: it always hits 11 or less,
// plays to 17 against a strong up card, and otherwise stands to let the
// dealer chase a bust.
type BasicBot struct{}

// NewBasicBot creates a new BasicBot instance.
func NewBasicBot() *BasicBot {
	return &BasicBot{}
}

func (b *BasicBot) Name() string { return "basic" }

func (b *BasicBot) Decide(hand deck.Hand, dealerUp deck.Card) protocol.Decision {
	total := hand.Total()
	switch {
	case total <= 11:
		// No draw can bust an 11
		return protocol.DecisionHit
	case dealerUp.Value() >= 7:
		if total < 17 {
			return protocol.DecisionHit
		}
		return protocol.DecisionStand
	default:
		return protocol.DecisionStand
	}
}
