package bot

import (
	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/protocol"
)

// DealerBot plays the house policy from the player's seat: hit until
// the hand reaches 17.
type DealerBot struct{}

// NewDealerBot creates a new DealerBot instance.
func NewDealerBot() *DealerBot {
	return &DealerBot{}
}

func (b *DealerBot) Name() string { return "dealer" }

func (b *DealerBot) Decide(hand deck.Hand, _ deck.Card) protocol.Decision {
	if hand.Total() < 17 {
		return protocol.DecisionHit
	}
	return protocol.DecisionStand
}
