package bot

import (
	"fmt"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/protocol"
)

// ThresholdBot hits until its hand reaches a fixed total. A limit of 17
// plays like the dealer.
type ThresholdBot struct {
	limit int
}

// NewThresholdBot creates a bot that hits below limit.
func NewThresholdBot(limit int) *ThresholdBot {
	return &ThresholdBot{limit: limit}
}

func (b *ThresholdBot) Name() string { return fmt.Sprintf("threshold-%d", b.limit) }

func (b *ThresholdBot) Decide(hand deck.Hand, _ deck.Card) protocol.Decision {
	if hand.Total() < b.limit {
		return protocol.DecisionHit
	}
	return protocol.DecisionStand
}
