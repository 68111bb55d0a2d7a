// Package bot provides decision strategies and a headless runner for
// playing sessions without a human at the keyboard.
package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/protocol"
)

// Strategy decides whether to hit or stand. hand is the player's cards
// so far and dealerUp the dealer's visible card.
type Strategy interface {
	Name() string
	Decide(hand deck.Hand, dealerUp deck.Card) protocol.Decision
}

// ParseStrategy resolves a strategy spec to a Strategy: "dealer",
// "stand", "basic", or "threshold-N" where N is the total below which
// the bot keeps hitting.
func ParseStrategy(spec string) (Strategy, error) {
	switch {
	case spec == "dealer":
		return NewDealerBot(), nil
	case spec == "stand":
		return NewStandBot(), nil
	case spec == "basic":
		return NewBasicBot(), nil
	case strings.HasPrefix(spec, "threshold-"):
		limit, err := strconv.Atoi(strings.TrimPrefix(spec, "threshold-"))
		if err != nil || limit < 2 || limit > 21 {
			return nil, fmt.Errorf("invalid threshold in %q (want threshold-N with N between 2 and 21)", spec)
		}
		return NewThresholdBot(limit), nil
	}
	return nil, fmt.Errorf("unknown strategy %q (available: dealer, stand, basic, threshold-N)", spec)
}
