// Package client finds a blackjack host on the LAN and plays sessions
// against it. UIs plug in through two small interfaces: Presenter for
// output and DecisionMaker for hit-or-stand input.
package client

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/lox/lanjack/internal/game"
)

// Play discovers a host and plays one full session against it. It is
// the whole client lifecycle in one call; callers wanting to separate
// discovery from play use OfferListener and Session directly.
func Play(ctx context.Context, cfg *Config, presenter Presenter, decider DecisionMaker, logger *log.Logger) (game.Tally, error) {
	listener := NewOfferListener(cfg.DiscoveryPort, cfg.DiscoveryWait, logger)
	found, err := listener.Listen(ctx)
	if err != nil {
		return game.Tally{}, err
	}

	session := NewSession(cfg, found.Addr, presenter, decider, logger)
	return session.Run(ctx)
}
