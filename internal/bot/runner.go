package bot

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/lanjack/internal/client"
	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
)

// Runner plays sessions without a human. It satisfies both client
// interfaces, narrating updates to its logger and answering every
// decision request from its strategy. An optional per-decision delay
// paces play for demos.
type Runner struct {
	strategy Strategy
	delay    time.Duration
	clock    quartz.Clock
	logger   *log.Logger

	mu    sync.Mutex
	tally game.Tally
}

// NewRunner creates a runner for strategy. delay pauses each decision;
// zero plays at full speed.
func NewRunner(strategy Strategy, delay time.Duration, clock quartz.Clock, logger *log.Logger) *Runner {
	return &Runner{
		strategy: strategy,
		delay:    delay,
		clock:    clock,
		logger:   logger.WithPrefix("bot").With("strategy", strategy.Name()),
	}
}

// Run discovers a host and plays one full session.
func (r *Runner) Run(ctx context.Context, cfg *client.Config) (game.Tally, error) {
	return client.Play(ctx, cfg, r, r, r.logger)
}

// Tally returns the results recorded so far.
func (r *Runner) Tally() game.Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tally
}

func (r *Runner) OnRoundStart(round, of int) {
	r.logger.Debug("Round starting", "round", round, "of", of)
}

func (r *Runner) OnCardUpdate(result protocol.Result, card deck.Card, owner client.CardOwner) {
	if result.Terminal() {
		r.mu.Lock()
		r.tally.Count(result)
		r.mu.Unlock()
		r.logger.Info("Round over", "result", result.String())
		return
	}
	r.logger.Debug("Card dealt", "card", card.String(), "owner", owner.String())
}

func (r *Runner) OnSessionEnd(tally game.Tally) {
	r.mu.Lock()
	r.tally = tally
	r.mu.Unlock()
	r.logger.Info("Session complete", "tally", tally.String(), "win_rate", tally.WinRate())
}

// RequestDecision applies the strategy after the configured thinking
// delay.
func (r *Runner) RequestDecision(ctx context.Context, hand deck.Hand, dealerUp deck.Card) (protocol.Decision, error) {
	if r.delay > 0 {
		fired := make(chan struct{})
		timer := r.clock.AfterFunc(r.delay, func() { close(fired) })
		defer timer.Stop()
		select {
		case <-fired:
		case <-ctx.Done():
			return protocol.DecisionInvalid, ctx.Err()
		}
	}

	decision := r.strategy.Decide(hand, dealerUp)
	r.logger.Info("Decided",
		"hand", hand.String(),
		"total", hand.Total(),
		"dealer_up", dealerUp.String(),
		"decision", decision.String())
	return decision, nil
}
