// Package game implements the authoritative state machine for one round
// of the hit/stand comparison game, plus the session-level events the host
// publishes as rounds run.
package game

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/protocol"
)

// CardSource deals cards to a round. *deck.Deck satisfies it; tests use
// scripted sources.
type CardSource interface {
	Draw() deck.Card
}

// CardSink receives every CardUpdate a round produces, in order. On the
// host this writes frames to the session connection; in tests it records.
type CardSink interface {
	SendCardUpdate(protocol.CardUpdate) error
}

// DecisionSource supplies the player's choice for one PlayerTurn
// iteration. A returned error aborts the round (and the session); an
// Invalid decision is handled as Stand, never as an error.
type DecisionSource interface {
	NextDecision() (protocol.Decision, error)
}

// dealerStand is the total at which the dealer stops drawing.
const dealerStand = 17

// Round drives a single deal-to-outcome unit: deal two cards each, let the
// player hit or stand, run the dealer policy, settle. A Round owns its
// card source and hands and is single-use; the session runner creates a
// fresh one (with a fresh deck) per round.
type Round struct {
	cards  CardSource
	player deck.Hand
	dealer deck.Hand
	logger *log.Logger
}

// NewRound creates a round that will draw from cards.
func NewRound(cards CardSource, logger *log.Logger) *Round {
	return &Round{
		cards:  cards,
		logger: logger.WithPrefix("round"),
	}
}

// PlayerHand returns the player's cards dealt so far.
func (r *Round) PlayerHand() deck.Hand { return r.player }

// DealerHand returns the dealer's cards dealt so far, hole card included.
func (r *Round) DealerHand() deck.Hand { return r.dealer }

// Play runs the round to completion and returns its terminal result.
// Exactly one terminal CardUpdate is sent per completed round and it is
// always the last; every earlier update carries ResultNotOver. A sink or
// decision error aborts the round mid-flight and propagates unchanged.
func (r *Round) Play(sink CardSink, decisions DecisionSource) (protocol.Result, error) {
	if err := r.deal(sink); err != nil {
		return protocol.ResultNotOver, err
	}

	// A 21 straight off the deal wins immediately; the dealer's hole
	// card stays hidden and the dealer never acts.
	if r.player.Total() == 21 {
		return r.finish(sink, protocol.ResultWin, r.player[len(r.player)-1])
	}

	result, settled, err := r.playerTurn(sink, decisions)
	if err != nil {
		return protocol.ResultNotOver, err
	}
	if settled {
		return result, nil
	}

	if err := r.dealerTurn(sink); err != nil {
		return protocol.ResultNotOver, err
	}

	return r.settle(sink)
}

// deal draws the opening hands and announces the player's cards and the
// dealer's upcard. The hole card is drawn but not announced.
func (r *Round) deal(sink CardSink) error {
	r.player = append(r.player, r.cards.Draw(), r.cards.Draw())
	r.dealer = append(r.dealer, r.cards.Draw(), r.cards.Draw())

	r.logger.Debug("dealt", "player", r.player.String(), "dealer_up", r.dealer[0].String())

	for _, c := range r.player {
		if err := r.send(sink, protocol.ResultNotOver, c); err != nil {
			return err
		}
	}
	return r.send(sink, protocol.ResultNotOver, r.dealer[0])
}

// playerTurn loops one decision per iteration until the player stands,
// busts, or reaches 21. Returns settled=true when the round ended here.
func (r *Round) playerTurn(sink CardSink, decisions DecisionSource) (protocol.Result, bool, error) {
	for {
		decision, err := decisions.NextDecision()
		if err != nil {
			return protocol.ResultNotOver, false, fmt.Errorf("reading decision: %w", err)
		}
		if decision != protocol.DecisionHit {
			// Stand, and Invalid coerced to Stand.
			if decision == protocol.DecisionInvalid {
				r.logger.Debug("invalid decision treated as stand")
			}
			return protocol.ResultNotOver, false, nil
		}

		card := r.cards.Draw()
		r.player = append(r.player, card)
		if err := r.send(sink, protocol.ResultNotOver, card); err != nil {
			return protocol.ResultNotOver, false, err
		}

		total := r.player.Total()
		r.logger.Debug("player hit", "card", card.String(), "total", total)
		switch {
		case total > 21:
			result, err := r.finish(sink, protocol.ResultLoss, card)
			return result, true, err
		case total == 21:
			result, err := r.finish(sink, protocol.ResultWin, card)
			return result, true, err
		}
	}
}

// dealerTurn reveals the hole card and draws to the stand threshold.
func (r *Round) dealerTurn(sink CardSink) error {
	if err := r.send(sink, protocol.ResultNotOver, r.dealer[1]); err != nil {
		return err
	}

	for r.dealer.Total() < dealerStand {
		card := r.cards.Draw()
		r.dealer = append(r.dealer, card)
		r.logger.Debug("dealer hit", "card", card.String(), "total", r.dealer.Total())
		if err := r.send(sink, protocol.ResultNotOver, card); err != nil {
			return err
		}
	}
	return nil
}

// settle compares the final totals. Only reached when the player stood.
func (r *Round) settle(sink CardSink) (protocol.Result, error) {
	playerTotal, dealerTotal := r.player.Total(), r.dealer.Total()

	var result protocol.Result
	switch {
	case dealerTotal > 21:
		result = protocol.ResultWin
	case playerTotal > dealerTotal:
		result = protocol.ResultWin
	case playerTotal < dealerTotal:
		result = protocol.ResultLoss
	default:
		result = protocol.ResultTie
	}

	r.logger.Debug("settled", "player", playerTotal, "dealer", dealerTotal, "result", result.String())

	// The card in a terminal update is presentational only: the
	// dealer's most recently shown card.
	return r.finish(sink, result, r.dealer[len(r.dealer)-1])
}

// finish sends the round's single terminal update.
func (r *Round) finish(sink CardSink, result protocol.Result, card deck.Card) (protocol.Result, error) {
	if err := r.send(sink, result, card); err != nil {
		return protocol.ResultNotOver, err
	}
	return result, nil
}

func (r *Round) send(sink CardSink, result protocol.Result, card deck.Card) error {
	update := protocol.CardUpdate{
		Result: result,
		Rank:   uint16(card.Rank),
		Suit:   uint8(card.Suit),
	}
	if err := sink.SendCardUpdate(update); err != nil {
		return fmt.Errorf("sending card update: %w", err)
	}
	return nil
}
