package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/lanjack/internal/client"
	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
)

// sender is the slice of *tea.Program the bridge needs; tests substitute
// a recorder.
type sender interface {
	Send(tea.Msg)
}

// Bridge connects a session to the program. Session callbacks arrive on
// the session goroutine and are forwarded as messages; decision requests
// block until the model collects a keypress.
type Bridge struct {
	target    sender
	decisions chan protocol.Decision
}

// NewBridge creates a bridge. Attach the program with SetProgram before
// the session starts.
func NewBridge() *Bridge {
	return &Bridge{
		// One slot so the model's send never waits on the bridge
		// reaching its receive.
		decisions: make(chan protocol.Decision, 1),
	}
}

// SetProgram attaches the running program as the message target.
func (b *Bridge) SetProgram(p *tea.Program) {
	b.target = p
}

// Decisions returns the channel the model submits keypresses into.
func (b *Bridge) Decisions() chan<- protocol.Decision {
	return b.decisions
}

// OnHostFound reports the discovered host before the session dials it.
func (b *Bridge) OnHostFound(found client.Discovered) {
	b.target.Send(hostFoundMsg{found: found})
}

// OnError surfaces a session failure to the player.
func (b *Bridge) OnError(err error) {
	b.target.Send(errorMsg{err: err})
}

func (b *Bridge) OnRoundStart(round, of int) {
	b.target.Send(roundStartedMsg{round: round, of: of})
}

func (b *Bridge) OnCardUpdate(result protocol.Result, card deck.Card, owner client.CardOwner) {
	b.target.Send(cardDealtMsg{result: result, card: card, owner: owner})
}

func (b *Bridge) OnSessionEnd(tally game.Tally) {
	b.target.Send(sessionEndedMsg{tally: tally})
}

// RequestDecision prompts the model and waits for the player's key. The
// hand and up card are already on screen, so only the prompt travels.
func (b *Bridge) RequestDecision(ctx context.Context, hand deck.Hand, dealerUp deck.Card) (protocol.Decision, error) {
	b.target.Send(decisionRequestMsg{})

	select {
	case decision := <-b.decisions:
		return decision, nil
	case <-ctx.Done():
		return protocol.DecisionInvalid, ctx.Err()
	}
}
