package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func findFreeUDPPort(t *testing.T) int {
	t.Helper()
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := pc.LocalAddr().(*net.UDPAddr).Port
	_ = pc.Close()
	return port
}

// capturePresenter records presenter callbacks for assertions.
type capturePresenter struct {
	mu      sync.Mutex
	starts  [][2]int
	results []protocol.Result
	cards   []deck.Card
	owners  []CardOwner
	ends    []game.Tally
}

func (p *capturePresenter) OnRoundStart(round, of int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts = append(p.starts, [2]int{round, of})
}

func (p *capturePresenter) OnCardUpdate(result protocol.Result, card deck.Card, owner CardOwner) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
	p.cards = append(p.cards, card)
	p.owners = append(p.owners, owner)
}

func (p *capturePresenter) OnSessionEnd(tally game.Tally) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ends = append(p.ends, tally)
}

func (p *capturePresenter) roundStarts() [][2]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]int(nil), p.starts...)
}

func (p *capturePresenter) updateCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results)
}

func (p *capturePresenter) sessionEnds() []game.Tally {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]game.Tally(nil), p.ends...)
}

func (p *capturePresenter) cardOwners() []CardOwner {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CardOwner(nil), p.owners...)
}

// promptState records what the session reported when it asked for a
// decision.
type promptState struct {
	total    int
	dealerUp deck.Card
}

// scriptedDecider hands out a fixed list of decisions and fails on any
// extra request.
type scriptedDecider struct {
	mu        sync.Mutex
	decisions []protocol.Decision
	prompts   []promptState
	err       error
}

func (d *scriptedDecider) RequestDecision(ctx context.Context, hand deck.Hand, dealerUp deck.Card) (protocol.Decision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts = append(d.prompts, promptState{total: hand.Total(), dealerUp: dealerUp})
	if d.err != nil {
		return protocol.DecisionInvalid, d.err
	}
	if len(d.decisions) == 0 {
		return protocol.DecisionInvalid, fmt.Errorf("unexpected decision request")
	}
	next := d.decisions[0]
	d.decisions = d.decisions[1:]
	return next, nil
}

func (d *scriptedDecider) promptLog() []promptState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]promptState(nil), d.prompts...)
}

func (d *scriptedDecider) remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.decisions)
}
