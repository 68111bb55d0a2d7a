package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
)

var (
	errRequestTimeout  = errors.New("timed out waiting for request")
	errDecisionTimeout = errors.New("timed out waiting for decision")
)

// session owns one client connection for its whole life: it waits for
// the opening Request, plays the requested number of rounds, and closes
// the connection when the session is over or anything goes wrong.
//
// All socket reads happen on a single readLoop goroutine that feeds the
// requests and decisions channels. The session goroutine never touches
// the socket for reads, so timeouts are plain channel selects against
// the injected clock and need no connection deadlines.
type session struct {
	id     uint64
	conn   net.Conn
	clock  quartz.Clock
	rng    *rand.Rand
	bus    game.EventBus
	logger *log.Logger

	requestTimeout  time.Duration
	decisionTimeout time.Duration

	requests  chan requestResult
	decisions chan decisionResult
	done      chan struct{}
	closeOnce sync.Once

	round      int
	tally      game.Tally
	clientName string
}

type requestResult struct {
	req protocol.Request
	err error
}

type decisionResult struct {
	decision protocol.Decision
	err      error
}

func newSession(id uint64, conn net.Conn, cfg *Config, clock quartz.Clock, rng *rand.Rand, bus game.EventBus, logger *log.Logger) *session {
	return &session{
		id:              id,
		conn:            conn,
		clock:           clock,
		rng:             rng,
		bus:             bus,
		logger:          logger.WithPrefix("session").With("id", id, "remote", conn.RemoteAddr().String()),
		requestTimeout:  cfg.RequestTimeout,
		decisionTimeout: cfg.DecisionTimeout,
		requests:        make(chan requestResult, 1),
		decisions:       make(chan decisionResult, 1),
		done:            make(chan struct{}),
	}
}

// run plays the session to completion. A malformed or missing Request
// closes the connection without sending anything back.
func (s *session) run(ctx context.Context) {
	defer s.close()
	go s.readLoop()

	req, err := s.awaitRequest(ctx)
	if err != nil {
		s.logger.Debug("No playable request", "error", err)
		return
	}
	if req.Rounds == 0 {
		s.logger.Debug("Rejecting request for zero rounds", "client", req.ClientName)
		return
	}

	s.clientName = req.ClientName
	s.logger = s.logger.With("client", req.ClientName)
	s.logger.Info("Session started", "rounds", req.Rounds)
	s.bus.Publish(game.NewSessionStartedEvent(s.id, req.ClientName, s.conn.RemoteAddr().String(), int(req.Rounds)))

	completed := true
	for round := 1; round <= int(req.Rounds); round++ {
		s.round = round
		s.bus.Publish(game.NewRoundStartedEvent(s.id, round, int(req.Rounds)))

		result, err := game.NewRound(deck.NewDeck(s.rng), s.logger).Play(s, s)
		if err != nil {
			s.logger.Warn("Round aborted", "round", round, "error", err)
			completed = false
			break
		}

		s.tally.Count(result)
		s.logger.Info("Round settled", "round", round, "result", result, "tally", s.tally)
		s.bus.Publish(game.NewRoundSettledEvent(s.id, round, result, s.tally))
	}

	s.logger.Info("Session over", "completed", completed, "tally", s.tally)
	s.bus.Publish(game.NewSessionEndedEvent(s.id, s.clientName, completed, s.tally))
}

// readLoop pulls frames off the socket: the opening Request, then
// Decisions until the connection dies. Channel sends race the done
// channel so the loop can never leak after close.
func (s *session) readLoop() {
	req, err := protocol.ReadRequest(s.conn)
	select {
	case s.requests <- requestResult{req: req, err: err}:
	case <-s.done:
		return
	}
	if err != nil {
		return
	}

	for {
		decision, err := protocol.ReadDecision(s.conn)
		select {
		case s.decisions <- decisionResult{decision: decision, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *session) awaitRequest(ctx context.Context) (protocol.Request, error) {
	timeoutFired := make(chan struct{})
	timer := s.clock.AfterFunc(s.requestTimeout, func() {
		close(timeoutFired)
	})
	defer timer.Stop()

	select {
	case res := <-s.requests:
		if res.err != nil {
			return protocol.Request{}, fmt.Errorf("reading request: %w", res.err)
		}
		return res.req, nil
	case <-timeoutFired:
		return protocol.Request{}, errRequestTimeout
	case <-ctx.Done():
		return protocol.Request{}, ctx.Err()
	}
}

// NextDecision blocks until the client sends a Decision frame or the
// decision timeout fires. Timeouts end the session rather than playing
// on the client's behalf.
func (s *session) NextDecision() (protocol.Decision, error) {
	timeoutFired := make(chan struct{})
	timer := s.clock.AfterFunc(s.decisionTimeout, func() {
		close(timeoutFired)
	})
	defer timer.Stop()

	select {
	case res := <-s.decisions:
		if res.err != nil {
			return protocol.DecisionInvalid, res.err
		}
		return res.decision, nil
	case <-timeoutFired:
		return protocol.DecisionInvalid, errDecisionTimeout
	case <-s.done:
		return protocol.DecisionInvalid, net.ErrClosed
	}
}

// SendCardUpdate writes one card update frame and mirrors it onto the
// event bus for observers.
func (s *session) SendCardUpdate(update protocol.CardUpdate) error {
	if _, err := s.conn.Write(update.Encode()); err != nil {
		return fmt.Errorf("writing card update: %w", err)
	}
	card := deck.Card{Suit: deck.Suit(update.Suit), Rank: deck.Rank(update.Rank)}
	s.bus.Publish(game.NewCardDealtEvent(s.id, s.round, card, update.Result))
	return nil
}

// ClientName returns the name from the session's Request, or "" before
// one arrives.
func (s *session) ClientName() string {
	return s.clientName
}

// Tally returns the running score for the session.
func (s *session) Tally() game.Tally {
	return s.tally
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		s.logger.Debug("Connection closed")
	})
}
