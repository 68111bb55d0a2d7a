package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
)

// CardOwner says whose side of the table a card update belongs to.
type CardOwner int

const (
	OwnerPlayer CardOwner = iota
	OwnerDealer
)

func (o CardOwner) String() string {
	if o == OwnerDealer {
		return "dealer"
	}
	return "player"
}

// Presenter receives everything a UI needs to render a session. Calls
// arrive on the session goroutine and should return quickly.
//
// A terminal update echoes a card that was already presented; consumers
// building hands from updates should append only non-terminal cards.
type Presenter interface {
	OnRoundStart(round, of int)
	OnCardUpdate(result protocol.Result, card deck.Card, owner CardOwner)
	OnSessionEnd(tally game.Tally)
}

// DecisionMaker supplies the player's choice when the host is waiting
// on one. Implementations decide how: a prompt, a strategy, a delay.
// hand is the player's cards so far and dealerUp the dealer's visible
// card.
type DecisionMaker interface {
	RequestDecision(ctx context.Context, hand deck.Hand, dealerUp deck.Card) (protocol.Decision, error)
}

// Session plays one session against a host: connect, request rounds,
// then bridge card updates to the Presenter and decisions back to the
// host until every round has settled.
//
// The host never says whose turn it is, so the session tracks its own
// hand from the updates: the first two cards of a round are the
// player's, the third is the dealer's up card, and later cards are the
// player's hits until the player stands.
type Session struct {
	cfg       *Config
	addr      string
	presenter Presenter
	decider   DecisionMaker
	logger    *log.Logger

	tally game.Tally
}

// NewSession creates a session against the host at addr (host:port).
func NewSession(cfg *Config, addr string, presenter Presenter, decider DecisionMaker, logger *log.Logger) *Session {
	return &Session{
		cfg:       cfg,
		addr:      addr,
		presenter: presenter,
		decider:   decider,
		logger:    logger.WithPrefix("session"),
	}
}

// Run plays the full session. The tally accumulated so far is returned
// alongside any error.
func (s *Session) Run(ctx context.Context) (game.Tally, error) {
	dialer := net.Dialer{Timeout: s.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return s.tally, fmt.Errorf("connecting to %s: %w", s.addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	s.logger.Info("Connected", "addr", s.addr, "rounds", s.cfg.Rounds)

	request := protocol.Request{Rounds: uint8(s.cfg.Rounds), ClientName: s.cfg.Name}
	if err := s.write(conn, request.Encode()); err != nil {
		return s.tally, fmt.Errorf("sending request: %w", err)
	}

	for round := 1; round <= s.cfg.Rounds; round++ {
		s.presenter.OnRoundStart(round, s.cfg.Rounds)
		if err := s.playRound(ctx, conn); err != nil {
			if ctx.Err() != nil {
				return s.tally, ctx.Err()
			}
			return s.tally, fmt.Errorf("round %d: %w", round, err)
		}
	}

	s.logger.Info("Session complete", "tally", s.tally)
	s.presenter.OnSessionEnd(s.tally)
	return s.tally, nil
}

// Tally returns the rounds settled so far.
func (s *Session) Tally() game.Tally {
	return s.tally
}

// playRound consumes updates for one round, bridging decisions back to
// the host until the terminal result lands.
func (s *Session) playRound(ctx context.Context, conn net.Conn) error {
	var hand deck.Hand
	var dealerUp deck.Card
	seen := 0
	stood := false

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.IOTimeout)); err != nil {
			return err
		}
		update, err := protocol.ReadCardUpdate(conn)
		if err != nil {
			return fmt.Errorf("reading card update: %w", err)
		}

		card := deck.Card{Suit: deck.Suit(update.Suit), Rank: deck.Rank(update.Rank)}

		if update.Result.Terminal() {
			// The echoed card is the player's last hit on hit-settled
			// rounds, the dealer's last card otherwise.
			owner := OwnerPlayer
			if stood {
				owner = OwnerDealer
			}
			s.presenter.OnCardUpdate(update.Result, card, owner)
			s.tally.Count(update.Result)
			s.logger.Info("Round over", "result", update.Result, "tally", s.tally)
			return nil
		}

		seen++
		owner := OwnerPlayer
		switch {
		case seen <= 2:
			// My opening cards
			hand = append(hand, card)
		case seen == 3:
			// Dealer's up card
			dealerUp = card
			owner = OwnerDealer
		default:
			// After standing the dealer's cards are display-only;
			// before that, an extra card is one I drew
			if stood {
				owner = OwnerDealer
			} else {
				hand = append(hand, card)
			}
		}
		s.presenter.OnCardUpdate(update.Result, card, owner)

		if stood || seen < 3 {
			continue
		}

		// A dealt 21 settles without a decision, and a hit that reaches
		// or busts 21 resolves on the next frame. Anything else is the
		// host waiting on us.
		if seen == 3 && hand.Total() == 21 {
			continue
		}
		if seen > 3 && hand.Total() >= 21 {
			continue
		}

		decision, err := s.decider.RequestDecision(ctx, hand, dealerUp)
		if err != nil {
			return fmt.Errorf("requesting decision: %w", err)
		}
		s.logger.Debug("Sending decision", "decision", decision, "hand", hand)
		if err := s.write(conn, decision.Encode()); err != nil {
			return fmt.Errorf("sending decision: %w", err)
		}
		if decision != protocol.DecisionHit {
			stood = true
		}
	}
}

func (s *Session) write(conn net.Conn, frame []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.IOTimeout)); err != nil {
		return err
	}
	_, err := conn.Write(frame)
	return err
}
