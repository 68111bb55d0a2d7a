// Package tui is the interactive terminal client: it renders discovery,
// both hands as they deal, and takes hit-or-stand input one keypress at
// a time.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/lanjack/internal/client"
	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
)

// Messages the Bridge posts into the program from the session goroutine.
type (
	hostFoundMsg    struct{ found client.Discovered }
	roundStartedMsg struct{ round, of int }
	cardDealtMsg    struct {
		result protocol.Result
		card   deck.Card
		owner  client.CardOwner
	}
	decisionRequestMsg struct{}
	sessionEndedMsg    struct{ tally game.Tally }
	errorMsg           struct{ err error }
)

// Model is the Bubble Tea model for one blackjack session
type Model struct {
	logger *log.Logger

	// Keypresses travel to the bridge through here while a decision is
	// pending.
	decisions chan<- protocol.Decision

	// UI components
	spinner spinner.Model

	// State
	discoveryPort int
	hostName      string
	hostAddr      string
	round         int
	totalRounds   int
	playerHand    deck.Hand
	dealerHand    deck.Hand
	lastResult    protocol.Result
	tally         game.Tally
	awaiting      bool
	done          bool
	err           error
	quitting      bool
}

// NewModel creates the model. decisions is the bridge's channel; the
// model only ever sends into it.
func NewModel(discoveryPort int, decisions chan<- protocol.Decision, logger *log.Logger) *Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(InfoStyle))

	return &Model{
		logger:        logger.WithPrefix("tui"),
		decisions:     decisions,
		spinner:       sp,
		discoveryPort: discoveryPort,
	}
}

// Init starts the discovery spinner
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		// The spinner only runs while we are still looking for a host.
		if m.hostName == "" && !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case hostFoundMsg:
		m.hostName = msg.found.HostName
		m.hostAddr = msg.found.Addr

	case roundStartedMsg:
		m.round = msg.round
		m.totalRounds = msg.of
		m.playerHand = nil
		m.dealerHand = nil
		m.lastResult = protocol.ResultNotOver
		m.awaiting = false

	case cardDealtMsg:
		if msg.result.Terminal() {
			// The card in a terminal update was already dealt; only the
			// result is new.
			m.lastResult = msg.result
			m.tally.Count(msg.result)
			m.awaiting = false
		} else if msg.owner == client.OwnerDealer {
			m.dealerHand = append(m.dealerHand, msg.card)
		} else {
			m.playerHand = append(m.playerHand, msg.card)
		}

	case decisionRequestMsg:
		m.awaiting = true

	case sessionEndedMsg:
		m.tally = msg.tally
		m.done = true

	case errorMsg:
		m.err = msg.err
		m.done = true
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)
	case "h":
		m.submit(protocol.DecisionHit)
	case "s":
		m.submit(protocol.DecisionStand)
	}
	return m, nil
}

// submit forwards a decision if one is pending. Keypresses while
// nothing is pending are dropped, not queued.
func (m *Model) submit(decision protocol.Decision) {
	if !m.awaiting {
		return
	}
	select {
	case m.decisions <- decision:
		m.awaiting = false
	default:
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(" lanjack "))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Session failed: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("q to quit"))

	case m.hostName == "":
		b.WriteString(fmt.Sprintf("%s Listening for a host on UDP port %d", m.spinner.View(), m.discoveryPort))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("q to quit"))

	case m.done:
		b.WriteString(m.renderTable())
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("Session complete: %s", m.tally)))
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render(fmt.Sprintf("%d rounds, %.0f%% won", m.tally.Rounds(), m.tally.WinRate()*100)))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("q to quit"))

	default:
		b.WriteString(InfoStyle.Render(fmt.Sprintf("Playing %s (%s)", m.hostName, m.hostAddr)))
		b.WriteString("\n\n")
		b.WriteString(m.renderTable())
		b.WriteString(m.renderStatus())
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("h to hit, s to stand, q to quit"))
	}

	return b.String()
}

// renderTable shows the round header and both hands
func (m *Model) renderTable() string {
	if m.round == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(HandInfoStyle.Render(fmt.Sprintf("Round %d of %d", m.round, m.totalRounds)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Dealer: %s\n", formatHand(m.dealerHand)))
	b.WriteString(fmt.Sprintf("You:    %s\n", formatHand(m.playerHand)))
	b.WriteString("\n")
	return b.String()
}

// renderStatus shows the prompt or the last round's outcome
func (m *Model) renderStatus() string {
	if m.awaiting {
		return ActionsStyle.Render("Your move: [h]it or [s]tand")
	}

	switch m.lastResult {
	case protocol.ResultWin:
		return SuccessStyle.Render("You win the round")
	case protocol.ResultLoss:
		return ErrorStyle.Render("Dealer wins the round")
	case protocol.ResultTie:
		return WarningStyle.Render("Round is a tie")
	default:
		return InfoStyle.Render(fmt.Sprintf("Tally so far: %s", m.tally))
	}
}

// formatHand renders a hand with red/black suit colouring and its total
func formatHand(hand deck.Hand) string {
	if len(hand) == 0 {
		return InfoStyle.Render("waiting for cards")
	}

	var formatted []string
	for _, card := range hand {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}

	return fmt.Sprintf("[%s] (%d)", strings.Join(formatted, " "), hand.Total())
}
