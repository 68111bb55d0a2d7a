package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/lanjack/internal/client"
	"github.com/lox/lanjack/internal/game"
)

// Run plays one interactive session: discover a host, connect, and hand
// the player the keyboard. It blocks until the session ends and the
// player quits the screen, or ctx is cancelled.
func Run(ctx context.Context, cfg *client.Config, logger *log.Logger) (game.Tally, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := NewBridge()
	model := NewModel(cfg.DiscoveryPort, bridge.Decisions(), logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	bridge.SetProgram(program)

	type sessionResult struct {
		tally game.Tally
		err   error
	}
	done := make(chan sessionResult, 1)

	go func() {
		listener := client.NewOfferListener(cfg.DiscoveryPort, cfg.DiscoveryWait, logger)
		found, err := listener.Listen(ctx)
		if err != nil {
			done <- sessionResult{err: err}
			if ctx.Err() == nil {
				bridge.OnError(err)
			}
			return
		}
		bridge.OnHostFound(found)

		session := client.NewSession(cfg, found.Addr, bridge, bridge, logger)
		tally, err := session.Run(ctx)
		done <- sessionResult{tally: tally, err: err}
		if err != nil && ctx.Err() == nil {
			bridge.OnError(err)
		}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return game.Tally{}, fmt.Errorf("running program: %w", err)
	}

	// The player quit the screen; stop whatever the session is doing
	// and collect what it got through.
	cancel()
	res := <-done

	if res.err != nil && !errors.Is(res.err, context.Canceled) {
		return res.tally, res.err
	}
	return res.tally, nil
}
