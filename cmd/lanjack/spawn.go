package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/lanjack/cmd/lanjack/shared"
	"github.com/lox/lanjack/internal/bot"
	"github.com/lox/lanjack/internal/client"
	"github.com/lox/lanjack/internal/fileutil"
	"github.com/lox/lanjack/internal/server"
)

type SpawnCmd struct {
	// Host configuration
	Name              string `kong:"default='Blackijecky',help='Host name announced in offers'"`
	DiscoveryPort     int    `kong:"default='13122',help='UDP port offers are sent to'"`
	BroadcastAddr     string `kong:"default='127.0.0.1',help='Offer destination; set to 255.255.255.255 to invite the LAN'"`
	DecisionTimeoutMs int    `kong:"default='5000',help='Per-decision timeout in milliseconds'"`
	Monitor           string `kong:"help='Serve the websocket monitor feed on this address'"`
	Seed              int64  `kong:"help='Seed for deterministic decks (0 for random)'"`

	// Bot specification
	Spec    string `kong:"default='dealer:1',help='Bot specification (e.g. dealer:2,stand:1,threshold-15:3)'"`
	Rounds  int    `kong:"default='5',help='Rounds each bot requests (1-255)'"`
	DelayMs int    `kong:"help='Pause before each bot decision in milliseconds'"`

	// Tally output
	WriteTally string `kong:"help='Write per-bot tallies to a JSON file on exit',type='path'"`
	PrintTally bool   `kong:"help='Print per-bot tallies on exit'"`

	// Logging
	Debug   bool `kong:"help='Enable debug logging'"`
	NoColor bool `kong:"help='Disable colored output'"`
}

// spawnedBot is one bot seat; the runner holds its outcome after the
// run.
type spawnedBot struct {
	name     string
	strategy bot.Strategy
	runner   *bot.Runner
}

func (c *SpawnCmd) Run() error {
	logger := shared.SetupLogger(c.Debug, c.NoColor)

	specs, err := parseSpecString(c.Spec)
	if err != nil {
		return fmt.Errorf("failed to parse spec: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("no bots specified (use --spec to specify bots)")
	}

	seed := c.Seed
	if seed != 0 {
		logger.Info("Using deterministic seed", "seed", seed)
	}

	cfg := server.DefaultConfig()
	cfg.Name = c.Name
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.DiscoveryPort = c.DiscoveryPort
	cfg.BroadcastAddr = c.BroadcastAddr
	cfg.DecisionTimeout = time.Duration(c.DecisionTimeoutMs) * time.Millisecond
	cfg.MonitorAddr = c.Monitor
	cfg.Seed = seed
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start the host and wait until its listener is bound.
	srv := server.NewServer(cfg, quartz.NewReal(), logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run(runCtx)
	}()

	select {
	case <-srv.Ready():
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-runCtx.Done():
		return runCtx.Err()
	}

	addr := fmt.Sprintf("127.0.0.1:%d", srv.Port())

	totalBots := 0
	for _, spec := range specs {
		totalBots += spec.count
	}
	logger.Info("Host ready", "addr", addr, "spec", c.Spec, "total_bots", totalBots)

	// Each bot seat connects straight to the bound address; no point
	// making in-process bots race over UDP discovery.
	seats := make([]*spawnedBot, 0, totalBots)
	for _, spec := range specs {
		for n := 1; n <= spec.count; n++ {
			seats = append(seats, &spawnedBot{
				name:     fmt.Sprintf("%s-%d", spec.strategy.Name(), n),
				strategy: spec.strategy,
			})
		}
	}

	g, botCtx := errgroup.WithContext(runCtx)
	for _, seat := range seats {
		botCfg := client.DefaultConfig()
		botCfg.Name = seat.name
		botCfg.Rounds = c.Rounds
		botCfg.DiscoveryPort = c.DiscoveryPort
		if err := botCfg.Validate(); err != nil {
			return err
		}

		seat.runner = bot.NewRunner(seat.strategy, time.Duration(c.DelayMs)*time.Millisecond, quartz.NewReal(), logger)
		session := client.NewSession(botCfg, addr, seat.runner, seat.runner, logger.With("bot", seat.name))

		g.Go(func() error {
			if _, err := session.Run(botCtx); err != nil {
				return fmt.Errorf("bot %s: %w", seat.name, err)
			}
			return nil
		})
	}

	// Bots exit on their own once their rounds settle; the host runs
	// until they have.
	waitErr := g.Wait()
	cancel()
	if err := <-serverErr; err != nil && waitErr == nil {
		waitErr = fmt.Errorf("server error: %w", err)
	}
	if waitErr != nil {
		return waitErr
	}

	if c.WriteTally != "" || c.PrintTally {
		handleTallyOutput(seats, c.WriteTally, c.PrintTally, logger)
	}

	return nil
}

// specEntry is one strategy:count pair from the --spec flag.
type specEntry struct {
	strategy bot.Strategy
	count    int
}

// parseSpecString parses a specification string like
// "dealer:2,stand:1,threshold-15:3"
func parseSpecString(spec string) ([]specEntry, error) {
	if spec == "" {
		return nil, nil
	}

	var specs []specEntry
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		strategyCount := strings.Split(part, ":")
		if len(strategyCount) != 2 {
			return nil, fmt.Errorf("invalid spec format: %q (expected strategy:count)", part)
		}

		name := strings.TrimSpace(strategyCount[0])
		countStr := strings.TrimSpace(strategyCount[1])

		count, err := strconv.Atoi(countStr)
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("invalid count for strategy %q: %q", name, countStr)
		}

		strategy, err := bot.ParseStrategy(name)
		if err != nil {
			return nil, err
		}

		specs = append(specs, specEntry{strategy: strategy, count: count})
	}

	return specs, nil
}

// botTally is the JSON shape one bot contributes to --write-tally.
type botTally struct {
	Name     string  `json:"name"`
	Strategy string  `json:"strategy"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Ties     int     `json:"ties"`
	WinRate  float64 `json:"win_rate"`
}

func handleTallyOutput(seats []*spawnedBot, tallyFile string, printTally bool, logger *log.Logger) {
	tallies := make([]botTally, 0, len(seats))
	for _, seat := range seats {
		tally := seat.runner.Tally()
		tallies = append(tallies, botTally{
			Name:     seat.name,
			Strategy: seat.strategy.Name(),
			Wins:     tally.Wins,
			Losses:   tally.Losses,
			Ties:     tally.Ties,
			WinRate:  tally.WinRate(),
		})
	}

	// Best seats first
	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].Wins > tallies[j].Wins
	})

	if tallyFile != "" {
		data, err := json.MarshalIndent(tallies, "", "  ")
		if err != nil {
			logger.Error("Failed to encode tallies", "error", err)
			return
		}
		// Atomic write so a watching process never reads a partial file
		if err := fileutil.WriteFileAtomic(tallyFile, data, 0644); err != nil {
			logger.Error("Failed to write tally file", "file", tallyFile, "error", err)
			return
		}
		logger.Info("Tallies written", "file", tallyFile)
	}

	if printTally {
		fmt.Println("\n=== Session Results ===")
		for i, t := range tallies {
			fmt.Printf("%d. %s: %dW/%dL/%dT (%.0f%% won)\n", i+1, t.Name, t.Wins, t.Losses, t.Ties, t.WinRate*100)
		}
	}
}
