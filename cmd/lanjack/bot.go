package main

import (
	"time"

	"github.com/coder/quartz"

	"github.com/lox/lanjack/cmd/lanjack/shared"
	"github.com/lox/lanjack/internal/bot"
	"github.com/lox/lanjack/internal/client"
)

type BotCmd struct {
	Strategy      string `arg:"" help:"Strategy to play (dealer, stand, basic, threshold-N)"`
	Config        string `help:"HCL config file" type:"path"`
	Name          string `help:"Name sent to the host (32 bytes max)"`
	Rounds        int    `help:"Rounds to request (1-255)"`
	DiscoveryPort int    `help:"UDP port to listen for offers on"`
	DelayMs       int    `help:"Pause before each decision in milliseconds"`
	Debug         bool   `help:"Enable debug logging"`
	NoColor       bool   `help:"Disable colored output"`
}

func (c *BotCmd) Run() error {
	strategy, err := bot.ParseStrategy(c.Strategy)
	if err != nil {
		return err
	}

	logger := shared.SetupLogger(c.Debug, c.NoColor)

	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	if c.Name != "" {
		cfg.Name = c.Name
	}
	if c.Rounds != 0 {
		cfg.Rounds = c.Rounds
	}
	if c.DiscoveryPort != 0 {
		cfg.DiscoveryPort = c.DiscoveryPort
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)

	runner := bot.NewRunner(strategy, time.Duration(c.DelayMs)*time.Millisecond, quartz.NewReal(), logger)
	if _, err := runner.Run(ctx, cfg); err != nil {
		return err
	}
	return nil
}
