package main

import (
	"github.com/lox/lanjack/cmd/lanjack/shared"
	"github.com/lox/lanjack/internal/client"
	"github.com/lox/lanjack/internal/tui"
)

type ClientCmd struct {
	Config        string `kong:"help='HCL config file',type='path'"`
	Name          string `kong:"help='Name sent to the host (32 bytes max)'"`
	Rounds        int    `kong:"help='Rounds to request (1-255)'"`
	DiscoveryPort int    `kong:"help='UDP port to listen for offers on'"`
	LogFile       string `kong:"help='Write logs here instead of dropping them (the TUI owns the terminal)',type='path'"`
	Debug         bool   `kong:"help='Enable debug logging'"`
	NoColor       bool   `kong:"help='Disable colored output'"`
}

func (c *ClientCmd) Run() error {
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

	if c.NoColor {
		shared.DisableColors()
	}

	// Stderr belongs to the TUI, so logs go to a file or nowhere.
	logger, closeLog, err := shared.SetupFileLogger(c.LogFile, c.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := shared.SetupSignalHandler(logger)

	tally, err := tui.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("Session finished", "tally", tally)
	return nil
}
