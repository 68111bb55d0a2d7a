package main

import (
	"time"

	"github.com/coder/quartz"

	"github.com/lox/lanjack/cmd/lanjack/shared"
	"github.com/lox/lanjack/internal/server"
)

// ServerCmd contains host configuration. Flags override the config
// file; unset flags leave the file (or default) values alone.
type ServerCmd struct {
	Config            string `kong:"help='HCL config file',type='path'"`
	Name              string `kong:"help='Host name announced in offers (32 bytes max)'"`
	Addr              string `kong:"help='TCP listen address (default :0, an ephemeral port)'"`
	DiscoveryPort     int    `kong:"help='UDP port offers are sent to'"`
	BroadcastAddr     string `kong:"help='Offer destination address'"`
	IntervalMs        int    `kong:"help='Offer cadence in milliseconds'"`
	RequestTimeoutMs  int    `kong:"help='Wait for a client request in milliseconds'"`
	DecisionTimeoutMs int    `kong:"help='Wait for each decision in milliseconds'"`
	Monitor           string `kong:"help='Serve the websocket monitor feed on this address'"`
	Seed              *int64 `kong:"help='Deterministic deck seed (optional)'"`
	Debug             bool   `kong:"help='Enable debug logging'"`
	NoColor           bool   `kong:"help='Disable colored output'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug, c.NoColor)

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	if c.Name != "" {
		cfg.Name = c.Name
	}
	if c.Addr != "" {
		cfg.ListenAddr = c.Addr
	}
	if c.DiscoveryPort != 0 {
		cfg.DiscoveryPort = c.DiscoveryPort
	}
	if c.BroadcastAddr != "" {
		cfg.BroadcastAddr = c.BroadcastAddr
	}
	if c.IntervalMs != 0 {
		cfg.BroadcastInterval = time.Duration(c.IntervalMs) * time.Millisecond
	}
	if c.RequestTimeoutMs != 0 {
		cfg.RequestTimeout = time.Duration(c.RequestTimeoutMs) * time.Millisecond
	}
	if c.DecisionTimeoutMs != 0 {
		cfg.DecisionTimeout = time.Duration(c.DecisionTimeoutMs) * time.Millisecond
	}
	if c.Monitor != "" {
		cfg.MonitorAddr = c.Monitor
	}
	if c.Seed != nil {
		cfg.Seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", cfg.Seed)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)

	srv := server.NewServer(cfg, quartz.NewReal(), logger)
	return srv.Run(ctx)
}
