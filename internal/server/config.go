package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the host's runtime configuration, assembled from the HCL
// config file (when present) with flags layered on top by the CLI.
type Config struct {
	// ListenAddr is the TCP session listener address. The default ":0"
	// takes an ephemeral port; clients learn it from the Offer.
	ListenAddr string

	// Name is the host display name carried in every Offer, clamped to
	// 32 bytes on the wire.
	Name string

	// RequestTimeout bounds the wait for a client's opening Request.
	RequestTimeout time.Duration

	// DecisionTimeout bounds each wait for a Decision. It is long by
	// default because a human may be thinking.
	DecisionTimeout time.Duration

	// DiscoveryPort is the well-known UDP port Offers are sent to.
	DiscoveryPort int

	// BroadcastAddr is the IP Offers are sent to. Overridden in tests
	// to loop back instead of broadcasting.
	BroadcastAddr string

	// BroadcastInterval is the Offer cadence.
	BroadcastInterval time.Duration

	// MonitorAddr enables the HTTP/websocket monitor feed when
	// non-empty.
	MonitorAddr string

	// Seed makes every session's deck order reproducible when non-zero.
	Seed int64
}

// DefaultConfig returns the stock host configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:        ":0",
		Name:              "Blackijecky",
		RequestTimeout:    10 * time.Second,
		DecisionTimeout:   120 * time.Second,
		DiscoveryPort:     13122,
		BroadcastAddr:     "255.255.255.255",
		BroadcastInterval: time.Second,
		MonitorAddr:       "",
		Seed:              0,
	}
}

// fileConfig is the HCL shape of the host config file.
type fileConfig struct {
	Server    *serverBlock    `hcl:"server,block"`
	Discovery *discoveryBlock `hcl:"discovery,block"`
}

type serverBlock struct {
	ListenAddr        string `hcl:"listen_addr,optional"`
	Name              string `hcl:"name,optional"`
	RequestTimeoutMs  int    `hcl:"request_timeout_ms,optional"`
	DecisionTimeoutMs int    `hcl:"decision_timeout_ms,optional"`
	MonitorAddr       string `hcl:"monitor_addr,optional"`
}

type discoveryBlock struct {
	Port          int    `hcl:"port,optional"`
	BroadcastAddr string `hcl:"broadcast_addr,optional"`
	IntervalMs    int    `hcl:"interval_ms,optional"`
}

// LoadConfig reads an HCL config file and returns it merged over the
// defaults. A missing file is not an error: you get DefaultConfig.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if fc.Server != nil {
		if fc.Server.ListenAddr != "" {
			cfg.ListenAddr = fc.Server.ListenAddr
		}
		if fc.Server.Name != "" {
			cfg.Name = fc.Server.Name
		}
		if fc.Server.RequestTimeoutMs > 0 {
			cfg.RequestTimeout = time.Duration(fc.Server.RequestTimeoutMs) * time.Millisecond
		}
		if fc.Server.DecisionTimeoutMs > 0 {
			cfg.DecisionTimeout = time.Duration(fc.Server.DecisionTimeoutMs) * time.Millisecond
		}
		if fc.Server.MonitorAddr != "" {
			cfg.MonitorAddr = fc.Server.MonitorAddr
		}
	}
	if fc.Discovery != nil {
		if fc.Discovery.Port > 0 {
			cfg.DiscoveryPort = fc.Discovery.Port
		}
		if fc.Discovery.BroadcastAddr != "" {
			cfg.BroadcastAddr = fc.Discovery.BroadcastAddr
		}
		if fc.Discovery.IntervalMs > 0 {
			cfg.BroadcastInterval = time.Duration(fc.Discovery.IntervalMs) * time.Millisecond
		}
	}

	return cfg, nil
}

// Validate validates the host configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("host name must not be empty")
	}
	if c.DiscoveryPort < 1 || c.DiscoveryPort > 65535 {
		return fmt.Errorf("invalid discovery port: %d", c.DiscoveryPort)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.DecisionTimeout <= 0 {
		return fmt.Errorf("decision timeout must be positive")
	}
	if c.BroadcastInterval <= 0 {
		return fmt.Errorf("broadcast interval must be positive")
	}
	if c.BroadcastAddr == "" {
		return fmt.Errorf("broadcast address must not be empty")
	}
	return nil
}

// DiscoveryTarget returns the addr:port Offers are sent to.
func (c *Config) DiscoveryTarget() string {
	return fmt.Sprintf("%s:%d", c.BroadcastAddr, c.DiscoveryPort)
}
