package client

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the client's runtime configuration.
type Config struct {
	// Name is the display name sent in the Request, clamped to 32 bytes
	// on the wire.
	Name string

	// Rounds is how many rounds to ask the host for. The wire field is
	// a single byte, so 255 is the ceiling.
	Rounds int

	// DiscoveryPort is the UDP port to listen on for Offers.
	DiscoveryPort int

	// DiscoveryWait bounds each wait for an Offer; the listener logs
	// and retries until one arrives or the context ends.
	DiscoveryWait time.Duration

	// DialTimeout bounds the TCP connect to the host.
	DialTimeout time.Duration

	// IOTimeout bounds each read and write on the session channel.
	IOTimeout time.Duration
}

// DefaultConfig returns the stock client configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:          "TeamJoker",
		Rounds:        5,
		DiscoveryPort: 13122,
		DiscoveryWait: 5 * time.Second,
		DialTimeout:   10 * time.Second,
		IOTimeout:     20 * time.Second,
	}
}

type fileConfig struct {
	Client *clientBlock `hcl:"client,block"`
}

type clientBlock struct {
	Name            string `hcl:"name,optional"`
	Rounds          int    `hcl:"rounds,optional"`
	DiscoveryPort   int    `hcl:"discovery_port,optional"`
	DiscoveryWaitMs int    `hcl:"discovery_wait_ms,optional"`
	DialTimeoutMs   int    `hcl:"dial_timeout_ms,optional"`
	IOTimeoutMs     int    `hcl:"io_timeout_ms,optional"`
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

	if fc.Client != nil {
		if fc.Client.Name != "" {
			cfg.Name = fc.Client.Name
		}
		if fc.Client.Rounds > 0 {
			cfg.Rounds = fc.Client.Rounds
		}
		if fc.Client.DiscoveryPort > 0 {
			cfg.DiscoveryPort = fc.Client.DiscoveryPort
		}
		if fc.Client.DiscoveryWaitMs > 0 {
			cfg.DiscoveryWait = time.Duration(fc.Client.DiscoveryWaitMs) * time.Millisecond
		}
		if fc.Client.DialTimeoutMs > 0 {
			cfg.DialTimeout = time.Duration(fc.Client.DialTimeoutMs) * time.Millisecond
		}
		if fc.Client.IOTimeoutMs > 0 {
			cfg.IOTimeout = time.Duration(fc.Client.IOTimeoutMs) * time.Millisecond
		}
	}

	return cfg, nil
}

// Validate validates the client configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("client name must not be empty")
	}
	if c.Rounds < 1 || c.Rounds > 255 {
		return fmt.Errorf("rounds must be between 1 and 255, got %d", c.Rounds)
	}
	if c.DiscoveryPort < 1 || c.DiscoveryPort > 65535 {
		return fmt.Errorf("invalid discovery port: %d", c.DiscoveryPort)
	}
	if c.DiscoveryWait <= 0 {
		return fmt.Errorf("discovery wait must be positive")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if c.IOTimeout <= 0 {
		return fmt.Errorf("io timeout must be positive")
	}
	return nil
}
