package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/lanjack/internal/protocol"
)

// Broadcaster announces the host on the LAN by sending the session
// Offer to the discovery port at a steady interval. Clients listening
// on that port learn the host's name and TCP port from the datagram.
type Broadcaster struct {
	target   string
	offer    protocol.Offer
	interval time.Duration
	clock    quartz.Clock
	logger   *log.Logger
}

// NewBroadcaster creates a broadcaster that sends offer to target
// (addr:port) every interval.
func NewBroadcaster(target string, offer protocol.Offer, interval time.Duration, clock quartz.Clock, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		target:   target,
		offer:    offer,
		interval: interval,
		clock:    clock,
		logger:   logger.WithPrefix("discovery"),
	}
}

// Run sends Offers until ctx is cancelled. The first Offer goes out
// immediately so a freshly started client never waits a full interval.
// Individual send failures are logged and skipped; the broadcaster only
// stops when the context ends or the socket cannot be opened at all.
func (b *Broadcaster) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", b.target)
	if err != nil {
		return fmt.Errorf("resolving discovery target %s: %w", b.target, err)
	}

	conn, err := broadcastPacketConn(ctx)
	if err != nil {
		return fmt.Errorf("opening discovery socket: %w", err)
	}
	defer conn.Close()

	b.logger.Info("Announcing session", "target", b.target, "interval", b.interval)

	send := func() error {
		if _, err := conn.WriteTo(b.offer.Encode(), addr); err != nil {
			b.logger.Debug("Offer send failed", "error", err)
		}
		return nil
	}

	send()

	waiter := b.clock.TickerFunc(ctx, b.interval, send)
	if err := waiter.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// broadcastPacketConn opens a UDP socket with SO_BROADCAST set, so
// Offers can be sent to the limited broadcast address.
func broadcastPacketConn(ctx context.Context) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.ListenPacket(ctx, "udp4", ":0")
}
