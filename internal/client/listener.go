package client

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/lanjack/internal/protocol"
)

// Discovered is a host learned from an Offer: where to connect and what
// the host calls itself.
type Discovered struct {
	HostName string
	Addr     string
}

// OfferListener waits on the discovery port for a host to announce
// itself. Datagrams that don't parse as Offers are ignored; hosts
// re-announce every second, so a bad datagram costs nothing.
type OfferListener struct {
	port   int
	wait   time.Duration
	logger *log.Logger
}

// NewOfferListener listens on UDP port for Offers, logging a retry
// every wait without one.
func NewOfferListener(port int, wait time.Duration, logger *log.Logger) *OfferListener {
	return &OfferListener{
		port:   port,
		wait:   wait,
		logger: logger.WithPrefix("discovery"),
	}
}

// Listen blocks until a valid Offer arrives or ctx ends. The returned
// address pairs the Offer's TCP port with the datagram's source IP.
func (l *OfferListener) Listen(ctx context.Context) (Discovered, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return Discovered{}, fmt.Errorf("listening on discovery port %d: %w", l.port, err)
	}
	defer conn.Close()

	// Closing the socket is the only way to interrupt a blocked read
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	l.logger.Info("Listening for offers", "port", l.port)

	buf := make([]byte, 512)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(l.wait)); err != nil {
			return Discovered{}, err
		}

		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return Discovered{}, ctx.Err()
			}
			if os.IsTimeout(err) {
				l.logger.Debug("No offer yet, still listening", "waited", l.wait)
				continue
			}
			return Discovered{}, fmt.Errorf("reading discovery socket: %w", err)
		}

		offer, err := protocol.ParseOffer(buf[:n])
		if err != nil {
			l.logger.Debug("Ignoring datagram", "from", src.String(), "error", err)
			continue
		}

		host, _, err := net.SplitHostPort(src.String())
		if err != nil {
			l.logger.Debug("Ignoring offer with odd source", "from", src.String(), "error", err)
			continue
		}

		found := Discovered{
			HostName: offer.HostName,
			Addr:     net.JoinHostPort(host, fmt.Sprintf("%d", offer.TCPPort)),
		}
		l.logger.Info("Found host", "name", found.HostName, "addr", found.Addr)
		return found, nil
	}
}
