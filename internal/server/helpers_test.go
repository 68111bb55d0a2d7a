package server

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}

func findFreeUDPPort(t *testing.T) int {
	t.Helper()
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := pc.LocalAddr().(*net.UDPAddr).Port
	_ = pc.Close()
	return port
}

// readUpdate reads one card update frame with a deadline so a wedged
// session fails the test instead of hanging it.
func readUpdate(t *testing.T, conn net.Conn) (protocol.CardUpdate, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return protocol.ReadCardUpdate(conn)
}

// captureSubscriber records published events for later assertions.
type captureSubscriber struct {
	mu     sync.Mutex
	events []game.Event
}

func (c *captureSubscriber) OnEvent(event game.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureSubscriber) snapshot() []game.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]game.Event(nil), c.events...)
}

func (c *captureSubscriber) byType(et game.EventType) []game.Event {
	var out []game.Event
	for _, event := range c.snapshot() {
		if event.EventType() == et {
			out = append(out, event)
		}
	}
	return out
}
