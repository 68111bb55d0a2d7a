package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/lanjack/internal/protocol"
)

func TestBroadcasterSendsOffers(t *testing.T) {
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	readOffer := func() protocol.Offer {
		t.Helper()
		buf := make([]byte, 128)
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		offer, err := protocol.ParseOffer(buf[:n])
		require.NoError(t, err)
		return offer
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc()
	defer trap.Close()

	offer := protocol.Offer{TCPPort: 4242, HostName: "Blackijecky"}
	b := NewBroadcaster(pc.LocalAddr().String(), offer, time.Second, mClock, testLogger())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	// The first offer goes out before any tick
	assert.Equal(t, offer, readOffer())

	// Let the interval ticker register, then drive two more sends
	call := trap.MustWait(ctx)
	call.MustRelease(ctx)

	mClock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, offer, readOffer())

	mClock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, offer, readOffer())

	cancel()
	require.NoError(t, <-done)
}

func TestBroadcasterBadTarget(t *testing.T) {
	b := NewBroadcaster("not-an-address", protocol.Offer{}, time.Second, quartz.NewReal(), testLogger())
	require.Error(t, b.Run(context.Background()))
}
