package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
	"github.com/lox/lanjack/internal/randutil"
)

// startTestSession wires a session to one end of a pipe and runs it,
// returning the client end.
func startTestSession(t *testing.T, clock quartz.Clock, bus game.EventBus) net.Conn {
	t.Helper()

	hostSide, clientSide := net.Pipe()
	sess := newSession(1, hostSide, DefaultConfig(), clock, randutil.New(42), bus, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		sess.close()
		<-done
	})

	return clientSide
}

func cardValue(u protocol.CardUpdate) int {
	return deck.Card{Suit: deck.Suit(u.Suit), Rank: deck.Rank(u.Rank)}.Value()
}

// readOpening reads the three opening updates of a round and returns the
// player's dealt total.
func readOpening(t *testing.T, client net.Conn) int {
	t.Helper()

	var opening []protocol.CardUpdate
	for i := 0; i < 3; i++ {
		update, err := readUpdate(t, client)
		require.NoError(t, err)
		require.Equal(t, protocol.ResultNotOver, update.Result)
		opening = append(opening, update)
	}
	return cardValue(opening[0]) + cardValue(opening[1])
}

// playRoundStanding drives one round with an immediate stand and returns
// its terminal result. A dealt 21 settles without a decision.
func playRoundStanding(t *testing.T, client net.Conn) protocol.Result {
	t.Helper()

	if readOpening(t, client) == 21 {
		update, err := readUpdate(t, client)
		require.NoError(t, err)
		require.Equal(t, protocol.ResultWin, update.Result)
		return update.Result
	}

	_, err := client.Write(protocol.DecisionStand.Encode())
	require.NoError(t, err)

	for {
		update, err := readUpdate(t, client)
		require.NoError(t, err)
		if update.Result.Terminal() {
			return update.Result
		}
	}
}

func requireClosed(t *testing.T, client net.Conn) {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 1)
	n, err := client.Read(buf)
	require.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)
}

func TestSessionPlaysRequestedRounds(t *testing.T) {
	bus := game.NewEventBus()
	capture := &captureSubscriber{}
	bus.Subscribe(capture)

	client := startTestSession(t, quartz.NewReal(), bus)

	const rounds = 3
	_, err := client.Write(protocol.Request{Rounds: rounds, ClientName: "TeamJoker"}.Encode())
	require.NoError(t, err)

	var results []protocol.Result
	for i := 0; i < rounds; i++ {
		results = append(results, playRoundStanding(t, client))
	}

	// The session closes once the last round settles
	requireClosed(t, client)

	started := capture.byType(game.EventTypeSessionStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "TeamJoker", started[0].(game.SessionStartedEvent).ClientName)

	assert.Len(t, capture.byType(game.EventTypeRoundStarted), rounds)

	settled := capture.byType(game.EventTypeRoundSettled)
	require.Len(t, settled, rounds)
	for i, event := range settled {
		assert.Equal(t, results[i].String(), event.(game.RoundSettledEvent).Result)
	}

	ended := capture.byType(game.EventTypeSessionEnded)
	require.Len(t, ended, 1)
	endedEvent := ended[0].(game.SessionEndedEvent)
	assert.True(t, endedEvent.Completed)
	assert.Equal(t, rounds, endedEvent.Tally.Rounds())
}

func TestSessionHitFlow(t *testing.T) {
	client := startTestSession(t, quartz.NewReal(), game.NewEventBus())

	_, err := client.Write(protocol.Request{Rounds: 1, ClientName: "TeamJoker"}.Encode())
	require.NoError(t, err)

	total := readOpening(t, client)
	if total == 21 {
		update, err := readUpdate(t, client)
		require.NoError(t, err)
		require.Equal(t, protocol.ResultWin, update.Result)
		requireClosed(t, client)
		return
	}

	// Hit until the hand resolves. Totals only climb, so this always
	// reaches 21 or busts.
	for {
		_, err = client.Write(protocol.DecisionHit.Encode())
		require.NoError(t, err)

		update, err := readUpdate(t, client)
		require.NoError(t, err)
		require.Equal(t, protocol.ResultNotOver, update.Result)
		total += cardValue(update)

		if total > 21 {
			// The losing card is echoed with the terminal result
			final, err := readUpdate(t, client)
			require.NoError(t, err)
			assert.Equal(t, protocol.ResultLoss, final.Result)
			assert.Equal(t, update.Rank, final.Rank)
			assert.Equal(t, update.Suit, final.Suit)
			requireClosed(t, client)
			return
		}
		if total == 21 {
			final, err := readUpdate(t, client)
			require.NoError(t, err)
			assert.Equal(t, protocol.ResultWin, final.Result)
			requireClosed(t, client)
			return
		}
	}
}

func TestSessionRejectsZeroRounds(t *testing.T) {
	bus := game.NewEventBus()
	capture := &captureSubscriber{}
	bus.Subscribe(capture)

	client := startTestSession(t, quartz.NewReal(), bus)

	_, err := client.Write(protocol.Request{Rounds: 0, ClientName: "TeamJoker"}.Encode())
	require.NoError(t, err)

	requireClosed(t, client)
	assert.Empty(t, capture.snapshot())
}

func TestSessionRejectsMalformedRequest(t *testing.T) {
	bus := game.NewEventBus()
	capture := &captureSubscriber{}
	bus.Subscribe(capture)

	client := startTestSession(t, quartz.NewReal(), bus)

	_, err := client.Write(bytes.Repeat([]byte{0xff}, protocol.RequestSize))
	require.NoError(t, err)

	requireClosed(t, client)
	assert.Empty(t, capture.snapshot())
}

func TestSessionRequestTimeout(t *testing.T) {
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().AfterFunc()
	defer trap.Close()

	bus := game.NewEventBus()
	capture := &captureSubscriber{}
	bus.Subscribe(capture)

	client := startTestSession(t, mClock, bus)
	ctx := context.Background()

	// Release the request timer, then let it fire with nothing sent
	call := trap.MustWait(ctx)
	call.MustRelease(ctx)

	d, w := mClock.AdvanceNext()
	require.Equal(t, DefaultConfig().RequestTimeout, d)
	w.MustWait(ctx)

	requireClosed(t, client)
	assert.Empty(t, capture.snapshot())
}

func TestSessionDecisionTimeout(t *testing.T) {
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().AfterFunc()
	defer trap.Close()

	bus := game.NewEventBus()
	capture := &captureSubscriber{}
	bus.Subscribe(capture)

	client := startTestSession(t, mClock, bus)
	ctx := context.Background()

	call := trap.MustWait(ctx)
	call.MustRelease(ctx)

	_, err := client.Write(protocol.Request{Rounds: 255, ClientName: "TeamJoker"}.Encode())
	require.NoError(t, err)

	// Dealt 21s settle without a decision; skip past them to a round
	// that actually waits on the client
	for readOpening(t, client) == 21 {
		update, err := readUpdate(t, client)
		require.NoError(t, err)
		require.Equal(t, protocol.ResultWin, update.Result)
	}

	// The decision timer is armed; let it fire
	call = trap.MustWait(ctx)
	call.MustRelease(ctx)

	d, w := mClock.AdvanceNext()
	require.Equal(t, DefaultConfig().DecisionTimeout, d)
	w.MustWait(ctx)

	requireClosed(t, client)

	ended := capture.byType(game.EventTypeSessionEnded)
	require.Len(t, ended, 1)
	assert.False(t, ended[0].(game.SessionEndedEvent).Completed)
}
