package game

import (
	"fmt"

	"github.com/lox/lanjack/internal/protocol"
)

// Tally is the running win/loss/tie count for one session. It lives on
// whichever side is counting (host bookkeeping, client display) and is
// never transmitted; the protocol has no summary frame.
type Tally struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Count records one terminal result. Non-terminal results are ignored so
// callers can feed every update through without filtering.
func (t *Tally) Count(result protocol.Result) {
	switch result {
	case protocol.ResultWin:
		t.Wins++
	case protocol.ResultLoss:
		t.Losses++
	case protocol.ResultTie:
		t.Ties++
	}
}

// Rounds returns how many rounds have settled.
func (t Tally) Rounds() int {
	return t.Wins + t.Losses + t.Ties
}

// WinRate returns wins as a fraction of settled rounds, 0 when none have.
func (t Tally) WinRate() float64 {
	if t.Rounds() == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Rounds())
}

func (t Tally) String() string {
	return fmt.Sprintf("%dW/%dL/%dT", t.Wins, t.Losses, t.Ties)
}
