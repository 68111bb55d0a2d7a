// Package protocol implements the lanjack wire format: four fixed-length
// binary frames exchanged over UDP broadcast (Offer) and the TCP session
// channel (Request, Decision, CardUpdate). Every frame starts with a magic
// cookie and a one-byte type tag; all multi-byte integers are big-endian.
package protocol

import "errors"

// MagicCookie prefixes every frame on the wire.
const MagicCookie uint32 = 0xabcddcba

// MessageType identifies the frame that follows the cookie.
type MessageType uint8

const (
	TypeOffer   MessageType = 0x2
	TypeRequest MessageType = 0x3

	// TypePayload is shared by Decision (client→host, 10 bytes) and
	// CardUpdate (host→client, 9 bytes). The two are never read on the
	// same side of a connection, so direction plus fixed length keeps
	// them unambiguous.
	TypePayload MessageType = 0x4
)

func (t MessageType) String() string {
	switch t {
	case TypeOffer:
		return "offer"
	case TypeRequest:
		return "request"
	case TypePayload:
		return "payload"
	default:
		return "unknown"
	}
}

// Frame sizes in bytes. Frames are fixed-length; there is no length prefix.
const (
	cookieSize = 4
	headerSize = cookieSize + 1

	// NameSize is the fixed width of host and client display names.
	// Shorter names are NUL-padded, longer names are truncated.
	NameSize = 32

	OfferSize      = headerSize + 2 + NameSize // cookie, type, tcp port, host name
	RequestSize    = headerSize + 1 + NameSize // cookie, type, rounds, client name
	CardUpdateSize = headerSize + 1 + 2 + 1    // cookie, type, result, rank, suit
	DecisionSize   = headerSize + decisionWordSize
)

// Result is the round outcome tag carried by every CardUpdate. A round's
// final CardUpdate carries a terminal result; every earlier one carries
// ResultNotOver.
type Result uint8

const (
	ResultNotOver Result = 0
	ResultTie     Result = 1
	ResultLoss    Result = 2
	ResultWin     Result = 3
)

// Terminal reports whether the result ends a round.
func (r Result) Terminal() bool { return r != ResultNotOver }

func (r Result) String() string {
	switch r {
	case ResultNotOver:
		return "not-over"
	case ResultTie:
		return "tie"
	case ResultLoss:
		return "loss"
	case ResultWin:
		return "win"
	default:
		return "unknown"
	}
}

// Decision is the player's per-turn choice. DecisionInvalid is what an
// unrecognized five-byte word decodes to; it is not a decode failure, and
// every consumer treats it exactly like DecisionStand.
type Decision uint8

const (
	DecisionInvalid Decision = iota
	DecisionHit
	DecisionStand
)

const decisionWordSize = 5

// Wire words for the two valid decisions, padded to exactly five bytes.
const (
	decisionWordHit   = "Hittt"
	decisionWordStand = "Stand"
)

func (d Decision) String() string {
	switch d {
	case DecisionHit:
		return "hit"
	case DecisionStand:
		return "stand"
	default:
		return "invalid"
	}
}

// Decode failures. Readers treat any of these as peer misbehavior and drop
// the connection; the protocol has no error frame to answer with.
var (
	ErrBadCookie = errors.New("protocol: bad magic cookie")
	ErrBadType   = errors.New("protocol: unexpected message type")
	ErrTruncated = errors.New("protocol: truncated frame")
)

// Offer is the discovery datagram a host broadcasts: where to connect and
// what to call the host. Rebuilt from scratch on every broadcast tick.
type Offer struct {
	TCPPort  uint16
	HostName string
}

// Request is the first frame a client sends on the session channel: how
// many rounds to play (1 to 255 are valid; the session runner rejects 0)
// and the client's display name.
type Request struct {
	Rounds     uint8
	ClientName string
}

// CardUpdate announces one dealt card together with the round status. When
// Result is terminal, the card is presentational only: the dealer's most
// recently shown card, or the player's last card on a bust or 21.
type CardUpdate struct {
	Result Result
	Rank   uint16
	Suit   uint8
}
