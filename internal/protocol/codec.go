package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode returns the 39-byte Offer datagram payload.
func (o Offer) Encode() []byte {
	buf := make([]byte, OfferSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = byte(TypeOffer)
	binary.BigEndian.PutUint16(buf[5:7], o.TCPPort)
	putName(buf[7:], o.HostName)
	return buf
}

// ParseOffer decodes an Offer from a received datagram. Datagrams larger
// than OfferSize are accepted and the tail ignored, so a sender may grow
// the frame without breaking old listeners.
func ParseOffer(buf []byte) (Offer, error) {
	if len(buf) < OfferSize {
		return Offer{}, ErrTruncated
	}
	if err := checkHeader(buf, TypeOffer); err != nil {
		return Offer{}, err
	}
	return Offer{
		TCPPort:  binary.BigEndian.Uint16(buf[5:7]),
		HostName: nameFrom(buf[7 : 7+NameSize]),
	}, nil
}

// Encode returns the 38-byte Request frame.
func (r Request) Encode() []byte {
	buf := make([]byte, RequestSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = byte(TypeRequest)
	buf[5] = r.Rounds
	putName(buf[6:], r.ClientName)
	return buf
}

// ReadRequest reads exactly one Request frame from the stream.
func ReadRequest(r io.Reader) (Request, error) {
	buf := make([]byte, RequestSize)
	if err := readFrame(r, buf); err != nil {
		return Request{}, err
	}
	return ParseRequest(buf)
}

// ParseRequest decodes a Request from a full frame buffer.
func ParseRequest(buf []byte) (Request, error) {
	if len(buf) < RequestSize {
		return Request{}, ErrTruncated
	}
	if err := checkHeader(buf, TypeRequest); err != nil {
		return Request{}, err
	}
	return Request{
		Rounds:     buf[5],
		ClientName: nameFrom(buf[6 : 6+NameSize]),
	}, nil
}

// Encode returns the 9-byte CardUpdate frame.
func (u CardUpdate) Encode() []byte {
	buf := make([]byte, CardUpdateSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = byte(TypePayload)
	buf[5] = byte(u.Result)
	binary.BigEndian.PutUint16(buf[6:8], u.Rank)
	buf[8] = u.Suit
	return buf
}

// ReadCardUpdate reads exactly one CardUpdate frame from the stream. This
// is the client-side entry point for type 0x4 frames; hosts never call it.
func ReadCardUpdate(r io.Reader) (CardUpdate, error) {
	buf := make([]byte, CardUpdateSize)
	if err := readFrame(r, buf); err != nil {
		return CardUpdate{}, err
	}
	if err := checkHeader(buf, TypePayload); err != nil {
		return CardUpdate{}, err
	}
	return CardUpdate{
		Result: Result(buf[5]),
		Rank:   binary.BigEndian.Uint16(buf[6:8]),
		Suit:   buf[8],
	}, nil
}

// Encode returns the 10-byte Decision frame. DecisionInvalid has no wire
// word of its own and encodes as Stand, matching how readers coerce it.
func (d Decision) Encode() []byte {
	word := decisionWordStand
	if d == DecisionHit {
		word = decisionWordHit
	}
	buf := make([]byte, DecisionSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = byte(TypePayload)
	copy(buf[5:], word)
	return buf
}

// ReadDecision reads exactly one Decision frame from the stream. This is
// the host-side entry point for type 0x4 frames; clients never call it.
// An unrecognized decision word is not an error: it decodes to
// DecisionInvalid and the caller stands the player.
func ReadDecision(r io.Reader) (Decision, error) {
	buf := make([]byte, DecisionSize)
	if err := readFrame(r, buf); err != nil {
		return DecisionInvalid, err
	}
	if err := checkHeader(buf, TypePayload); err != nil {
		return DecisionInvalid, err
	}
	switch string(buf[5:]) {
	case decisionWordHit:
		return DecisionHit, nil
	case decisionWordStand:
		return DecisionStand, nil
	default:
		return DecisionInvalid, nil
	}
}

// readFrame fills buf from r. A clean EOF before the first byte passes
// through as io.EOF so callers can tell an orderly close from a torn
// frame; a partial frame comes back as ErrTruncated.
func readFrame(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if n == 0 && err == io.EOF {
		return io.EOF
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, n, len(buf))
	}
	return err
}

func checkHeader(buf []byte, want MessageType) error {
	if binary.BigEndian.Uint32(buf[0:4]) != MagicCookie {
		return ErrBadCookie
	}
	if MessageType(buf[4]) != want {
		return fmt.Errorf("%w: got 0x%x, want 0x%x", ErrBadType, buf[4], byte(want))
	}
	return nil
}

// putName writes name into the fixed-width field, truncating overlong
// names and NUL-padding short ones.
func putName(dst []byte, name string) {
	b := []byte(name)
	if len(b) > NameSize {
		b = b[:NameSize]
	}
	copy(dst[:NameSize], b)
}

// nameFrom decodes a fixed-width name field, dropping the NUL padding.
func nameFrom(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}
