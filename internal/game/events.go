package game

import (
	"sync"
	"time"

	"github.com/lox/lanjack/internal/deck"
	"github.com/lox/lanjack/internal/protocol"
)

// EventType represents a session event type with type safety
type EventType string

const (
	EventTypeSessionStarted EventType = "session_started"
	EventTypeRoundStarted   EventType = "round_started"
	EventTypeCardDealt      EventType = "card_dealt"
	EventTypeRoundSettled   EventType = "round_settled"
	EventTypeSessionEnded   EventType = "session_ended"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event represents anything that happens over the life of a session. The
// host's session runners publish these; the monitor feed and host log
// subscribe. Sessions never read the bus, so game state stays unshared.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// SessionStartedEvent is published once a Request has been accepted.
type SessionStartedEvent struct {
	SessionID  uint64 `json:"session_id"`
	ClientName string `json:"client_name"`
	RemoteAddr string `json:"remote_addr"`
	Rounds     int    `json:"rounds"`
	timestamp  time.Time
}

func (e SessionStartedEvent) EventType() EventType { return EventTypeSessionStarted }
func (e SessionStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewSessionStartedEvent creates a new session started event
func NewSessionStartedEvent(sessionID uint64, clientName, remoteAddr string, rounds int) SessionStartedEvent {
	return SessionStartedEvent{
		SessionID:  sessionID,
		ClientName: clientName,
		RemoteAddr: remoteAddr,
		Rounds:     rounds,
		timestamp:  time.Now(),
	}
}

// RoundStartedEvent is published as each round begins.
type RoundStartedEvent struct {
	SessionID uint64 `json:"session_id"`
	Round     int    `json:"round"`
	Of        int    `json:"of"`
	timestamp time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundStartedEvent creates a new round started event
func NewRoundStartedEvent(sessionID uint64, round, of int) RoundStartedEvent {
	return RoundStartedEvent{SessionID: sessionID, Round: round, Of: of, timestamp: time.Now()}
}

// CardDealtEvent is published for every CardUpdate a session sends.
type CardDealtEvent struct {
	SessionID uint64 `json:"session_id"`
	Round     int    `json:"round"`
	Card      string `json:"card"`
	Result    string `json:"result"`
	timestamp time.Time
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }
func (e CardDealtEvent) Timestamp() time.Time { return e.timestamp }

// NewCardDealtEvent creates a new card dealt event
func NewCardDealtEvent(sessionID uint64, round int, card deck.Card, result protocol.Result) CardDealtEvent {
	return CardDealtEvent{
		SessionID: sessionID,
		Round:     round,
		Card:      card.String(),
		Result:    result.String(),
		timestamp: time.Now(),
	}
}

// RoundSettledEvent is published when a round reaches its terminal result.
type RoundSettledEvent struct {
	SessionID uint64 `json:"session_id"`
	Round     int    `json:"round"`
	Result    string `json:"result"`
	Tally     Tally  `json:"tally"`
	timestamp time.Time
}

func (e RoundSettledEvent) EventType() EventType { return EventTypeRoundSettled }
func (e RoundSettledEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundSettledEvent creates a new round settled event
func NewRoundSettledEvent(sessionID uint64, round int, result protocol.Result, tally Tally) RoundSettledEvent {
	return RoundSettledEvent{
		SessionID: sessionID,
		Round:     round,
		Result:    result.String(),
		Tally:     tally,
		timestamp: time.Now(),
	}
}

// SessionEndedEvent is published when a session finishes or aborts. The
// tally is whatever accumulated before the end; Completed distinguishes a
// full run from a dropped connection.
type SessionEndedEvent struct {
	SessionID  uint64 `json:"session_id"`
	ClientName string `json:"client_name"`
	Completed  bool   `json:"completed"`
	Tally      Tally  `json:"tally"`
	timestamp  time.Time
}

func (e SessionEndedEvent) EventType() EventType { return EventTypeSessionEnded }
func (e SessionEndedEvent) Timestamp() time.Time { return e.timestamp }

// NewSessionEndedEvent creates a new session ended event
func NewSessionEndedEvent(sessionID uint64, clientName string, completed bool, tally Tally) SessionEndedEvent {
	return SessionEndedEvent{
		SessionID:  sessionID,
		ClientName: clientName,
		Completed:  completed,
		Tally:      tally,
		timestamp:  time.Now(),
	}
}

// EventSubscriber can subscribe to session events
type EventSubscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus. Publish fans out
// synchronously on the caller's goroutine, so subscribers that can block
// (like the monitor feed) must hand off internally. Safe for concurrent
// use; every session goroutine publishes to the same bus.
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]EventSubscriber, len(bus.subscribers))
	copy(subs, bus.subscribers)
	bus.mu.RUnlock()

	for _, subscriber := range subs {
		subscriber.OnEvent(event)
	}
}
