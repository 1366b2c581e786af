// Package eventstore records ping lifecycle events in an append-only SQLite
// journal. The journal is an audit trail: the state document never replays it.
package eventstore

import "time"

// Event represents a lifecycle event of a ping or of the store itself.
type Event interface {
	// ID returns the row identifier assigned on append (0 before that).
	ID() int64
	// PingID returns the ping the event concerns, or "" for store-level events.
	PingID() string
	// RunID identifies the store instance that emitted the event.
	RunID() string
	Type() string
	Timestamp() time.Time
	// Payload returns the event data as JSON bytes.
	Payload() []byte
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventPingID    string
	EventRunID     string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) PingID() string              { return e.EventPingID }
func (e *BaseEvent) RunID() string               { return e.EventRunID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
