package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

// Event type names.
const (
	TypePingAdded          = "ping.added"
	TypePingAnalyzed       = "ping.analyzed"
	TypePingSynced         = "ping.synced"
	TypePingResponded      = "ping.responded"
	TypeURLSynced          = "url.synced"
	TypeMigrationCompleted = "migration.completed"
)

// PingAddedPayload is stored with ping.added events.
type PingAddedPayload struct {
	Platform  string `json:"platform"`
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
}

// PingAnalyzedPayload is stored with ping.analyzed events.
type PingAnalyzedPayload struct {
	PreviousStatus string `json:"previous_status"`
	Fields         int    `json:"fields"`
}

// PingSyncedPayload is stored with ping.synced events.
type PingSyncedPayload struct {
	PreviousStatus string `json:"previous_status"`
	IssueID        string `json:"issue_id"`
	ThreadID       string `json:"thread_id,omitempty"`
	Permalink      string `json:"permalink,omitempty"`
}

// URLSyncedPayload is stored with url.synced events.
type URLSyncedPayload struct {
	URL string `json:"url"`
}

// MigrationPayload is stored with migration.completed events.
type MigrationPayload struct {
	Pings      int    `json:"pings"`
	Threads    int    `json:"threads"`
	Cursors    int    `json:"cursors"`
	SyncedURLs int    `json:"synced_urls"`
	Source     string `json:"source"`
}

func newEvent(runID, pingID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("ping_id", pingID).
			Build()
	}
	return &BaseEvent{
		EventPingID:    pingID,
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// NewPingAdded creates a ping.added event.
func NewPingAdded(runID, pingID string, p PingAddedPayload) (*BaseEvent, error) {
	return newEvent(runID, pingID, TypePingAdded, p)
}

// NewPingAnalyzed creates a ping.analyzed event.
func NewPingAnalyzed(runID, pingID string, p PingAnalyzedPayload) (*BaseEvent, error) {
	return newEvent(runID, pingID, TypePingAnalyzed, p)
}

// NewPingSynced creates a ping.synced event.
func NewPingSynced(runID, pingID string, p PingSyncedPayload) (*BaseEvent, error) {
	return newEvent(runID, pingID, TypePingSynced, p)
}

// NewPingResponded creates a ping.responded event.
func NewPingResponded(runID, pingID string) (*BaseEvent, error) {
	return newEvent(runID, pingID, TypePingResponded, struct{}{})
}

// NewURLSynced creates a url.synced event. It is not tied to a ping.
func NewURLSynced(runID, url string) (*BaseEvent, error) {
	return newEvent(runID, "", TypeURLSynced, URLSyncedPayload{URL: url})
}

// NewMigrationCompleted creates a migration.completed event.
func NewMigrationCompleted(runID string, p MigrationPayload) (*BaseEvent, error) {
	return newEvent(runID, "", TypeMigrationCompleted, p)
}
