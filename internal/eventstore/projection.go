package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"
)

// PingTimeline is a read model of one ping's journal entries.
type PingTimeline struct {
	PingID     string    `json:"ping_id"`
	Platform   string    `json:"platform,omitempty"`
	ThreadID   string    `json:"thread_id,omitempty"`
	Status     string    `json:"status"`
	IssueID    string    `json:"issue_id,omitempty"`
	Responded  bool      `json:"responded"`
	FirstSeen  time.Time `json:"first_seen"`
	LastEvent  time.Time `json:"last_event"`
	EventCount int       `json:"event_count"`
}

// TimelineProjection folds journal events into per-ping timelines.
type TimelineProjection struct {
	mu        sync.RWMutex
	store     Store
	pings     map[string]*PingTimeline
	urls      map[string]struct{}
	migration *MigrationPayload
	lastSync  time.Time
}

// NewTimelineProjection creates a projection backed by the given store.
func NewTimelineProjection(store Store) *TimelineProjection {
	return &TimelineProjection{
		store: store,
		pings: make(map[string]*PingTimeline),
		urls:  make(map[string]struct{}),
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *TimelineProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pings = make(map[string]*PingTimeline)
	p.urls = make(map[string]struct{})
	p.migration = nil
	for _, event := range events {
		p.applyEventLocked(event)
	}
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *TimelineProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *TimelineProjection) applyEventLocked(event Event) {
	switch event.Type() {
	case TypeURLSynced:
		var payload URLSyncedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil && payload.URL != "" {
			p.urls[payload.URL] = struct{}{}
		}
		return
	case TypeMigrationCompleted:
		var payload MigrationPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			p.migration = &payload
		}
		return
	}

	pingID := event.PingID()
	if pingID == "" {
		return
	}
	tl, ok := p.pings[pingID]
	if !ok {
		tl = &PingTimeline{PingID: pingID, Status: "new", FirstSeen: event.Timestamp()}
		p.pings[pingID] = tl
	}
	tl.EventCount++
	if event.Timestamp().After(tl.LastEvent) {
		tl.LastEvent = event.Timestamp()
	}

	switch event.Type() {
	case TypePingAdded:
		var payload PingAddedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			tl.Platform = payload.Platform
			tl.ThreadID = payload.ThreadID
		}
		tl.FirstSeen = event.Timestamp()
	case TypePingAnalyzed:
		if tl.Status != "synced" {
			tl.Status = "analyzed"
		}
	case TypePingSynced:
		tl.Status = "synced"
		var payload PingSyncedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			tl.IssueID = payload.IssueID
			if payload.Permalink != "" {
				p.urls[payload.Permalink] = struct{}{}
			}
		}
	case TypePingResponded:
		tl.Responded = true
	}
}

// Timeline returns a copy of the timeline for a ping.
func (p *TimelineProjection) Timeline(pingID string) (PingTimeline, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tl, ok := p.pings[pingID]
	if !ok {
		return PingTimeline{}, false
	}
	return *tl, true
}

// Timelines returns every timeline ordered by first appearance.
func (p *TimelineProjection) Timelines() []PingTimeline {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]PingTimeline, 0, len(p.pings))
	for _, tl := range p.pings {
		out = append(out, *tl)
	}
	slices.SortFunc(out, func(a, b PingTimeline) int {
		if c := a.FirstSeen.Compare(b.FirstSeen); c != 0 {
			return c
		}
		return strings.Compare(a.PingID, b.PingID)
	})
	return out
}

// SyncedURLs reports how many distinct URLs the journal has seen synced.
func (p *TimelineProjection) SyncedURLs() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.urls)
}

// LastMigration returns the most recent migration payload, if any.
func (p *TimelineProjection) LastMigration() (MigrationPayload, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.migration == nil {
		return MigrationPayload{}, false
	}
	return *p.migration, true
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *TimelineProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
