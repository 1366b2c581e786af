package eventstore

import (
	"testing"
)

func TestTimelineProjection_ApplyEvents(t *testing.T) {
	projection := NewTimelineProjection(newTestJournal(t))

	added, err := NewPingAdded(testRunID, "ping-1", PingAddedPayload{Platform: "slack", ThreadID: "slack-t1"})
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	projection.Apply(added)

	tl, ok := projection.Timeline("ping-1")
	if !ok {
		t.Fatal("Expected ping to be tracked")
	}
	if tl.Status != "new" || tl.Platform != "slack" || tl.ThreadID != "slack-t1" {
		t.Errorf("unexpected timeline after add: %+v", tl)
	}

	synced, _ := NewPingSynced(testRunID, "ping-1", PingSyncedPayload{PreviousStatus: "new", IssueID: "ISSUE-1", Permalink: "https://x/1"})
	projection.Apply(synced)

	// A late analyzed event must not move a synced ping backwards.
	analyzed, _ := NewPingAnalyzed(testRunID, "ping-1", PingAnalyzedPayload{PreviousStatus: "new"})
	projection.Apply(analyzed)

	responded, _ := NewPingResponded(testRunID, "ping-1")
	projection.Apply(responded)

	tl, _ = projection.Timeline("ping-1")
	if tl.Status != "synced" {
		t.Errorf("Expected status synced, got %q", tl.Status)
	}
	if tl.IssueID != "ISSUE-1" {
		t.Errorf("Expected issue ISSUE-1, got %q", tl.IssueID)
	}
	if !tl.Responded {
		t.Error("Expected responded")
	}
	if tl.EventCount != 4 {
		t.Errorf("Expected 4 events, got %d", tl.EventCount)
	}
	if projection.SyncedURLs() != 1 {
		t.Errorf("Expected 1 synced url, got %d", projection.SyncedURLs())
	}
}

func TestTimelineProjection_Rebuild(t *testing.T) {
	j := newTestJournal(t)
	ctx := t.Context()

	for _, build := range []func() (*BaseEvent, error){
		func() (*BaseEvent, error) { return NewPingAdded(testRunID, "ping-a", PingAddedPayload{Platform: "p2"}) },
		func() (*BaseEvent, error) {
			return NewPingAdded(testRunID, "ping-b", PingAddedPayload{Platform: "slack"})
		},
		func() (*BaseEvent, error) {
			return NewPingAnalyzed(testRunID, "ping-b", PingAnalyzedPayload{PreviousStatus: "new"})
		},
		func() (*BaseEvent, error) { return NewURLSynced(testRunID, "https://x/manual") },
		func() (*BaseEvent, error) {
			return NewMigrationCompleted(testRunID, MigrationPayload{Pings: 3, Threads: 1, Source: "state.json"})
		},
	} {
		ev, err := build()
		if err != nil {
			t.Fatal(err)
		}
		if err := j.Append(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	projection := NewTimelineProjection(j)
	if err := projection.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	timelines := projection.Timelines()
	if len(timelines) != 2 {
		t.Fatalf("Expected 2 timelines, got %d", len(timelines))
	}
	b, _ := projection.Timeline("ping-b")
	if b.Status != "analyzed" {
		t.Errorf("Expected ping-b analyzed, got %q", b.Status)
	}
	if projection.SyncedURLs() != 1 {
		t.Errorf("Expected 1 synced url, got %d", projection.SyncedURLs())
	}
	m, ok := projection.LastMigration()
	if !ok || m.Pings != 3 {
		t.Errorf("Expected migration payload, got %+v (%v)", m, ok)
	}
	if projection.LastSyncTime().IsZero() {
		t.Error("Expected last sync time to be set")
	}
}
