package eventstore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	ferrors "git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

const testRunID = "run-test-1"

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalAppendAndRetrieve(t *testing.T) {
	j := newTestJournal(t)
	ctx := t.Context()

	ev, err := NewPingAdded(testRunID, "ping-abc", PingAddedPayload{Platform: "slack", MessageID: "m1", Timestamp: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	ev.EventMetadata = map[string]string{"key": "value"}

	if err := j.Append(ctx, ev); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	events, err := j.GetByPingID(ctx, "ping-abc")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	got := events[0]
	if got.ID() == 0 {
		t.Error("expected row id to be assigned")
	}
	if got.Type() != TypePingAdded {
		t.Errorf("expected type %s, got %s", TypePingAdded, got.Type())
	}
	if got.RunID() != testRunID {
		t.Errorf("expected run id %s, got %s", testRunID, got.RunID())
	}
	if got.Metadata()["key"] != "value" {
		t.Errorf("expected metadata key=value, got %v", got.Metadata())
	}

	var payload PingAddedPayload
	if err := json.Unmarshal(got.Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Platform != "slack" || payload.MessageID != "m1" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestJournalQueriesFilter(t *testing.T) {
	j := newTestJournal(t)
	ctx := t.Context()

	mustAppend := func(ev *BaseEvent, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("build event: %v", err)
		}
		if err := j.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	mustAppend(NewPingAdded("run-a", "ping-1", PingAddedPayload{Platform: "slack"}))
	mustAppend(NewPingAnalyzed("run-a", "ping-1", PingAnalyzedPayload{PreviousStatus: "new"}))
	mustAppend(NewPingAdded("run-b", "ping-2", PingAddedPayload{Platform: "p2"}))
	mustAppend(NewURLSynced("run-b", "https://example.com/x"))

	byPing, err := j.GetByPingID(ctx, "ping-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(byPing) != 2 || byPing[0].Type() != TypePingAdded || byPing[1].Type() != TypePingAnalyzed {
		t.Errorf("ping-1 events out of order or missing: %d", len(byPing))
	}

	byRun, err := j.GetByRunID(ctx, "run-b")
	if err != nil {
		t.Fatal(err)
	}
	if len(byRun) != 2 {
		t.Errorf("expected 2 run-b events, got %d", len(byRun))
	}

	now := time.Now()
	all, err := j.GetRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 events in range, got %d", len(all))
	}

	none, err := j.GetRange(ctx, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no events in old range, got %d", len(none))
	}
}

func TestJournalPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := t.Context()

	j, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	ev, _ := NewPingResponded(testRunID, "ping-9")
	if err := j.Append(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByPingID(ctx, "ping-9")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected persisted event, got %d", len(events))
	}
}

func TestJournalAppendAfterCloseIsClassified(t *testing.T) {
	j, err := NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_ = j.Close()

	ev, _ := NewPingResponded(testRunID, "ping-1")
	err = j.Append(t.Context(), ev)
	if err == nil {
		t.Fatal("expected error after close")
	}
	if !ferrors.HasCategory(err, ferrors.CategoryEventStore) {
		t.Errorf("expected eventstore category, got %v", ferrors.GetCategory(err))
	}
}
