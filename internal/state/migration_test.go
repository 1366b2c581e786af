package state

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

const legacyFixture = `{
  "last_fetch": {"slack": "2024-04-01T00:00:00.000000+00:00", "p2": "2024-04-02T00:00:00.000000+00:00"},
  "pings": {
    "ping-a": {
      "id": "ping-a", "platform": "slack", "message_id": "m1", "timestamp": "t1",
      "author": "bob", "content": "hello", "thread_id": "slack-T1", "status": "synced",
      "linear_issue_id": "ISS-1", "metadata": {"permalink": "https://slack.example/m1"},
      "created_at": "2024-04-01T00:00:00.000000+00:00", "updated_at": "2024-04-01T00:00:00.000000+00:00"
    },
    "ping-b": {
      "id": "ping-b", "platform": "p2", "message_id": "m2", "timestamp": "t2",
      "author": "eve", "content": "ping", "status": "new", "metadata": {"permalink": "https://p2.example/m2"},
      "created_at": "2024-04-02T00:00:00.000000+00:00", "updated_at": "2024-04-02T00:00:00.000000+00:00"
    },
    "ping-c": {
      "id": "ping-c", "platform": "p2", "message_id": "m3", "timestamp": "t3",
      "author": "eve", "content": "no link", "status": "synced", "linear_issue_id": "ISS-2",
      "created_at": "2024-04-03T00:00:00.000000+00:00", "updated_at": "2024-04-03T00:00:00.000000+00:00"
    }
  },
  "threads": {
    "slack-T1": {"id": "slack-T1", "ping_ids": ["ping-a"], "linear_issue_id": "ISS-1", "created_at": "2024-04-01T00:00:00.000000+00:00"}
  }
}`

func writeLegacy(t *testing.T, js *JSONStore, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(js.Dir(), 0o750))
	require.NoError(t, os.WriteFile(js.LegacyPath(), []byte(content), 0o600))
}

func TestMigrateImportsLegacyState(t *testing.T) {
	js := NewJSONStore(t.TempDir(), WithStoreClock(fixedClock))
	writeLegacy(t, js, legacyFixture)
	journal := &memJournal{}

	doc := NewDocument(fixedNow)
	doc.Linear.TeamID = "KEEP"
	res := NewMigrator(js, nil, nil).WithJournal(journal, "run-1").Migrate(t.Context(), doc)
	require.True(t, res.IsOk())
	out := res.Unwrap()

	assert.True(t, out.Performed)
	assert.Equal(t, 3, out.PingsMigrated)
	assert.Equal(t, 1, out.ThreadsMigrated)
	assert.Equal(t, 2, out.CursorsMigrated)
	assert.Equal(t, 1, out.SyncedURLs)

	assert.Equal(t, "KEEP", doc.Linear.TeamID, "settings are not part of the legacy file")
	assert.Equal(t, []string{"https://slack.example/m1"}, doc.State.SyncedURLs)
	assert.Equal(t, "ISS-1", doc.State.Threads["slack-T1"].IssueID())

	_, err := os.Stat(js.LegacyPath())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(js.MigratedPath())
	require.NoError(t, err)

	loaded, err := js.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.State.Pings, 3)
	assert.Equal(t, "KEEP", loaded.Linear.TeamID)

	assert.Equal(t, []string{"migration.completed"}, journal.types())
}

func TestMigrateRunsOnlyOnce(t *testing.T) {
	dir := t.TempDir()
	ctx := t.Context()
	js := NewJSONStore(dir, WithStoreClock(fixedClock))
	writeLegacy(t, js, legacyFixture)

	first, err := Open(ctx, dir, Options{Clock: fixedClock})
	require.NoError(t, err)
	assert.True(t, first.Migration().Performed)
	require.NoError(t, first.Close())

	// A fresh legacy file must be ignored once the marker exists.
	writeLegacy(t, js, `{"pings": {}, "threads": {}, "last_fetch": {}}`)

	second, err := Open(ctx, dir, Options{Clock: fixedClock})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	assert.False(t, second.Migration().Performed)
	assert.Equal(t, "already migrated", second.Migration().Reason)
	assert.Equal(t, 3, second.Stats().TotalPings)
}

func TestMigrateWithoutLegacyFile(t *testing.T) {
	js := NewJSONStore(t.TempDir())
	res := NewMigrator(js, nil, nil).Migrate(t.Context(), NewDocument(fixedNow))
	require.True(t, res.IsOk())
	assert.False(t, res.Unwrap().Performed)
	assert.Equal(t, "no legacy state file", res.Unwrap().Reason)
	assert.False(t, js.Exists())
}

func TestMigrateAbandonsMalformedLegacyFile(t *testing.T) {
	js := NewJSONStore(t.TempDir())
	writeLegacy(t, js, "{broken")

	doc := NewDocument(fixedNow)
	doc.State.LastFetch["slack"] = "cursor"
	res := NewMigrator(js, nil, nil).Migrate(t.Context(), doc)

	require.True(t, res.IsErr())
	assert.True(t, ferrors.HasCategory(res.UnwrapErr(), ferrors.CategoryMigration))
	assert.Equal(t, map[string]string{"slack": "cursor"}, doc.State.LastFetch)
	_, err := os.Stat(js.LegacyPath())
	require.NoError(t, err, "legacy file stays for inspection")
}

func TestMigrateSaveFailureKeepsLegacyFile(t *testing.T) {
	js := NewJSONStore(t.TempDir())
	writeLegacy(t, js, legacyFixture)
	require.NoError(t, os.MkdirAll(js.Path()+tempSuffix+"/busy", 0o750))

	doc := NewDocument(fixedNow)
	doc.addSyncedURL("https://existing.example")
	res := NewMigrator(js, nil, nil).Migrate(t.Context(), doc)

	require.True(t, res.IsErr())
	assert.True(t, ferrors.HasCategory(res.UnwrapErr(), ferrors.CategoryMigration))
	assert.Empty(t, doc.State.Pings, "document must be restored")
	assert.True(t, doc.hasSyncedURL("https://existing.example"))
	assert.False(t, doc.hasSyncedURL("https://slack.example/m1"))

	_, err := os.Stat(js.LegacyPath())
	require.NoError(t, err)
	_, err = os.Stat(js.MigratedPath())
	assert.True(t, os.IsNotExist(err))
}
