package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	t       *testing.T
	dir     string
	config  string
	journal bool
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("LINEAR_TEAM_ID", "TEAM-1")
	t.Setenv("LINEAR_USER_ID", "USER-1")
	dir := t.TempDir()
	return &cliEnv{t: t, dir: dir, config: filepath.Join(dir, "pingtriage.yaml")}
}

// exec runs the CLI and returns the exit code, stdout and stderr.
func (e *cliEnv) exec(stdin string, args ...string) (int, string, string) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-c", e.config, "-d", e.dir}, args...)
	code := run(e.t.Context(), full, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *cliEnv) mustJSON(v any, args ...string) {
	e.t.Helper()
	code, out, errOut := e.exec("", args...)
	require.Equal(e.t, 0, code, "args %v: stderr %s", args, errOut)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), "output %q", out)
}

func TestCLILifecycle(t *testing.T) {
	env := newCLIEnv(t)

	var initOut map[string]any
	env.mustJSON(&initOut, "init")
	assert.Equal(t, true, initOut["settings_seeded"])

	var added map[string]string
	env.mustJSON(&added, "add",
		"--platform", "slack", "--message-id", "C1.100", "--timestamp", "2024-05-01T10:00:00Z",
		"--author", "alice", "--content", "please review", "--thread", "slack-C1.100",
		"--meta", "permalink=https://slack.example/p100", "--meta", "channel_name=eng")
	id := added["id"]
	require.True(t, strings.HasPrefix(id, "ping-"))

	var again map[string]string
	env.mustJSON(&again, "add",
		"--platform", "slack", "--message-id", "C1.100", "--timestamp", "2024-05-01T10:00:00Z",
		"--author", "alice", "--content", "please review")
	assert.Equal(t, id, again["id"], "re-adding must be idempotent")

	var pending []map[string]any
	env.mustJSON(&pending, "list", "new")
	require.Len(t, pending, 1)

	code, out, _ := env.exec(`{"author_name":"Alice","action_summary_short":"Review PR","summary":"s","original_quote":"q","suggested_action":"Review","action_summary":"a","priority":2}`, "analyze", id)
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"complete": true`)

	var title map[string]string
	env.mustJSON(&title, "render", "title", id)
	assert.Equal(t, "Alice: Review PR", title["text"])

	code, _, _ = env.exec("", "url-synced", "https://slack.example/p100")
	assert.Equal(t, 1, code)

	var linked map[string]any
	env.mustJSON(&linked, "link", id, "ISS-42")
	code, _, _ = env.exec("", "url-synced", "https://slack.example/p100")
	assert.Equal(t, 0, code)

	var thread struct {
		LinearIssueID *string          `json:"linear_issue_id"`
		Pings         []map[string]any `json:"pings"`
	}
	env.mustJSON(&thread, "thread", "slack-C1.100")
	require.NotNil(t, thread.LinearIssueID)
	assert.Equal(t, "ISS-42", *thread.LinearIssueID)
	assert.Len(t, thread.Pings, 1)

	var stats map[string]int
	env.mustJSON(&stats, "stats")
	assert.Equal(t, 1, stats["total_pings"])
	assert.Equal(t, 1, stats["synced_pings"])
	assert.Equal(t, 1, stats["total_threads"])

	code, _, _ = env.exec("", "validate")
	assert.Equal(t, 0, code)
}

func TestCLIExitCodes(t *testing.T) {
	env := newCLIEnv(t)

	code, _, errOut := env.exec("", "link", "ping-missing", "ISS-1")
	assert.Equal(t, 3, code, "unknown ping is not_found")
	assert.Contains(t, errOut, "not found")

	code, _, _ = env.exec("", "validate")
	assert.Equal(t, 1, code, "no document yet")

	code, _, _ = env.exec("not json", "analyze", "ping-x")
	assert.Equal(t, 2, code)

	code, _, _ = env.exec("", "history")
	assert.Equal(t, 7, code, "history without a journal is a config error")

	code, _, _ = env.exec("", "init")
	require.Equal(t, 0, code)
	code, _, _ = env.exec("", "init")
	assert.Equal(t, 4, code, "second init without --force")

	code, _, _ = env.exec("", "no-such-command")
	assert.Equal(t, 2, code)
}

func TestCLIFetchCursors(t *testing.T) {
	env := newCLIEnv(t)

	var start map[string]any
	env.mustJSON(&start, "fetch-start", "slack", "--lookback", "7")
	assert.Equal(t, false, start["has_cursor"])

	var set map[string]string
	env.mustJSON(&set, "set-last-fetch", "slack", "2024-05-01T00:00:00.000000+00:00")
	env.mustJSON(&start, "fetch-start", "slack")
	assert.Equal(t, true, start["has_cursor"])
	assert.Equal(t, "2024-05-01T00:00:00.000000+00:00", start["start"])
}

func TestCLISessionAndMigrate(t *testing.T) {
	env := newCLIEnv(t)

	var sess map[string]string
	env.mustJSON(&sess, "session", "report.md")
	assert.Equal(t, env.dir, filepath.Dir(sess["session"]))
	assert.Equal(t, filepath.Join(sess["session"], "report.md"), sess["file"])

	var mig map[string]any
	env.mustJSON(&mig, "migrate")
	assert.Equal(t, false, mig["performed"])
	assert.Equal(t, "no legacy state file", mig["reason"])
}
