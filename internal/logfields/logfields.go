package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPingID     = "ping_id"
	KeyThreadID   = "thread_id"
	KeyPlatform   = "platform"
	KeyStatus     = "status"
	KeyIssueID    = "issue_id"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyRunID      = "run_id"
	KeyEvent      = "event"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PingID(id string) slog.Attr      { return slog.String(KeyPingID, id) }
func ThreadID(id string) slog.Attr    { return slog.String(KeyThreadID, id) }
func Platform(p string) slog.Attr     { return slog.String(KeyPlatform, p) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func IssueID(id string) slog.Attr     { return slog.String(KeyIssueID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Event(name string) slog.Attr     { return slog.String(KeyEvent, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
