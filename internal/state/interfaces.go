package state

import (
	"context"

	"git.home.luguber.info/inful/pingtriage/internal/config"
	"git.home.luguber.info/inful/pingtriage/internal/eventstore"
	"git.home.luguber.info/inful/pingtriage/internal/foundation"
)

// Persister writes the whole document. JSONStore is the only production
// implementation; a Repository without one never touches disk.
type Persister interface {
	Save(doc *Document) error
}

// Journal receives lifecycle events. eventstore.SQLiteJournal implements it.
type Journal interface {
	Append(ctx context.Context, event eventstore.Event) error
}

// PingWriter is the surface fetchers, analyzers and sync drivers mutate.
type PingWriter interface {
	AddPing(ctx context.Context, in NewPing) foundation.Result[string, error]
	UpdateAnalysis(ctx context.Context, id string, analysis Analysis) foundation.Result[struct{}, error]
	LinkIssue(ctx context.Context, id, issueID string) foundation.Result[struct{}, error]
	MarkResponded(ctx context.Context, id string) foundation.Result[struct{}, error]
	MarkURLSynced(ctx context.Context, url string) foundation.Result[struct{}, error]
}

// PingReader is the read-only query surface.
type PingReader interface {
	Ping(id string) foundation.Option[Ping]
	Thread(id string) foundation.Option[Thread]
	IsURLSynced(url string) bool
	UnanalyzedPings() []Ping
	AnalyzedPings() []Ping
	RespondedPings() []Ping
	ThreadPings(threadID string) []Ping
	ThreadLinearIssue(threadID string) foundation.Option[string]
	Stats() Stats
}

// FetchCursors tracks per-platform fetch windows.
type FetchCursors interface {
	LastFetch(platform string) foundation.Option[string]
	SetLastFetch(ctx context.Context, platform, timestamp string) foundation.Result[string, error]
	FetchStartDate(platform string, maxLookbackDays int) string
}

// SettingsStore exposes the settings blocks of the document.
type SettingsStore interface {
	Settings() config.Settings
	UpdateSettings(ctx context.Context, s config.Settings) foundation.Result[struct{}, error]
	EnabledPlatforms() []string
	UserContext() string
}

var (
	_ PingWriter    = (*Repository)(nil)
	_ PingReader    = (*Repository)(nil)
	_ FetchCursors  = (*Repository)(nil)
	_ SettingsStore = (*Repository)(nil)
	_ Persister     = (*JSONStore)(nil)
	_ Journal       = (*eventstore.SQLiteJournal)(nil)
)
