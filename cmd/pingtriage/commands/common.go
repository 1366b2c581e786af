package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pingtriage/internal/config"
	"git.home.luguber.info/inful/pingtriage/internal/eventstore"
	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/metrics"
	"git.home.luguber.info/inful/pingtriage/internal/state"
)

// Global is shared by every subcommand. AfterApply fills it.
type Global struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config *config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Context returns the command context, cancelled on SIGINT/SIGTERM when run
// from main.
func (g *Global) Context() context.Context {
	if g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

// CLI definition and global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"pingtriage.yaml" type:"path"`
	BaseDir   string           `short:"d" name:"base-dir" help:"Working folder holding .pings-triage (overrides state.base_dir)" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text or json); defaults to logging.format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init         InitCmd         `cmd:"" help:"Write an example configuration and seed the state document settings"`
	Stats        StatsCmd        `cmd:"" help:"Show ping and thread counts"`
	Add          AddCmd          `cmd:"" help:"Record a ping (idempotent)"`
	Analyze      AnalyzeCmd      `cmd:"" help:"Attach an analysis to a ping"`
	Link         LinkCmd         `cmd:"" help:"Link a ping to a Linear issue"`
	Responded    RespondedCmd    `cmd:"" help:"Mark a ping as responded"`
	URLSynced    URLSyncedCmd    `cmd:"" name:"url-synced" help:"Check whether a permalink is already synced (exit 1 if not)"`
	MarkSynced   MarkSyncedCmd   `cmd:"" name:"mark-url-synced" help:"Record a permalink as synced"`
	List         ListCmd         `cmd:"" help:"List pings by lifecycle stage"`
	Thread       ThreadCmd       `cmd:"" help:"Show a thread's pings and linked issue"`
	FetchStart   FetchStartCmd   `cmd:"" name:"fetch-start" help:"Print the timestamp to fetch a platform from"`
	SetLastFetch SetLastFetchCmd `cmd:"" name:"set-last-fetch" help:"Record a platform's fetch cursor"`
	Render       RenderCmd       `cmd:"" help:"Render Linear issue text for a ping"`
	Validate     ValidateCmd     `cmd:"" help:"Check that the state document is configured (exit 1 if not)"`
	Session      SessionCmd      `cmd:"" help:"Print (and create) this run's session directory"`
	Migrate      MigrateCmd      `cmd:"" help:"Import a legacy state.json and report the result"`
	History      HistoryCmd      `cmd:"" help:"Show journal entries for a ping"`
	Watch        WatchCmd        `cmd:"" help:"Watch the state document and serve Prometheus metrics"`
}

// AfterApply runs after flag parsing; it loads the configuration and sets up
// logging once.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return err
	}
	if c.BaseDir != "" {
		cfg.State.BaseDir = c.BaseDir
	}

	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Stdin == nil {
		g.Stdin = os.Stdin
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(g.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(g.Stderr, opts)
	}
	g.Logger = slog.New(handler)
	slog.SetDefault(g.Logger)
	g.Config = cfg
	return nil
}

// ExitError ends the process with Code and no message. Query commands use it
// to answer yes/no through the exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// session bundles an open store with the journal it writes to.
type session struct {
	store   *state.Store
	journal *eventstore.SQLiteJournal
}

func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

// journalPath resolves state.journal against the base directory.
func journalPath(cfg *config.Config) string {
	p := cfg.State.Journal
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.State.BaseDir, p)
}

// openStore opens the state store for the configured base directory, with
// the journal attached when one is configured.
func openStore(g *Global, recorder metrics.Recorder) (*session, error) {
	cfg := g.Config
	s := &session{}
	opts := state.Options{
		Lock:     cfg.State.Lock,
		Logger:   g.Logger,
		Recorder: recorder,
	}
	if path := journalPath(cfg); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.FileSystemError("failed to create journal directory").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		j, err := eventstore.NewSQLiteJournal(path)
		if err != nil {
			return nil, err
		}
		s.journal = j
		opts.Journal = j
	}

	store, err := state.Open(g.Context(), cfg.State.BaseDir, opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store
	return s, nil
}

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.InternalError("failed to encode output").WithCause(err).Build()
	}
	return nil
}
