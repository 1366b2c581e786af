package commands

import (
	"encoding/json"
	"io"
	"os"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/render"
	"git.home.luguber.info/inful/pingtriage/internal/state"
)

// StatsCmd implements the 'stats' command.
type StatsCmd struct{}

func (c *StatsCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()
	return printJSON(g.Stdout, s.store.Stats())
}

// AddCmd implements the 'add' command.
type AddCmd struct {
	Platform  string            `required:"" help:"Source platform (slack, p2, figma, ...)"`
	MessageID string            `required:"" name:"message-id" help:"Platform message id"`
	Timestamp string            `required:"" help:"Platform timestamp of the message"`
	Author    string            `required:"" help:"Message author"`
	Content   string            `required:"" help:"Message text"`
	Thread    string            `help:"Thread id; pings sharing it are grouped"`
	Meta      map[string]string `help:"Metadata key=value (repeatable), e.g. permalink=https://..."`
}

func (c *AddCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	meta := make(map[string]any, len(c.Meta))
	for k, v := range c.Meta {
		meta[k] = v
	}
	id, err := s.store.AddPing(g.Context(), state.NewPing{
		Platform:  c.Platform,
		MessageID: c.MessageID,
		Timestamp: c.Timestamp,
		Author:    c.Author,
		Content:   c.Content,
		ThreadID:  c.Thread,
		Metadata:  meta,
	}).ToTuple()
	if err != nil {
		return err
	}
	return printJSON(g.Stdout, map[string]string{"id": id})
}

// AnalyzeCmd implements the 'analyze' command.
type AnalyzeCmd struct {
	ID   string `arg:"" help:"Ping id"`
	File string `short:"f" help:"Analysis JSON file (default: stdin)" type:"existingfile"`
}

func (c *AnalyzeCmd) Run(g *Global, _ *CLI) error {
	var in io.Reader = g.Stdin
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return errors.FileSystemError("failed to open analysis file").
				WithCause(err).
				WithContext("path", c.File).
				Build()
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var analysis state.Analysis
	if err := json.NewDecoder(in).Decode(&analysis); err != nil {
		return errors.ValidationError("analysis must be a JSON object").WithCause(err).Build()
	}

	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.store.UpdateAnalysis(g.Context(), c.ID, analysis).ToTuple(); err != nil {
		return err
	}
	complete, missing := render.Validate(analysis)
	return printJSON(g.Stdout, map[string]any{
		"id":       c.ID,
		"status":   state.StatusAnalyzed,
		"complete": complete,
		"missing":  missing,
	})
}

// LinkCmd implements the 'link' command.
type LinkCmd struct {
	ID    string `arg:"" help:"Ping id"`
	Issue string `arg:"" help:"Linear issue id"`
}

func (c *LinkCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.store.LinkIssue(g.Context(), c.ID, c.Issue).ToTuple(); err != nil {
		return err
	}
	return printJSON(g.Stdout, map[string]any{"id": c.ID, "status": state.StatusSynced, "linear_issue_id": c.Issue})
}

// RespondedCmd implements the 'responded' command.
type RespondedCmd struct {
	ID string `arg:"" help:"Ping id"`
}

func (c *RespondedCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.store.MarkResponded(g.Context(), c.ID).ToTuple(); err != nil {
		return err
	}
	return printJSON(g.Stdout, map[string]any{"id": c.ID, "response_detected": true})
}

// URLSyncedCmd implements the 'url-synced' command.
type URLSyncedCmd struct {
	URL string `arg:"" help:"Permalink to check"`
}

func (c *URLSyncedCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	synced := s.store.IsURLSynced(c.URL)
	if err := printJSON(g.Stdout, map[string]any{"url": c.URL, "synced": synced}); err != nil {
		return err
	}
	if !synced {
		return &ExitError{Code: 1}
	}
	return nil
}

// MarkSyncedCmd implements the 'mark-url-synced' command.
type MarkSyncedCmd struct {
	URL string `arg:"" help:"Permalink to record"`
}

func (c *MarkSyncedCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.store.MarkURLSynced(g.Context(), c.URL).ToTuple(); err != nil {
		return err
	}
	return printJSON(g.Stdout, map[string]any{"url": c.URL, "synced": true})
}

// ListCmd implements the 'list' command.
type ListCmd struct {
	Which string `arg:"" enum:"new,analyzed,responded,all" default:"new" help:"Which pings: new, analyzed, responded or all"`
}

func (c *ListCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	var pings []state.Ping
	switch c.Which {
	case "analyzed":
		pings = s.store.AnalyzedPings()
	case "responded":
		pings = s.store.RespondedPings()
	case "all":
		pings = s.store.AllPings()
	default:
		pings = s.store.UnanalyzedPings()
	}
	return printJSON(g.Stdout, pings)
}

// ThreadCmd implements the 'thread' command.
type ThreadCmd struct {
	ID string `arg:"" help:"Thread id"`
}

func (c *ThreadCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	out := struct {
		ThreadID      string       `json:"thread_id"`
		LinearIssueID *string      `json:"linear_issue_id"`
		Pings         []state.Ping `json:"pings"`
	}{
		ThreadID: c.ID,
		Pings:    s.store.ThreadPings(c.ID),
	}
	if issue, ok := s.store.ThreadLinearIssue(c.ID).Get(); ok {
		out.LinearIssueID = &issue
	}
	return printJSON(g.Stdout, out)
}
