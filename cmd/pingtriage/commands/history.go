package commands

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/eventstore"
	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	PingID string `arg:"" optional:"" name:"ping-id" help:"Ping id; omit for a summary of every ping in the journal"`
}

type historyEntry struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func (c *HistoryCmd) Run(g *Global, _ *CLI) error {
	if journalPath(g.Config) == "" {
		return errors.ConfigError("no journal configured (set state.journal)").UserAction().Build()
	}
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := g.Context()
	proj := eventstore.NewTimelineProjection(s.journal)

	if c.PingID == "" {
		if err := proj.Rebuild(ctx); err != nil {
			return err
		}
		out := map[string]any{
			"pings":       proj.Timelines(),
			"synced_urls": proj.SyncedURLs(),
		}
		if m, ok := proj.LastMigration(); ok {
			out["last_migration"] = m
		}
		return printJSON(g.Stdout, out)
	}

	events, err := s.journal.GetByPingID(ctx, c.PingID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return errors.NotFoundError("journal entries").WithContext("ping_id", c.PingID).Build()
	}
	entries := make([]historyEntry, 0, len(events))
	for _, ev := range events {
		proj.Apply(ev)
		entries = append(entries, historyEntry{
			ID:        ev.ID(),
			Type:      ev.Type(),
			RunID:     ev.RunID(),
			Timestamp: ev.Timestamp(),
			Payload:   json.RawMessage(ev.Payload()),
		})
	}
	timeline, _ := proj.Timeline(c.PingID)
	return printJSON(g.Stdout, map[string]any{
		"timeline": timeline,
		"events":   entries,
	})
}
