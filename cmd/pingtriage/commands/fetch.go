package commands

// FetchStartCmd implements the 'fetch-start' command.
type FetchStartCmd struct {
	Platform string `arg:"" help:"Platform name"`
	Lookback int    `help:"Days to look back without a cursor (default: state.max_lookback_days)"`
}

func (c *FetchStartCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	days := c.Lookback
	if days <= 0 {
		days = g.Config.State.MaxLookbackDays
	}
	last := s.store.LastFetch(c.Platform)
	out := map[string]any{
		"platform":   c.Platform,
		"start":      s.store.FetchStartDate(c.Platform, days),
		"has_cursor": last.IsSome(),
	}
	return printJSON(g.Stdout, out)
}

// SetLastFetchCmd implements the 'set-last-fetch' command.
type SetLastFetchCmd struct {
	Platform  string `arg:"" help:"Platform name"`
	Timestamp string `arg:"" optional:"" help:"Cursor timestamp (default: now)"`
}

func (c *SetLastFetchCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ts, err := s.store.SetLastFetch(g.Context(), c.Platform, c.Timestamp).ToTuple()
	if err != nil {
		return err
	}
	return printJSON(g.Stdout, map[string]string{"platform": c.Platform, "last_fetch": ts})
}
