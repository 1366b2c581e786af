package commands

import (
	"path/filepath"

	"git.home.luguber.info/inful/pingtriage/internal/workspace"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	valid := s.store.IsValid()
	err = printJSON(g.Stdout, map[string]any{
		"valid":             valid,
		"exists":            s.store.Exists(),
		"enabled_platforms": s.store.EnabledPlatforms(),
		"user_context":      s.store.UserContext(),
	})
	if err != nil {
		return err
	}
	if !valid {
		return &ExitError{Code: 1}
	}
	return nil
}

// SessionCmd implements the 'session' command.
type SessionCmd struct {
	File string `arg:"" optional:"" help:"File name to resolve inside the session directory"`
}

func (c *SessionCmd) Run(g *Global, _ *CLI) error {
	base := filepath.Join(g.Config.State.BaseDir, g.Config.State.SessionDir)
	m := workspace.NewSessionManager(base, workspace.WithLogger(g.Logger))

	dir, err := m.SessionDir()
	if err != nil {
		return err
	}
	out := map[string]string{"session": dir}
	if c.File != "" {
		path, err := m.SessionFile(c.File)
		if err != nil {
			return err
		}
		out["file"] = path
	}
	return printJSON(g.Stdout, out)
}

// MigrateCmd implements the 'migrate' command. Migration itself runs in
// state.Open; this reports what it did.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(g *Global, _ *CLI) error {
	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()
	return printJSON(g.Stdout, s.store.Migration())
}
