package commands

import (
	"git.home.luguber.info/inful/pingtriage/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file and document settings"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	g.Logger.Info("Initializing configuration", "path", root.Config, "force", i.Force)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if root.BaseDir != "" {
		cfg.State.BaseDir = root.BaseDir
	}
	g.Config = cfg

	s, err := openStore(g, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	seeded := false
	if !s.store.Exists() || i.Force {
		if _, err := s.store.UpdateSettings(g.Context(), cfg.Settings).ToTuple(); err != nil {
			return err
		}
		seeded = true
	}
	return printJSON(g.Stdout, map[string]any{
		"config":          root.Config,
		"state":           s.store.Path(),
		"settings_seeded": seeded,
	})
}
