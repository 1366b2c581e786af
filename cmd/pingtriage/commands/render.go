package commands

import (
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/render"
	"git.home.luguber.info/inful/pingtriage/internal/state"
)

// RenderCmd groups the render subcommands.
type RenderCmd struct {
	Title       RenderTitleCmd       `cmd:"" help:"Render the issue title"`
	Description RenderDescriptionCmd `cmd:"" help:"Render the issue description"`
	Comment     RenderCommentCmd     `cmd:"" help:"Render a follow-up comment"`
}

// loadAnalyzed returns the ping with its analysis. Rendering a ping without
// an analysis is a validation error.
func loadAnalyzed(g *Global, id string) (state.Ping, error) {
	s, err := openStore(g, nil)
	if err != nil {
		return state.Ping{}, err
	}
	defer s.Close()

	p, ok := s.store.Ping(id).Get()
	if !ok {
		return state.Ping{}, errors.NotFoundError("ping").WithContext("ping_id", id).Build()
	}
	if p.Analysis == nil {
		return state.Ping{}, errors.ValidationError("ping has no analysis yet").
			WithContext("ping_id", id).
			Build()
	}
	return p, nil
}

func printRendered(g *Global, id, kind, text string) error {
	return printJSON(g.Stdout, map[string]string{"id": id, "kind": kind, "text": text})
}

// RenderTitleCmd implements 'render title'.
type RenderTitleCmd struct {
	ID string `arg:"" help:"Ping id"`
}

func (c *RenderTitleCmd) Run(g *Global, _ *CLI) error {
	p, err := loadAnalyzed(g, c.ID)
	if err != nil {
		return err
	}
	return printRendered(g, c.ID, "title", render.Title(p.Analysis))
}

// RenderDescriptionCmd implements 'render description'.
type RenderDescriptionCmd struct {
	ID string `arg:"" help:"Ping id"`
}

func (c *RenderDescriptionCmd) Run(g *Global, _ *CLI) error {
	p, err := loadAnalyzed(g, c.ID)
	if err != nil {
		return err
	}
	return printRendered(g, c.ID, "description", render.Description(p.Analysis, p, time.Now()))
}

// RenderCommentCmd implements 'render comment'.
type RenderCommentCmd struct {
	ID              string `arg:"" help:"Ping id"`
	PriorityChanged bool   `name:"priority-changed" help:"Append a priority update note"`
}

func (c *RenderCommentCmd) Run(g *Global, _ *CLI) error {
	p, err := loadAnalyzed(g, c.ID)
	if err != nil {
		return err
	}
	return printRendered(g, c.ID, "comment", render.FollowupComment(p.Analysis, p, c.PriorityChanged, time.Now()))
}
