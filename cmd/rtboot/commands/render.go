package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/rtboot/internal/app/render"
)

type RenderCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	recipe recipeFlags
}

// NewRenderCommand returns the render command.
func NewRenderCommand(rootCmd *RootCommand, app *kingpin.Application) *RenderCommand {
	c := &RenderCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("render", "Print the Dockerfile of a recipe environment.")
	c.Cmd.Flag("recipe", "Path to a YAML recipe file (uses the default recipe if not set).").Short('f').StringVar(&c.recipe.recipePath)
	c.Cmd.Flag("env", "Extra environment flags (KEY=VALUE or KEY to take it from the host), can be repeated.").Short('e').StringsVar(&c.recipe.envSpecs)

	return c
}

func (c RenderCommand) Name() string { return c.Cmd.FullCommand() }

func (c RenderCommand) Run(ctx context.Context) error {
	recipe, err := loadRecipe(ctx, c.recipe)
	if err != nil {
		return err
	}

	svc, err := render.NewService(render.ServiceConfig{Logger: c.rootCmd.Logger})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	df, err := svc.Run(ctx, render.Request{Recipe: recipe})
	if err != nil {
		return fmt.Errorf("could not render recipe: %w", err)
	}

	fmt.Fprint(c.rootCmd.Stdout, df)

	return nil
}
