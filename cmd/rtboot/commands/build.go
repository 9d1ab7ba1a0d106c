package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/rtboot/internal/app/build"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage/sqlite"
)

type BuildCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	recipe  recipeFlags
	engines engineFlags
	tag     string
	quiet   bool
}

// NewBuildCommand returns the build command.
func NewBuildCommand(rootCmd *RootCommand, app *kingpin.Application) *BuildCommand {
	c := &BuildCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("build", "Bootstrap a recipe environment and realize it with an engine.")
	c.Cmd.Flag("recipe", "Path to a YAML recipe file (uses the default recipe if not set).").Short('f').StringVar(&c.recipe.recipePath)
	c.Cmd.Flag("context", "Build context directory (overrides the recipe one).").Short('c').StringVar(&c.recipe.contextDir)
	c.Cmd.Flag("env", "Extra environment flags (KEY=VALUE or KEY to take it from the host), can be repeated.").Short('e').StringsVar(&c.recipe.envSpecs)
	c.Cmd.Flag("tag", "Image tag (defaults to a content addressed tag).").Short('t').StringVar(&c.tag)
	c.Cmd.Flag("quiet", "Don't print the engine build output.").Short('q').BoolVar(&c.quiet)
	c.engines.register(c.Cmd)

	return c
}

func (c BuildCommand) Name() string { return c.Cmd.FullCommand() }

func (c BuildCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	recipe, err := loadRecipe(ctx, c.recipe)
	if err != nil {
		return err
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	engineType := model.EngineType(c.engines.engine)
	eng, err := newEngine(engineType, c.engines.nativeRoot(c.rootCmd.DataDir(), recipe.Name), logger)
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	svc, err := build.NewService(build.ServiceConfig{
		Engine:     eng,
		EngineType: engineType,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Build progress goes to stderr so stdout only has the result.
	var output io.Writer = c.rootCmd.Stderr
	if c.quiet {
		output = io.Discard
	}

	b, err := svc.Run(ctx, build.Request{
		Recipe: recipe,
		Tag:    c.tag,
		Output: output,
	})
	if err != nil {
		return fmt.Errorf("could not build recipe %q: %w", recipe.Name, err)
	}

	// Output success message.
	fmt.Fprintf(c.rootCmd.Stdout, "Build succeeded!\n")
	fmt.Fprintf(c.rootCmd.Stdout, "  ID:     %s\n", b.ID)
	fmt.Fprintf(c.rootCmd.Stdout, "  Recipe: %s\n", b.Recipe.Name)
	fmt.Fprintf(c.rootCmd.Stdout, "  Engine: %s\n", b.Engine)
	fmt.Fprintf(c.rootCmd.Stdout, "  Image:  %s\n", b.ImageTag)

	return nil
}
