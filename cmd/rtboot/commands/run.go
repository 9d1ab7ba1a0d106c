package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/rtboot/internal/app/run"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage/sqlite"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	buildID    string
	recipeName string
	engines    engineFlags
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Launch the entry process of a build, exits with the process exit code.")
	c.Cmd.Flag("build", "Build ID to launch.").Short('b').StringVar(&c.buildID)
	c.Cmd.Flag("recipe-name", "Launch the latest succeeded build of this recipe (ignored when --build is set).").Default(model.DefaultRecipe().Name).StringVar(&c.recipeName)
	c.engines.register(c.Cmd)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// The native engine launches from the build image root, not the flag one.
	engineType := model.EngineType(c.engines.engine)
	eng, err := newEngine(engineType, c.engines.nativeRoot(c.rootCmd.DataDir(), c.recipeName), logger)
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	svc, err := run.NewService(run.ServiceConfig{
		Engine:     eng,
		EngineType: engineType,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// A launch failure is returned as is so the caller can exit with its code.
	_, err = svc.Run(ctx, run.Request{
		BuildID:    c.buildID,
		RecipeName: c.recipeName,
		Stdout:     c.rootCmd.Stdout,
		Stderr:     c.rootCmd.Stderr,
	})
	if err != nil {
		return err
	}

	return nil
}
