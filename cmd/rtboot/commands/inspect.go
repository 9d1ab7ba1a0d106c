package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/rtboot/internal/app/inspect"
	"github.com/slok/rtboot/internal/storage/sqlite"
)

type InspectCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	buildID string
	format  string
}

// NewInspectCommand returns the inspect command.
func NewInspectCommand(rootCmd *RootCommand, app *kingpin.Application) *InspectCommand {
	c := &InspectCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("inspect", "Show a build with its steps.")
	c.Cmd.Arg("build-id", "Build ID.").Required().StringVar(&c.buildID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c InspectCommand) Name() string { return c.Cmd.FullCommand() }

func (c InspectCommand) Run(ctx context.Context) error {
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

	svc, err := inspect.NewService(inspect.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, inspect.Request{BuildID: c.buildID})
	if err != nil {
		return fmt.Errorf("could not inspect build: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd).PrintBuild(res.Build, res.Steps); err != nil {
		return fmt.Errorf("could not print build: %w", err)
	}

	return nil
}
