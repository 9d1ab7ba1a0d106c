package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/rtboot/internal/app/history"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/printer"
	"github.com/slok/rtboot/internal/storage/sqlite"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	recipeName   string
	statusFilter string
	limit        int
	format       string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List the builds, newest first.")
	c.Cmd.Flag("recipe-name", "Filter by recipe name.").StringVar(&c.recipeName)
	c.Cmd.Flag("status", "Filter by status (pending, succeeded, failed).").StringVar(&c.statusFilter)
	c.Cmd.Flag("limit", "Maximum number of builds (0 is unlimited).").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	var statusFilter *model.BuildStatus
	if c.statusFilter != "" {
		status := model.BuildStatus(strings.ToLower(c.statusFilter))
		statusFilter = &status
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

	svc, err := history.NewService(history.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	builds, err := svc.Run(ctx, history.Request{
		RecipeName:   c.recipeName,
		StatusFilter: statusFilter,
		Limit:        c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list builds: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd).PrintBuildList(builds); err != nil {
		return fmt.Errorf("could not print builds: %w", err)
	}

	return nil
}

func newPrinter(format string, rootCmd *RootCommand) printer.Printer {
	switch format {
	case "json":
		return printer.NewJSONPrinter(rootCmd.Stdout)
	default: // table
		return printer.NewTablePrinter(rootCmd.Stdout)
	}
}
