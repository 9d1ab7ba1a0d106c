package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/rtboot/cmd/rtboot/commands"
	"github.com/slok/rtboot/internal/log"
	loglogrus "github.com/slok/rtboot/internal/log/logrus"
	"github.com/slok/rtboot/internal/model"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("rtboot", "Reproducible runtime environment bootstrapper.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	buildCmd := commands.NewBuildCommand(rootCmd, app)
	runCmd := commands.NewRunCommand(rootCmd, app)
	renderCmd := commands.NewRenderCommand(rootCmd, app)
	historyCmd := commands.NewHistoryCommand(rootCmd, app)
	inspectCmd := commands.NewInspectCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		buildCmd.Name():   buildCmd,
		runCmd.Name():     runCmd,
		renderCmd.Name():  renderCmd,
		historyCmd.Name(): historyCmd,
		inspectCmd.Name(): inspectCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Auto-suppress logging for commands that produce structured output (table/JSON)
	// to prevent log noise from mixing with printer output in the terminal.
	// Users can still enable logging with --debug.
	printerCommands := map[string]bool{
		"render":  true,
		"history": true,
		"inspect": true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	var g run.Group

	// OS signals, a signal ends the group with a run.SignalError so an interrupted
	// command is never reported as a success.
	{
		execute, interrupt := run.SignalHandler(ctx, syscall.SIGTERM, syscall.SIGINT)
		g.Add(
			func() error {
				err := execute()
				var sigErr run.SignalError
				if errors.As(err, &sigErr) {
					rootCmd.Logger.Warningf("Termination signal received: %s", sigErr.Signal)
				}
				return err
			},
			interrupt,
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // By default logger goes to stderr (so it can split stdout prints).
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

// exitCode returns the process exit code for an application error, the entry
// process exit code is propagated as our own.
// exitCode returns the process exit code for a Run error: the entry process code,
// or 128+n when interrupted by signal n.
func exitCode(err error) int {
	var lf *model.LaunchFailure
	if errors.As(err, &lf) && lf.ExitCode > 0 {
		return lf.ExitCode
	}

	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		if sig, ok := sigErr.Signal.(syscall.Signal); ok {
			return 128 + int(sig)
		}
	}

	return 1
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
