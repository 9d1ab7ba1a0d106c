package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/slok/rtboot/internal/buildctx"
	"github.com/slok/rtboot/internal/conventions"
	"github.com/slok/rtboot/internal/dockerfile"
	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/utils/env"
)

// Host variables passed to processes when the environment doesn't set them, the
// interpreters can't be found without them.
var hostEnvFallback = []string{"PATH", "HOME"}

// EngineConfig is the configuration for the native engine.
type EngineConfig struct {
	// RootDir is the directory where the environment paths are realized. Required.
	RootDir string
	// Shell runs the RUN layers, defaults to the in-process interpreter.
	Shell ShellRunner
	// LookupEnv is used to get the host variables, defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	Logger    log.Logger
}

func (c *EngineConfig) defaults() error {
	if c.RootDir == "" {
		return fmt.Errorf("root dir is required")
	}
	root, err := filepath.Abs(c.RootDir)
	if err != nil {
		return fmt.Errorf("could not resolve root dir: %w", err)
	}
	c.RootDir = root

	if c.Shell == nil {
		c.Shell = InterpShell{}
	}
	if c.LookupEnv == nil {
		c.LookupEnv = os.LookupEnv
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "engine.Native"})
	return nil
}

// Engine realizes environments on the current host. Environment paths are mapped
// inside a root directory and the entry process is a host process.
type Engine struct {
	root      string
	shell     ShellRunner
	lookupEnv func(string) (string, bool)
	logger    log.Logger
}

var _ engine.Engine = &Engine{}

// NewEngine creates a new native engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		root:      cfg.RootDir,
		shell:     cfg.Shell,
		lookupEnv: cfg.LookupEnv,
		logger:    cfg.Logger,
	}, nil
}

// Build applies the environment layers in order. Variables set by an ENV layer are
// visible to the following RUN layers, the same way as in an image build.
func (e *Engine) Build(ctx context.Context, req engine.BuildRequest) (*model.Image, error) {
	snap := req.Environment
	out := req.Output
	if out == nil {
		out = io.Discard
	}

	df, err := dockerfile.Render(snap)
	if err != nil {
		return nil, fmt.Errorf("could not render environment: %w", err)
	}

	ctxDigest, err := buildctx.Digest(ctx, snap.ContextSource())
	if err != nil {
		return nil, fmt.Errorf("could not hash build context: %w", err)
	}

	if err := os.MkdirAll(e.root, 0o755); err != nil {
		return nil, fmt.Errorf("could not create root dir: %w", err)
	}

	layerEnv := map[string]string{}
	cwd := e.root
	layers := snap.Layers()
	for i, l := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.logger.Infof("[%d/%d] Applying %s layer: %s", i+1, len(layers), l.Kind, l.Name)
		switch l.Kind {
		case model.InstructionRun:
			err := e.shell.Run(ctx, ShellRequest{
				Dir:    cwd,
				Env:    e.processEnv(layerEnv, true),
				Script: l.Script,
				Stdout: out,
				Stderr: out,
			})
			if err != nil {
				return nil, &model.ProvisioningError{Step: l.Name, Err: err}
			}

		case model.InstructionEnv:
			layerEnv = env.MergeMaps(layerEnv, l.Env)

		case model.InstructionWorkdir:
			cwd = conventions.RootPath(e.root, l.Path)
			if err := os.MkdirAll(cwd, 0o755); err != nil {
				return nil, fmt.Errorf("could not create working directory %q: %w", l.Path, err)
			}

		case model.InstructionCopy:
			dst := conventions.RootPath(e.root, l.Dst)
			src := filepath.Join(snap.ContextSource(), filepath.FromSlash(l.Src))
			if err := buildctx.CopyTree(ctx, src, dst); err != nil {
				return nil, fmt.Errorf("could not copy build context: %w", err)
			}

		default:
			return nil, fmt.Errorf("unknown instruction %q on layer %q: %w", l.Kind, l.Name, model.ErrNotValid)
		}
	}

	tag := req.Tag
	if tag == "" {
		tag = conventions.ImageTag(req.RecipeName, conventions.ImageDigest(df, ctxDigest))
	}

	e.logger.Infof("Realized environment %s on %s", tag, e.root)

	return &model.Image{
		Tag:           tag,
		ID:            e.root,
		ContextDigest: ctxDigest,
	}, nil
}

// processEnv returns the process environment. Host fallbacks never override the
// environment variables. When inherit is set the rest of the host variables are
// also passed, used by the install steps that need the host toolchain settings.
func (e *Engine) processEnv(vars map[string]string, inherit bool) []string {
	base := map[string]string{}
	if inherit {
		base = env.MergeMaps(base, hostEnviron())
	}
	for _, k := range hostEnvFallback {
		if v, ok := e.lookupEnv(k); ok {
			base[k] = v
		}
	}

	return env.ToSlice(env.MergeMaps(base, vars))
}

func hostEnviron() map[string]string {
	vars := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !env.IsValidKey(k) {
			continue
		}
		vars[k] = v
	}
	return vars
}

// Launch starts the entry command in the working directory with exactly the
// environment variables (plus the host fallbacks) and waits until it exits.
// Cancelling the context kills the process.
func (e *Engine) Launch(ctx context.Context, req engine.LaunchRequest) (*model.LaunchResult, error) {
	snap := req.Environment
	if !snap.Ready() {
		return nil, fmt.Errorf("environment is not ready, applied stages: %v: %w", snap.CompletedStages(), model.ErrNotValid)
	}

	root := e.root
	if req.Image.ID != "" {
		root = req.Image.ID
	}
	dir := conventions.RootPath(root, snap.WorkingDir())
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("working directory %q is not realized: %w", dir, model.ErrNotFound)
	}

	command := snap.Command()
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = e.processEnv(snap.Env(), false)
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	e.logger.Debugf("Launching %v on %s", command, dir)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &model.LaunchFailure{ExitCode: 127, Err: err}
		}
		return nil, fmt.Errorf("could not start entry process: %w", err)
	}
	pid := strconv.Itoa(cmd.Process.Pid)
	e.logger.Infof("Launched entry process %s", pid)

	err := cmd.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("entry process failed: %w", err)
		}
		return nil, &model.LaunchFailure{ExitCode: exitCode(exitErr)}
	}

	return &model.LaunchResult{ID: pid, ExitCode: 0}, nil
}

// exitCode returns the process exit code, a process killed by a signal gets the
// shell convention code (128 + signal).
func exitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}
