package bootstrap

import (
	"context"
	"fmt"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/utils/env"
)

const (
	// LayerSystemPackages is the name of the system packages RUN layer.
	LayerSystemPackages = "system-packages"
	// LayerExtensionPackages is the name of the extension packages RUN layer.
	LayerExtensionPackages = "extension-packages"
	// LayerEnvironment is the name of the ENV layer.
	LayerEnvironment = "environment"
	// LayerWorkingDirectory is the name of the WORKDIR layer.
	LayerWorkingDirectory = "working-directory"
	// LayerContext is the name of the COPY layer.
	LayerContext = "context"
)

// Package names and version specifiers. Shell metacharacters other than the
// ones used by version specifiers are rejected, the allowed ones get quoted.
var packageRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+:=<>!~,\[\]-]*$`)

// SystemInstallScript returns the script that installs system packages and purges
// the package manager metadata in the same layer, so no cache artifacts end up in
// the image.
func SystemInstallScript(pkgs []string) (string, error) {
	words, err := quotePackages(pkgs)
	if err != nil {
		return "", err
	}

	return "apt-get update && apt-get install -y --no-install-recommends " +
		strings.Join(words, " ") +
		" && rm -rf /var/lib/apt/lists/*", nil
}

// ExtensionInstallScript returns the script that installs language extension
// packages without using any local package cache.
func ExtensionInstallScript(pkgs []string) (string, error) {
	words, err := quotePackages(pkgs)
	if err != nil {
		return "", err
	}

	return "pip install --no-cache-dir " + strings.Join(words, " "), nil
}

func quotePackages(pkgs []string) ([]string, error) {
	words := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		if !packageRegexp.MatchString(p) {
			return nil, fmt.Errorf("invalid package name %q", p)
		}

		if !strings.ContainsAny(p, "<>!~,[]") {
			words = append(words, p)
			continue
		}

		q, err := syntax.Quote(p, syntax.LangPOSIX)
		if err != nil {
			return nil, fmt.Errorf("could not quote package name %q: %w", p, err)
		}
		words = append(words, q)
	}

	return words, nil
}

// ProvisionConfig is the configuration for the provision stage.
type ProvisionConfig struct {
	// BaseImage is the base runtime image identifier. Required.
	BaseImage string
	// SystemPackages are display/UI system packages.
	SystemPackages []string
	// ExtensionPackages are language ecosystem packages.
	ExtensionPackages []string
}

func (c *ProvisionConfig) defaults() error {
	if c.BaseImage == "" {
		return fmt.Errorf("base image is required")
	}
	return nil
}

// NewProvision returns the stage that sets the base image and adds the package
// installation layers. Empty package sets don't produce a layer.
func NewProvision(cfg ProvisionConfig) (Stage, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid provision config: %w", err)
	}

	var layers []model.Layer
	if len(cfg.SystemPackages) > 0 {
		script, err := SystemInstallScript(cfg.SystemPackages)
		if err != nil {
			return nil, &model.ProvisioningError{Step: LayerSystemPackages, Err: err}
		}
		layers = append(layers, model.Layer{Kind: model.InstructionRun, Name: LayerSystemPackages, Script: script})
	}
	if len(cfg.ExtensionPackages) > 0 {
		script, err := ExtensionInstallScript(cfg.ExtensionPackages)
		if err != nil {
			return nil, &model.ProvisioningError{Step: LayerExtensionPackages, Err: err}
		}
		layers = append(layers, model.Layer{Kind: model.InstructionRun, Name: LayerExtensionPackages, Script: script})
	}

	return NewStage(model.StageProvision, func(_ context.Context, e model.Environment) (model.Environment, error) {
		if err := checkOrder(e, model.StageProvision); err != nil {
			return model.Environment{}, err
		}

		e = e.WithBaseImage(cfg.BaseImage)
		for _, l := range layers {
			e = e.WithLayer(l)
		}

		return e.WithCompleted(model.StageProvision), nil
	}), nil
}

// NewConfigureEnvironment returns the stage that sets the environment flags.
// Flags are visible to every process of the environment and can't be overridden
// at launch.
func NewConfigureEnvironment(flags map[string]string) (Stage, error) {
	if len(flags) == 0 {
		return nil, fmt.Errorf("at least one environment flag is required")
	}
	for k, v := range flags {
		if !env.IsValidKey(k) {
			return nil, fmt.Errorf("invalid environment variable key %q: %w", k, model.ErrNotValid)
		}
		if !env.IsValidValue(v) {
			return nil, fmt.Errorf("environment variable %q value has control characters: %w", k, model.ErrNotValid)
		}
	}
	flags = maps.Clone(flags)

	return NewStage(model.StageConfigureEnvironment, func(_ context.Context, e model.Environment) (model.Environment, error) {
		if err := checkOrder(e, model.StageConfigureEnvironment); err != nil {
			return model.Environment{}, err
		}

		e = e.WithEnv(flags).
			WithLayer(model.Layer{Kind: model.InstructionEnv, Name: LayerEnvironment, Env: flags})

		return e.WithCompleted(model.StageConfigureEnvironment), nil
	}), nil
}

// NewSetWorkingDirectory returns the stage that sets the working directory, engines
// create it if absent.
func NewSetWorkingDirectory(dir string) (Stage, error) {
	if !path.IsAbs(dir) {
		return nil, fmt.Errorf("working directory must be absolute, got %q: %w", dir, model.ErrNotValid)
	}
	dir = path.Clean(dir)

	return NewStage(model.StageSetWorkingDirectory, func(_ context.Context, e model.Environment) (model.Environment, error) {
		if err := checkOrder(e, model.StageSetWorkingDirectory); err != nil {
			return model.Environment{}, err
		}

		e = e.WithWorkingDir(dir).
			WithLayer(model.Layer{Kind: model.InstructionWorkdir, Name: LayerWorkingDirectory, Path: dir})

		return e.WithCompleted(model.StageSetWorkingDirectory), nil
	}), nil
}

// NewCopyContext returns the stage that copies the full build context into the
// destination. There are no exclusions.
func NewCopyContext(source, destination string) (Stage, error) {
	if source == "" {
		return nil, fmt.Errorf("context source is required: %w", model.ErrNotValid)
	}
	if !path.IsAbs(destination) {
		return nil, fmt.Errorf("context destination must be absolute, got %q: %w", destination, model.ErrNotValid)
	}
	destination = path.Clean(destination)

	return NewStage(model.StageCopyContext, func(_ context.Context, e model.Environment) (model.Environment, error) {
		if err := checkOrder(e, model.StageCopyContext); err != nil {
			return model.Environment{}, err
		}

		e = e.WithContext(source, destination).
			WithLayer(model.Layer{Kind: model.InstructionCopy, Name: LayerContext, Src: ".", Dst: destination})

		return e.WithCompleted(model.StageCopyContext), nil
	}), nil
}

// NewLaunch returns the stage that sets the two token entry command. It requires
// every other stage to be applied, no partially initialized environment can be
// launched.
func NewLaunch(command []string) (Stage, error) {
	if len(command) != 2 || slices.Contains(command, "") {
		return nil, fmt.Errorf("command must be an interpreter and a script, got %q: %w", command, model.ErrNotValid)
	}
	command = slices.Clone(command)

	return NewStage(model.StageLaunch, func(_ context.Context, e model.Environment) (model.Environment, error) {
		if err := checkOrder(e, model.StageLaunch); err != nil {
			return model.Environment{}, err
		}

		return e.WithCommand(command).WithCompleted(model.StageLaunch), nil
	}), nil
}
