package bootstrap

import (
	"context"
	"fmt"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
)

// FromRecipe returns the pipeline for a recipe:
// Provision -> ConfigureEnvironment -> SetWorkingDirectory -> CopyContext -> Launch.
func FromRecipe(r model.Recipe, wrapper StageWrapper, logger log.Logger) (*Pipeline, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recipe: %w", err)
	}

	provision, err := NewProvision(ProvisionConfig{
		BaseImage:         r.BaseImage,
		SystemPackages:    r.SystemPackages,
		ExtensionPackages: r.ExtensionPackages,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create provision stage: %w", err)
	}

	configureEnv, err := NewConfigureEnvironment(r.Env)
	if err != nil {
		return nil, fmt.Errorf("could not create configure environment stage: %w", err)
	}

	workdir, err := NewSetWorkingDirectory(r.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("could not create working directory stage: %w", err)
	}

	copyCtx, err := NewCopyContext(r.ContextDir, r.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("could not create copy context stage: %w", err)
	}

	launch, err := NewLaunch(r.Command)
	if err != nil {
		return nil, fmt.Errorf("could not create launch stage: %w", err)
	}

	return NewPipeline(PipelineConfig{
		Stages:  []Stage{provision, configureEnv, workdir, copyCtx, launch},
		Wrapper: wrapper,
		Logger:  logger,
	})
}

// Plan runs the recipe pipeline from an empty environment and returns the
// resulting snapshot, ready to be realized by an engine.
func Plan(ctx context.Context, r model.Recipe) (model.Environment, error) {
	p, err := FromRecipe(r, nil, log.Noop)
	if err != nil {
		return model.Environment{}, err
	}

	return p.Run(ctx, model.Environment{})
}
