package lib

import (
	"context"
	"fmt"

	"github.com/slok/rtboot/internal/app/build"
	"github.com/slok/rtboot/internal/app/render"
	"github.com/slok/rtboot/internal/model"
)

// Build bootstraps the recipe environment and realizes it with the client engine.
//
// Invalid recipes return [ErrNotValid] and are not recorded. Every other build
// is recorded, a failed one with its error. A package installation failure
// returns [ErrProvisioning].
func (c *Client) Build(ctx context.Context, opts BuildOpts) (*Build, error) {
	eng, err := c.newEngine(opts.Recipe.Name)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create engine: %w", err))
	}

	svc, err := build.NewService(build.ServiceConfig{
		Engine:     eng,
		EngineType: model.EngineType(c.engineType),
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	b, err := svc.Run(ctx, build.Request{
		Recipe: toInternalRecipe(opts.Recipe),
		Tag:    opts.Tag,
		Output: opts.Output,
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalBuild(*b)
	return &result, nil
}

// Render returns the Dockerfile of the recipe environment without building it.
func (c *Client) Render(ctx context.Context, recipe Recipe) (string, error) {
	svc, err := render.NewService(render.ServiceConfig{Logger: c.logger})
	if err != nil {
		return "", fmt.Errorf("could not create service: %w", err)
	}

	df, err := svc.Run(ctx, render.Request{Recipe: toInternalRecipe(recipe)})
	if err != nil {
		return "", mapError(err)
	}

	return df, nil
}
