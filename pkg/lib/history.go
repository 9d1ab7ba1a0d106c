package lib

import (
	"context"
	"fmt"

	"github.com/slok/rtboot/internal/app/history"
	"github.com/slok/rtboot/internal/app/inspect"
)

// ListBuilds returns the builds, newest first. Pass nil opts to list every build.
func (c *Client) ListBuilds(ctx context.Context, opts *ListBuildsOpts) ([]Build, error) {
	svc, err := history.NewService(history.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := history.Request{StatusFilter: toInternalStatusFilter(opts)}
	if opts != nil {
		req.RecipeName = opts.RecipeName
		req.Limit = opts.Limit
	}

	builds, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalBuildList(builds), nil
}

// GetBuild returns a build with its steps.
func (c *Client) GetBuild(ctx context.Context, id string) (*Build, error) {
	svc, err := inspect.NewService(inspect.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, inspect.Request{BuildID: id})
	if err != nil {
		return nil, mapError(err)
	}

	b := fromInternalBuild(res.Build)
	b.Steps = fromInternalSteps(res.Steps)
	return &b, nil
}
