package lib

import (
	"context"
	"fmt"

	"github.com/slok/rtboot/internal/app/run"
	"github.com/slok/rtboot/internal/model"
)

// Run launches the entry process of a succeeded build and blocks until it exits.
//
// A non-zero exit returns [ErrLaunch], use [ExitCode] to get the code. Context
// cancellation stops the entry process.
func (c *Client) Run(ctx context.Context, opts RunOpts) (*LaunchResult, error) {
	eng, err := c.newEngine(opts.RecipeName)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create engine: %w", err))
	}

	svc, err := run.NewService(run.ServiceConfig{
		Engine:     eng,
		EngineType: model.EngineType(c.engineType),
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, run.Request{
		BuildID:    opts.BuildID,
		RecipeName: opts.RecipeName,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &LaunchResult{ID: res.ID, ExitCode: res.ExitCode}, nil
}
