package run

import (
	"context"
	"fmt"
	"io"

	"github.com/slok/rtboot/internal/bootstrap"
	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
)

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Engine     engine.Engine
	EngineType model.EngineType
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	if c.EngineType == "" {
		return fmt.Errorf("engine type is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service launches the entry process of a succeeded build.
type Service struct {
	engine     engine.Engine
	engineType model.EngineType
	repo       storage.Repository
	logger     log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		engine:     cfg.Engine,
		engineType: cfg.EngineType,
		repo:       cfg.Repository,
		logger:     cfg.Logger,
	}, nil
}

// Request contains the parameters of a run. BuildID has priority over RecipeName.
type Request struct {
	BuildID string
	// RecipeName selects the latest succeeded build of the recipe realized by the
	// service engine type.
	RecipeName string
	Stdout     io.Writer
	Stderr     io.Writer
}

// Run launches the entry process and blocks until it exits. A non-zero exit
// is returned as a *model.LaunchFailure.
func (s *Service) Run(ctx context.Context, req Request) (*model.LaunchResult, error) {
	// 1. Resolve the build.
	b, err := s.resolveBuild(ctx, req)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BuildStatusSucceeded {
		return nil, fmt.Errorf("build %s is %s, only succeeded builds can run: %w", b.ID, b.Status, model.ErrNotValid)
	}
	if b.Engine != s.engineType {
		return nil, fmt.Errorf("build %s was realized by the %s engine, can't run with %s: %w", b.ID, b.Engine, s.engineType, model.ErrNotValid)
	}

	// 2. Bootstrap the same environment the build realized.
	env, err := bootstrap.Plan(ctx, b.Recipe)
	if err != nil {
		return nil, fmt.Errorf("could not bootstrap build %s environment: %w", b.ID, err)
	}

	// 3. Launch.
	logger := s.logger.WithValues(log.Kv{"build-id": b.ID})
	logger.Debugf("Launching %v from %s", env.Command(), b.ImageTag)

	res, err := s.engine.Launch(ctx, engine.LaunchRequest{
		BuildID:     b.ID,
		Image:       model.Image{Tag: b.ImageTag, ID: b.ImageID, ContextDigest: b.ContextDigest},
		Environment: env,
		Stdout:      req.Stdout,
		Stderr:      req.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch build %s: %w", b.ID, err)
	}

	logger.Infof("Entry process %s exited with code %d", res.ID, res.ExitCode)

	return res, nil
}

func (s *Service) resolveBuild(ctx context.Context, req Request) (*model.Build, error) {
	switch {
	case req.BuildID != "":
		b, err := s.repo.GetBuild(ctx, req.BuildID)
		if err != nil {
			return nil, fmt.Errorf("could not get build %s: %w", req.BuildID, err)
		}
		return b, nil
	case req.RecipeName != "":
		b, err := s.repo.GetLatestBuild(ctx, req.RecipeName, s.engineType)
		if err != nil {
			return nil, fmt.Errorf("could not get latest build of recipe %s: %w", req.RecipeName, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("build id or recipe name is required: %w", model.ErrNotValid)
	}
}
