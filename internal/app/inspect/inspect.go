package inspect

import (
	"context"
	"fmt"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
)

// ServiceConfig is the configuration for the inspect service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Inspect"})
	return nil
}

// Service gets a build with its tracked steps.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new inspect service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the inspect request parameters.
type Request struct {
	BuildID string
}

// Result is an inspected build.
type Result struct {
	Build model.Build
	Steps []model.Step
}

// Run returns the build and its steps in order.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.BuildID == "" {
		return nil, fmt.Errorf("build id is required: %w", model.ErrNotValid)
	}

	b, err := s.repo.GetBuild(ctx, req.BuildID)
	if err != nil {
		return nil, fmt.Errorf("could not get build: %w", err)
	}

	steps, err := s.repo.ListSteps(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("could not list build steps: %w", err)
	}

	return &Result{Build: *b, Steps: steps}, nil
}
