package history

import (
	"context"
	"fmt"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
)

// ServiceConfig is the configuration for the history service.
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

	return nil
}

// Service lists builds with optional filtering.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the history request parameters.
type Request struct {
	// RecipeName is an optional filter to only show builds of this recipe.
	RecipeName string
	// StatusFilter is an optional filter to only show builds with this status.
	StatusFilter *model.BuildStatus
	// Limit is the maximum number of builds returned, 0 means no limit.
	Limit int
}

// Run lists the builds, newest first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Build, error) {
	s.logger.Debugf("listing builds with recipe %q and status filter: %v", req.RecipeName, req.StatusFilter)

	opts := storage.ListBuildsOpts{RecipeName: req.RecipeName}
	if req.StatusFilter != nil {
		switch *req.StatusFilter {
		case model.BuildStatusPending, model.BuildStatusSucceeded, model.BuildStatusFailed:
		default:
			return nil, fmt.Errorf("unknown build status %q: %w", *req.StatusFilter, model.ErrNotValid)
		}
		opts.Status = *req.StatusFilter
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	builds, err := s.repo.ListBuilds(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("could not list builds: %w", err)
	}

	if req.Limit > 0 && len(builds) > req.Limit {
		builds = builds[:req.Limit]
	}

	s.logger.Debugf("found %d builds", len(builds))
	return builds, nil
}
