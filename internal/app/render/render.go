package render

import (
	"context"
	"fmt"

	"github.com/slok/rtboot/internal/bootstrap"
	"github.com/slok/rtboot/internal/dockerfile"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
)

// ServiceConfig is the configuration for the render service.
type ServiceConfig struct {
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Render"})
	return nil
}

// Service renders the container build file of a recipe without building it.
type Service struct {
	logger log.Logger
}

// NewService creates a new render service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{logger: cfg.Logger}, nil
}

// Request contains the parameters of a render.
type Request struct {
	Recipe model.Recipe
}

// Run bootstraps the recipe environment and renders it as a Dockerfile.
func (s *Service) Run(ctx context.Context, req Request) (string, error) {
	env, err := bootstrap.Plan(ctx, req.Recipe)
	if err != nil {
		return "", fmt.Errorf("could not bootstrap recipe %q: %w", req.Recipe.Name, err)
	}

	df, err := dockerfile.Render(env)
	if err != nil {
		return "", fmt.Errorf("could not render recipe %q: %w", req.Recipe.Name, err)
	}

	s.logger.Debugf("Rendered recipe %q with %d layers", req.Recipe.Name, len(env.Layers()))

	return df, nil
}
