package build

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/rtboot/internal/bootstrap"
	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
)

// StepRealize is the tracked step where the engine realizes the bootstrapped environment.
const StepRealize = "realize"

// ServiceConfig is the configuration for the build service.
type ServiceConfig struct {
	Engine     engine.Engine
	EngineType model.EngineType
	Repository storage.Repository
	// TimeNow is optional, defaults to time.Now.
	TimeNow func() time.Time
	Logger  log.Logger
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
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Build"})
	return nil
}

// Service bootstraps recipes and realizes them with an engine, recording every
// build and its steps.
type Service struct {
	engine     engine.Engine
	engineType model.EngineType
	repo       storage.Repository
	timeNow    func() time.Time
	logger     log.Logger
}

// NewService creates a new build service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		engine:     cfg.Engine,
		engineType: cfg.EngineType,
		repo:       cfg.Repository,
		timeNow:    cfg.TimeNow,
		logger:     cfg.Logger,
	}, nil
}

// Request contains the parameters of a build.
type Request struct {
	Recipe model.Recipe
	// Tag overrides the image tag, optional.
	Tag string
	// Output receives the engine build progress, optional.
	Output io.Writer
}

// Run builds a recipe. The build is recorded as failed when any step fails and
// the error is returned, a provisioning failure keeps its *model.ProvisioningError.
func (s *Service) Run(ctx context.Context, req Request) (*model.Build, error) {
	// 1. Validate the recipe and prepare the pipeline, nothing is recorded for invalid requests.
	if err := req.Recipe.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recipe: %w", err)
	}

	id := ulid.MustNew(ulid.Timestamp(s.timeNow()), rand.Reader).String()
	logger := s.logger.WithValues(log.Kv{"build-id": id})
	pipeline, err := bootstrap.FromRecipe(req.Recipe, func(ctx context.Context, stage string, run func() error) error {
		return s.executeStep(ctx, id, stage, run)
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("could not create bootstrap pipeline: %w", err)
	}

	// 2. Record the build and its steps.
	b := model.Build{
		ID:        id,
		Recipe:    req.Recipe,
		Engine:    s.engineType,
		Status:    model.BuildStatusPending,
		CreatedAt: s.timeNow().UTC(),
	}
	if err := s.repo.CreateBuild(ctx, b); err != nil {
		return nil, fmt.Errorf("could not save build: %w", err)
	}
	if err := s.repo.AddSteps(ctx, id, append(pipeline.StageNames(), StepRealize)); err != nil {
		return nil, fmt.Errorf("could not add build steps: %w", err)
	}

	// 3. Bootstrap.
	env, err := pipeline.Run(ctx, model.Environment{})
	if err != nil {
		return nil, s.fail(ctx, b, err)
	}

	// 4. Realize.
	var img *model.Image
	err = s.executeStep(ctx, id, StepRealize, func() error {
		var err error
		img, err = s.engine.Build(ctx, engine.BuildRequest{
			BuildID:     id,
			RecipeName:  req.Recipe.Name,
			Tag:         req.Tag,
			Environment: env,
			Output:      req.Output,
		})
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, b, err)
	}

	// 5. Done.
	finished := s.timeNow().UTC()
	b.Status = model.BuildStatusSucceeded
	b.ImageTag = img.Tag
	b.ImageID = img.ID
	b.ContextDigest = img.ContextDigest
	b.FinishedAt = &finished
	if err := s.repo.UpdateBuild(ctx, b); err != nil {
		return nil, fmt.Errorf("could not update build: %w", err)
	}

	logger.Infof("Built %s (%s)", b.ImageTag, b.Recipe.Name)

	return &b, nil
}

// fail records the build as failed and returns the build error.
func (s *Service) fail(ctx context.Context, b model.Build, buildErr error) error {
	finished := s.timeNow().UTC()
	b.Status = model.BuildStatusFailed
	b.Error = buildErr.Error()
	b.FinishedAt = &finished

	// The build context could be cancelled.
	if err := s.repo.UpdateBuild(context.WithoutCancel(ctx), b); err != nil {
		s.logger.Errorf("Failed to mark build %s as failed: %v", b.ID, err)
	}

	return fmt.Errorf("build %s failed: %w", b.ID, buildErr)
}

// executeStep executes a step function and tracks its completion.
func (s *Service) executeStep(ctx context.Context, buildID, stepName string, fn func() error) error {
	step, err := s.repo.NextStep(ctx, buildID)
	if err != nil {
		return fmt.Errorf("failed to get next step: %w", err)
	}
	if step == nil {
		return fmt.Errorf("no pending step found for build %s", buildID)
	}
	if step.Name != stepName {
		return fmt.Errorf("expected step %s, got %s", stepName, step.Name)
	}

	err = fn()
	if err != nil {
		if failErr := s.repo.FailStep(context.WithoutCancel(ctx), step.ID, err); failErr != nil {
			s.logger.Errorf("Failed to mark step as failed: %v", failErr)
		}
		return err
	}

	if err := s.repo.CompleteStep(ctx, step.ID); err != nil {
		return fmt.Errorf("failed to mark step as completed: %w", err)
	}

	return nil
}
