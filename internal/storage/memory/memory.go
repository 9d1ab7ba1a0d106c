package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	builds map[string]model.Build
	steps  map[string][]model.Step
	mu     sync.RWMutex
	logger log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		builds: make(map[string]model.Build),
		steps:  make(map[string][]model.Step),
		logger: cfg.Logger,
	}, nil
}

// CreateBuild creates a new build in the repository.
func (r *Repository) CreateBuild(ctx context.Context, b model.Build) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builds[b.ID]; ok {
		return fmt.Errorf("build with id %s: %w", b.ID, model.ErrAlreadyExists)
	}

	r.builds[b.ID] = cloneBuild(b)
	r.logger.Debugf("Created build in repository: %s", b.ID)

	return nil
}

// GetBuild retrieves a build by ID.
func (r *Repository) GetBuild(ctx context.Context, id string) (*model.Build, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builds[id]
	if !ok {
		return nil, fmt.Errorf("build %s: %w", id, model.ErrNotFound)
	}

	b = cloneBuild(b)
	return &b, nil
}

// GetLatestBuild returns the most recent succeeded build of a recipe realized by the engine type.
func (r *Repository) GetLatestBuild(ctx context.Context, recipeName string, engineType model.EngineType) (*model.Build, error) {
	builds, err := r.ListBuilds(ctx, storage.ListBuildsOpts{
		RecipeName: recipeName,
		Status:     model.BuildStatusSucceeded,
		Engine:     engineType,
	})
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, fmt.Errorf("succeeded %s build of recipe %s: %w", engineType, recipeName, model.ErrNotFound)
	}

	return &builds[0], nil
}

// ListBuilds returns the builds, newest first.
func (r *Repository) ListBuilds(ctx context.Context, opts storage.ListBuildsOpts) ([]model.Build, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	builds := make([]model.Build, 0, len(r.builds))
	for _, b := range r.builds {
		if opts.RecipeName != "" && b.Recipe.Name != opts.RecipeName {
			continue
		}
		if opts.Status != "" && b.Status != opts.Status {
			continue
		}
		if opts.Engine != "" && b.Engine != opts.Engine {
			continue
		}
		builds = append(builds, cloneBuild(b))
	}

	slices.SortFunc(builds, func(a, b model.Build) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return builds, nil
}

// UpdateBuild updates an existing build.
func (r *Repository) UpdateBuild(ctx context.Context, b model.Build) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builds[b.ID]; !ok {
		return fmt.Errorf("build %s: %w", b.ID, model.ErrNotFound)
	}

	r.builds[b.ID] = cloneBuild(b)
	r.logger.Debugf("Updated build in repository: %s", b.ID)

	return nil
}

// AddSteps adds pending steps to a build, after the existing ones.
func (r *Repository) AddSteps(ctx context.Context, buildID string, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	steps := r.steps[buildID]
	now := time.Now().UTC()
	for _, name := range names {
		steps = append(steps, model.Step{
			ID:        ulid.Make().String(),
			BuildID:   buildID,
			Sequence:  len(steps) + 1,
			Name:      name,
			Status:    model.StepStatusPending,
			CreatedAt: now,
		})
	}
	r.steps[buildID] = steps

	r.logger.Debugf("Added %d steps for build %s", len(names), buildID)
	return nil
}

// NextStep returns the first pending step of a build, or nil if every step is finished.
func (r *Repository) NextStep(ctx context.Context, buildID string) (*model.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.steps[buildID] {
		if s.Status == model.StepStatusPending {
			return &s, nil
		}
	}

	return nil, nil
}

// CompleteStep marks a step as done.
func (r *Repository) CompleteStep(ctx context.Context, stepID string) error {
	return r.setStepStatus(stepID, model.StepStatusDone, "")
}

// FailStep marks a step as failed with an error message.
func (r *Repository) FailStep(ctx context.Context, stepID string, stepErr error) error {
	errMsg := ""
	if stepErr != nil {
		errMsg = stepErr.Error()
	}
	return r.setStepStatus(stepID, model.StepStatusFailed, errMsg)
}

func (r *Repository) setStepStatus(stepID string, status model.StepStatus, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for buildID, steps := range r.steps {
		for i, s := range steps {
			if s.ID != stepID {
				continue
			}
			s.Status = status
			s.Error = errMsg
			r.steps[buildID][i] = s
			return nil
		}
	}

	return fmt.Errorf("step %s: %w", stepID, model.ErrNotFound)
}

// ListSteps returns the steps of a build in order.
func (r *Repository) ListSteps(ctx context.Context, buildID string) ([]model.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.steps[buildID]), nil
}

// cloneBuild returns a deep copy, stored builds are never shared with callers.
func cloneBuild(b model.Build) model.Build {
	c := b
	c.Recipe.SystemPackages = slices.Clone(b.Recipe.SystemPackages)
	c.Recipe.ExtensionPackages = slices.Clone(b.Recipe.ExtensionPackages)
	c.Recipe.Env = maps.Clone(b.Recipe.Env)
	c.Recipe.Command = slices.Clone(b.Recipe.Command)
	if b.FinishedAt != nil {
		t := *b.FinishedAt
		c.FinishedAt = &t
	}
	return c
}
