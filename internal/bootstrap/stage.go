package bootstrap

import (
	"context"
	"fmt"
	"slices"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
)

// Stage is a single step of the bootstrap pipeline. A stage never mutates the
// received environment, it returns a new snapshot instead.
type Stage interface {
	Name() string
	Apply(ctx context.Context, env model.Environment) (model.Environment, error)
}

// StageFunc is a convenience adapter to allow the use of ordinary functions as stages.
type StageFunc func(ctx context.Context, env model.Environment) (model.Environment, error)

// NewStage returns a named Stage from a function.
func NewStage(name string, fn StageFunc) Stage {
	return stage{name: name, fn: fn}
}

type stage struct {
	name string
	fn   StageFunc
}

func (s stage) Name() string { return s.name }
func (s stage) Apply(ctx context.Context, env model.Environment) (model.Environment, error) {
	return s.fn(ctx, env)
}

// StageWrapper wraps the execution of a stage, used to track the steps of a build.
type StageWrapper func(ctx context.Context, stageName string, run func() error) error

// PipelineConfig is the configuration of the pipeline.
type PipelineConfig struct {
	// Stages are executed in order. Required.
	Stages []Stage
	// Wrapper is optional.
	Wrapper StageWrapper
	// Logger is optional, defaults to log.Noop.
	Logger log.Logger
}

func (c *PipelineConfig) defaults() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("at least one stage is required")
	}
	if c.Wrapper == nil {
		c.Wrapper = func(_ context.Context, _ string, run func() error) error { return run() }
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "bootstrap.Pipeline"})
	return nil
}

// Pipeline runs stages sequentially, each one receiving the snapshot returned by
// the previous one. If any stage fails the pipeline stops and returns the error.
type Pipeline struct {
	stages  []Stage
	wrapper StageWrapper
	logger  log.Logger
}

// NewPipeline returns a new pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	return &Pipeline{
		stages:  cfg.Stages,
		wrapper: cfg.Wrapper,
		logger:  cfg.Logger,
	}, nil
}

// StageNames returns the names of the pipeline stages in order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Run runs the pipeline starting from env and returns the final snapshot.
func (p *Pipeline) Run(ctx context.Context, env model.Environment) (model.Environment, error) {
	current := env
	for i, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return model.Environment{}, fmt.Errorf("pipeline cancelled at stage %d (%s): %w", i, s.Name(), err)
		}

		p.logger.Debugf("[%d/%d] Applying %q stage...", i+1, len(p.stages), s.Name())

		err := p.wrapper(ctx, s.Name(), func() error {
			next, err := s.Apply(ctx, current)
			if err != nil {
				return err
			}
			current = next
			return nil
		})
		if err != nil {
			return model.Environment{}, fmt.Errorf("pipeline failed at stage %d (%s): %w", i, s.Name(), err)
		}
	}

	return current, nil
}

// checkOrder makes sure every stage that precedes name has been applied and
// name itself has not, the pipeline is strictly linear and executed once.
func checkOrder(env model.Environment, name string) error {
	idx := slices.Index(model.Stages, name)
	if idx < 0 {
		return fmt.Errorf("unknown stage %q: %w", name, model.ErrNotValid)
	}

	if env.Completed(name) {
		return fmt.Errorf("stage %q already applied: %w", name, model.ErrNotValid)
	}

	for _, prev := range model.Stages[:idx] {
		if !env.Completed(prev) {
			return fmt.Errorf("stage %q requires %q to be applied first: %w", name, prev, model.ErrNotValid)
		}
	}

	return nil
}
