package storage

import (
	"context"

	"github.com/slok/rtboot/internal/model"
)

// ListBuildsOpts are the filters of a build listing, empty fields don't filter.
type ListBuildsOpts struct {
	RecipeName string
	Status     model.BuildStatus
	Engine     model.EngineType
}

// BuildRepository is the interface for build history persistence.
type BuildRepository interface {
	CreateBuild(ctx context.Context, b model.Build) error
	GetBuild(ctx context.Context, id string) (*model.Build, error)
	// GetLatestBuild returns the most recent succeeded build of a recipe realized by
	// the engine type.
	GetLatestBuild(ctx context.Context, recipeName string, engineType model.EngineType) (*model.Build, error)
	// ListBuilds returns the builds, newest first.
	ListBuilds(ctx context.Context, opts ListBuildsOpts) ([]model.Build, error)
	UpdateBuild(ctx context.Context, b model.Build) error
}

// StepRepository manages the tracked steps of builds.
type StepRepository interface {
	// AddSteps adds pending steps to a build, after the existing ones.
	AddSteps(ctx context.Context, buildID string, names []string) error
	// NextStep returns the first pending step of a build, or nil if every step is finished.
	NextStep(ctx context.Context, buildID string) (*model.Step, error)
	CompleteStep(ctx context.Context, stepID string) error
	FailStep(ctx context.Context, stepID string, stepErr error) error
	// ListSteps returns the steps of a build in order.
	ListSteps(ctx context.Context, buildID string) ([]model.Step, error)
}

// Repository is the whole build history storage.
type Repository interface {
	BuildRepository
	StepRepository
}
