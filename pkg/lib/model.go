package lib

import (
	"errors"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/slok/rtboot/internal/model"
)

// EngineType identifies the engine that realizes environments.
type EngineType string

const (
	// EngineDocker builds images with the Docker daemon and launches containers.
	EngineDocker EngineType = "docker"

	// EngineNative realizes environments on the current host.
	EngineNative EngineType = "native"

	// EngineFake simulates builds and launches (no real environments).
	// Use this for unit testing without infrastructure dependencies.
	EngineFake EngineType = "fake"
)

var (
	// ErrNotFound is returned when a build does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input or operations.
	ErrNotValid = errors.New("not valid")
	// ErrProvisioning is returned when a package installation step fails.
	ErrProvisioning = errors.New("provisioning failed")
	// ErrLaunch is returned when the entry process exits with a non-zero code.
	ErrLaunch = errors.New("launch failed")
)

// BuildStatus represents the state of a build.
type BuildStatus string

const (
	// BuildStatusPending indicates the build is in progress.
	BuildStatusPending BuildStatus = "pending"
	// BuildStatusSucceeded indicates the environment was realized and can be run.
	BuildStatusSucceeded BuildStatus = "succeeded"
	// BuildStatusFailed indicates a step failed, see the build error and its steps.
	BuildStatusFailed BuildStatus = "failed"
)

// Recipe describes an environment and its entry process.
type Recipe struct {
	// Name identifies the recipe builds (required).
	Name string
	// BaseImage is the base runtime image (required).
	BaseImage string
	// SystemPackages are installed with the system package manager.
	SystemPackages []string
	// ExtensionPackages are installed with the language package manager, without cache.
	ExtensionPackages []string
	// Env is fixed at build time, it must have the unbuffered and no bytecode flags.
	Env map[string]string
	// WorkingDir is the absolute context copy destination and launch directory.
	WorkingDir string
	// ContextDir is the local directory copied into the working directory.
	ContextDir string
	// Command is the entry command: interpreter and script.
	Command []string
}

// DefaultRecipe returns the default recipe, the caller usually sets ContextDir.
func DefaultRecipe() Recipe {
	return fromInternalRecipe(model.DefaultRecipe())
}

// Build is a single construction of an environment from a recipe.
type Build struct {
	// ID is the unique identifier (ULID) assigned at creation.
	ID     string
	Recipe Recipe
	Engine EngineType
	Status BuildStatus
	// ImageTag is the tag of the resulting image. Empty on failed builds.
	ImageTag string
	ImageID  string
	// ContextDigest is the content digest of the copied build context.
	ContextDigest string
	// Error is the failure cause of failed builds.
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
	// Steps are the tracked build steps in order. Only set by [Client.GetBuild].
	Steps []Step
}

// Step is a tracked step of a build.
type Step struct {
	Sequence int
	Name     string
	// Status is one of "pending", "done" or "failed".
	Status string
	Error  string
}

// BuildOpts configures a build.
type BuildOpts struct {
	// Recipe is the recipe to build (required).
	Recipe Recipe
	// Tag overrides the content addressed image tag.
	Tag string
	// Output receives the engine build progress. Optional.
	Output io.Writer
}

// RunOpts configures a run. BuildID has priority over RecipeName.
type RunOpts struct {
	BuildID string
	// RecipeName launches the latest succeeded build of the recipe.
	RecipeName string
	Stdout     io.Writer
	Stderr     io.Writer
}

// LaunchResult is the result of a successful launch.
type LaunchResult struct {
	// ID is the container ID or the process ID.
	ID       string
	ExitCode int
}

// ListBuildsOpts filters the build history. Pass nil to list every build.
type ListBuildsOpts struct {
	RecipeName string
	Status     *BuildStatus
	// Limit is the maximum number of builds returned, 0 means no limit.
	Limit int
}

// ExitCode returns the entry process exit code of a [Client.Run] error, ok is
// false when the error is not a launch failure.
func ExitCode(err error) (code int, ok bool) {
	var lf *model.LaunchFailure
	if errors.As(err, &lf) {
		return lf.ExitCode, true
	}
	return 0, false
}

// --- Conversion helpers ---

func toInternalRecipe(r Recipe) model.Recipe {
	return model.Recipe{
		Name:              r.Name,
		BaseImage:         r.BaseImage,
		SystemPackages:    slices.Clone(r.SystemPackages),
		ExtensionPackages: slices.Clone(r.ExtensionPackages),
		Env:               maps.Clone(r.Env),
		WorkingDir:        r.WorkingDir,
		ContextDir:        r.ContextDir,
		Command:           slices.Clone(r.Command),
	}
}

func fromInternalRecipe(r model.Recipe) Recipe {
	return Recipe{
		Name:              r.Name,
		BaseImage:         r.BaseImage,
		SystemPackages:    slices.Clone(r.SystemPackages),
		ExtensionPackages: slices.Clone(r.ExtensionPackages),
		Env:               maps.Clone(r.Env),
		WorkingDir:        r.WorkingDir,
		ContextDir:        r.ContextDir,
		Command:           slices.Clone(r.Command),
	}
}

func fromInternalBuild(b model.Build) Build {
	return Build{
		ID:            b.ID,
		Recipe:        fromInternalRecipe(b.Recipe),
		Engine:        EngineType(b.Engine),
		Status:        BuildStatus(b.Status),
		ImageTag:      b.ImageTag,
		ImageID:       b.ImageID,
		ContextDigest: b.ContextDigest,
		Error:         b.Error,
		CreatedAt:     b.CreatedAt,
		FinishedAt:    b.FinishedAt,
	}
}

func fromInternalBuildList(bs []model.Build) []Build {
	result := make([]Build, len(bs))
	for i, b := range bs {
		result[i] = fromInternalBuild(b)
	}
	return result
}

func fromInternalSteps(ss []model.Step) []Step {
	result := make([]Step, len(ss))
	for i, s := range ss {
		result[i] = Step{
			Sequence: s.Sequence,
			Name:     s.Name,
			Status:   string(s.Status),
			Error:    s.Error,
		}
	}
	return result
}

func toInternalStatusFilter(opts *ListBuildsOpts) *model.BuildStatus {
	if opts == nil || opts.Status == nil {
		return nil
	}
	s := model.BuildStatus(*opts.Status)
	return &s
}

// mapError adds the public sentinel of an internal error, the original error
// chain is kept.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrProvisioning):
		return joinErrors(err, ErrProvisioning)
	case errors.Is(err, model.ErrLaunch):
		return joinErrors(err, ErrLaunch)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
