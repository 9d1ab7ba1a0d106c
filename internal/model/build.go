package model

import "time"

// EngineType is the engine used to realize an environment.
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypeNative EngineType = "native"
	EngineTypeFake   EngineType = "fake"
)

// BuildStatus represents the state of a build.
type BuildStatus string

const (
	BuildStatusPending   BuildStatus = "pending"
	BuildStatusSucceeded BuildStatus = "succeeded"
	BuildStatusFailed    BuildStatus = "failed"
)

// Build is a single construction of an environment from a recipe.
type Build struct {
	ID     string
	Recipe Recipe
	Engine EngineType
	// ImageTag is the tag of the resulting image (or the root dir on native builds).
	ImageTag string
	ImageID  string
	// ContextDigest is the content digest of the build context.
	ContextDigest string
	Status        BuildStatus
	Error         string
	CreatedAt     time.Time
	FinishedAt    *time.Time
}

// StepStatus represents the state of a build step.
type StepStatus string

const (
	StepStatusPending StepStatus = "pending"
	StepStatusDone    StepStatus = "done"
	StepStatusFailed  StepStatus = "failed"
)

// Step is a single tracked step of a build.
type Step struct {
	ID        string
	BuildID   string
	Sequence  int
	Name      string
	Status    StepStatus
	Error     string
	CreatedAt time.Time
}

// Image is the result of realizing an environment.
type Image struct {
	Tag           string
	ID            string
	ContextDigest string
}

// LaunchResult contains the result of launching the entry process.
type LaunchResult struct {
	// ID is the container ID or the process ID.
	ID       string
	ExitCode int
}
