package engine

import (
	"context"
	"io"

	"github.com/slok/rtboot/internal/model"
)

// BuildRequest is a request to realize a ready environment.
type BuildRequest struct {
	// BuildID is the ID of the build being realized, used to label the artifacts.
	BuildID string
	// RecipeName is used to name the resulting image.
	RecipeName string
	// Tag overrides the image tag, optional.
	Tag string
	// Environment must be ready (every stage applied).
	Environment model.Environment
	// Output receives the build progress, optional.
	Output io.Writer
}

// LaunchRequest is a request to start the entry process of a realized environment.
type LaunchRequest struct {
	// BuildID is the ID of the build being launched.
	BuildID string
	// Image is the realized environment returned by Build.
	Image model.Image
	// Environment is the snapshot the image was realized from.
	Environment model.Environment
	// Stdout and Stderr receive the process output unbuffered, optional.
	Stdout io.Writer
	Stderr io.Writer
}

// Engine realizes bootstrapped environments and launches their entry process.
type Engine interface {
	// Build realizes the environment. A failure on any install step returns a
	// *model.ProvisioningError and no image is produced.
	Build(ctx context.Context, req BuildRequest) (*model.Image, error)
	// Launch starts exactly one foreground process and blocks until it exits. A
	// non-zero exit code returns a *model.LaunchFailure.
	Launch(ctx context.Context, req LaunchRequest) (*model.LaunchResult, error)
}
