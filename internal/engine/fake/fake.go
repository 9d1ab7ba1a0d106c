package fake

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/rtboot/internal/buildctx"
	"github.com/slok/rtboot/internal/conventions"
	"github.com/slok/rtboot/internal/dockerfile"
	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
)

// EngineConfig is the configuration for the fake engine.
type EngineConfig struct {
	// ExitCode is the exit code reported by every launch.
	ExitCode int
	Logger   log.Logger
}

func (c *EngineConfig) defaults() error {
	if c.ExitCode < 0 {
		return fmt.Errorf("exit code can't be negative")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "engine.Fake"})
	return nil
}

// Engine is a fake implementation of the engine.Engine interface.
// It renders and hashes environments like a real engine but doesn't realize
// them, launches only simulate the entry process.
type Engine struct {
	images   map[string]model.Image
	exitCode int
	mu       sync.RWMutex
	logger   log.Logger
}

var _ engine.Engine = &Engine{}

// NewEngine creates a new fake engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		images:   make(map[string]model.Image),
		exitCode: cfg.ExitCode,
		logger:   cfg.Logger,
	}, nil
}

// Build renders the environment and returns the image it would produce.
func (e *Engine) Build(ctx context.Context, req engine.BuildRequest) (*model.Image, error) {
	df, err := dockerfile.Render(req.Environment)
	if err != nil {
		return nil, fmt.Errorf("could not render environment: %w", err)
	}

	ctxDigest, err := buildctx.Digest(ctx, req.Environment.ContextSource())
	if err != nil {
		return nil, fmt.Errorf("could not hash build context: %w", err)
	}

	digest := conventions.ImageDigest(df, ctxDigest)
	tag := req.Tag
	if tag == "" {
		tag = conventions.ImageTag(req.RecipeName, digest)
	}

	img := model.Image{
		Tag:           tag,
		ID:            "sha256:" + digest,
		ContextDigest: ctxDigest,
	}

	e.mu.Lock()
	e.images[img.ID] = img
	e.mu.Unlock()

	if req.Output != nil {
		fmt.Fprint(req.Output, df)
	}
	e.logger.Infof("Built fake image: %s", tag)

	return &img, nil
}

var imageIDRegexp = regexp.MustCompile(`^sha256:[a-f0-9]{64}$`)

// Launch simulates the entry process of an image built by this engine.
func (e *Engine) Launch(ctx context.Context, req engine.LaunchRequest) (*model.LaunchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	_, ok := e.images[req.Image.ID]
	e.mu.RUnlock()
	// Images built by another process are only known by their ID shape.
	if !ok && !imageIDRegexp.MatchString(req.Image.ID) {
		return nil, fmt.Errorf("image %s: %w", req.Image.ID, model.ErrNotFound)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	e.logger.Infof("Launched fake process %s: %v", id, req.Environment.Command())

	if e.exitCode != 0 {
		return nil, &model.LaunchFailure{ExitCode: e.exitCode}
	}

	return &model.LaunchResult{ID: id, ExitCode: 0}, nil
}

// Images returns the images built by the engine.
func (e *Engine) Images() []model.Image {
	e.mu.RLock()
	defer e.mu.RUnlock()

	images := make([]model.Image, 0, len(e.images))
	for _, img := range e.images {
		images = append(images, img)
	}
	return images
}
