package docker

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/slok/rtboot/internal/buildctx"
	"github.com/slok/rtboot/internal/conventions"
	"github.com/slok/rtboot/internal/dockerfile"
	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
)

// DockerClient is the interface for Docker operations that we use.
// This allows us to mock the Docker client for testing.
type DockerClient interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// stopTimeout is the grace period in seconds given to the entry process when the
// launch is cancelled.
const stopTimeout = 10

// EngineConfig is the configuration for the Docker engine.
type EngineConfig struct {
	Client DockerClient
	Logger log.Logger
}

func (c *EngineConfig) defaults() error {
	if c.Client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "engine.Docker"})
	return nil
}

// Engine realizes environments as Docker images and launches them as containers.
type Engine struct {
	client DockerClient
	logger log.Logger
}

var _ engine.Engine = &Engine{}

// NewEngine creates a new Docker engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Build renders the environment as a Dockerfile and builds it with the full
// build context. The image is only tagged when every instruction succeeds.
func (e *Engine) Build(ctx context.Context, req engine.BuildRequest) (*model.Image, error) {
	env := req.Environment
	out := req.Output
	if out == nil {
		out = io.Discard
	}

	// 1. Render.
	e.logger.Infof("[1/3] Rendering Dockerfile")
	df, err := dockerfile.Render(env)
	if err != nil {
		return nil, fmt.Errorf("could not render Dockerfile: %w", err)
	}

	// 2. Digest the context.
	e.logger.Infof("[2/3] Hashing build context: %s", env.ContextSource())
	ctxDigest, err := buildctx.Digest(ctx, env.ContextSource())
	if err != nil {
		return nil, fmt.Errorf("could not hash build context: %w", err)
	}

	tag := req.Tag
	if tag == "" {
		tag = conventions.ImageTag(req.RecipeName, conventions.ImageDigest(df, ctxDigest))
	}

	// 3. Build.
	e.logger.Infof("[3/3] Building image: %s", tag)
	extra, err := generatedFiles(env.ContextSource(), df)
	if err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(buildctx.Archive(ctx, env.ContextSource(), extra, pw))
	}()
	defer pr.Close()

	resp, err := e.client.ImageBuild(ctx, pr, build.ImageBuildOptions{
		Tags:        []string{tag},
		Dockerfile:  conventions.DockerfileName,
		Remove:      true,
		ForceRemove: true,
		Labels:      imageLabels(req, env, ctxDigest),
	})
	if err != nil {
		return nil, &model.ProvisioningError{Step: "build", Err: fmt.Errorf("image build request failed: %w", err)}
	}
	defer resp.Body.Close()

	var imageID string
	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, out, 0, false, func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var aux struct {
			ID string `json:"ID"`
		}
		if err := json.Unmarshal(*msg.Aux, &aux); err != nil {
			e.logger.Debugf("Ignoring unknown build aux message: %v", err)
			return
		}
		if aux.ID != "" {
			imageID = aux.ID
		}
	})
	if err != nil {
		return nil, &model.ProvisioningError{Step: failedLayer(env, err), Err: err}
	}

	e.logger.Infof("Built image %s (%s)", tag, imageID)

	return &model.Image{
		Tag:           tag,
		ID:            imageID,
		ContextDigest: ctxDigest,
	}, nil
}

// generatedFiles returns the files injected in the build context. A .dockerignore
// of the context is shipped untouched and only the generated files are ignored.
func generatedFiles(contextDir, df string) (map[string][]byte, error) {
	ignored := []string{conventions.DockerfileName, conventions.DockerfileIgnoreName}

	_, err := os.Lstat(filepath.Join(contextDir, conventions.DockerignoreName))
	hasDockerignore := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not check build context ignore file: %w", err)
	}
	if !hasDockerignore {
		ignored = append(ignored, conventions.DockerignoreName)
	}

	ignore := []byte(strings.Join(ignored, "\n") + "\n")
	files := map[string][]byte{
		conventions.DockerfileName:       []byte(df),
		conventions.DockerfileIgnoreName: ignore,
	}
	if !hasDockerignore {
		files[conventions.DockerignoreName] = ignore
	}

	return files, nil
}

func imageLabels(req engine.BuildRequest, env model.Environment, ctxDigest string) map[string]string {
	labels := map[string]string{
		ocispec.AnnotationBaseImageName: env.BaseImage(),
		conventions.LabelContextDigest:  ctxDigest,
	}
	if req.RecipeName != "" {
		labels[ocispec.AnnotationTitle] = req.RecipeName
	}
	if req.BuildID != "" {
		labels[conventions.LabelBuildID] = req.BuildID
	}
	return labels
}

// failedLayer returns the name of the RUN layer whose script appears on the build
// error, the daemon reports the failing command on it.
func failedLayer(env model.Environment, err error) string {
	msg := err.Error()
	for _, l := range env.Layers() {
		if l.Kind == model.InstructionRun && strings.Contains(msg, l.Script) {
			return l.Name
		}
	}
	return "build"
}

// Launch creates a container from the image without overriding its command, so
// the entry process is the one set at build time. It blocks until the process exits
// and the container is always removed afterwards.
func (e *Engine) Launch(ctx context.Context, req engine.LaunchRequest) (*model.LaunchResult, error) {
	ref := req.Image.ID
	if ref == "" {
		ref = req.Image.Tag
	}
	if ref == "" {
		return nil, fmt.Errorf("image is required: %w", model.ErrNotValid)
	}
	stdout, stderr := req.Stdout, req.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	containerName := fmt.Sprintf("%s-%s", conventions.ContainerNamePrefix, strings.ToLower(id))

	labels := map[string]string{}
	if req.BuildID != "" {
		labels[conventions.LabelBuildID] = req.BuildID
	}

	e.logger.Debugf("Creating container %s from %s", containerName, ref)
	resp, err := e.client.ContainerCreate(ctx,
		&container.Config{
			Image:  ref,
			Labels: labels,
		},
		&container.HostConfig{
			RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyDisabled},
		},
		nil, nil, containerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := resp.ID

	defer func() {
		// The launch context could be cancelled already.
		if err := e.client.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true}); err != nil {
			e.logger.Warningf("Failed to remove container %s: %v", containerID, err)
		}
	}()

	// Wait is registered before starting so a fast exit is not missed.
	waitC, waitErrC := e.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	if err := e.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}
	e.logger.Infof("Launched container %s", containerID)

	logs, err := e.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach container logs: %w", err)
	}
	defer logs.Close()

	logsDone := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(stdout, stderr, logs)
		logsDone <- err
	}()

	var status container.WaitResponse
	select {
	case status = <-waitC:
	case err := <-waitErrC:
		if ctx.Err() != nil {
			e.stop(containerID)
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed waiting for container: %w", err)
	case <-ctx.Done():
		e.stop(containerID)
		return nil, ctx.Err()
	}

	// The log stream ends when the container exits.
	if err := <-logsDone; err != nil && !errors.Is(err, io.EOF) {
		e.logger.Warningf("Container output copy failed: %v", err)
	}

	if status.Error != nil && status.Error.Message != "" {
		return nil, fmt.Errorf("container wait failed: %s", status.Error.Message)
	}

	exitCode := int(status.StatusCode)
	if exitCode != 0 {
		return nil, &model.LaunchFailure{ExitCode: exitCode}
	}

	return &model.LaunchResult{ID: containerID, ExitCode: exitCode}, nil
}

func (e *Engine) stop(containerID string) {
	e.logger.Infof("Stopping container %s", containerID)
	timeout := stopTimeout
	if err := e.client.ContainerStop(context.Background(), containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		e.logger.Warningf("Failed to stop container %s: %v", containerID, err)
	}
}
