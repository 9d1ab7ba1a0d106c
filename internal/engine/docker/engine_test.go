package docker_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/rtboot/internal/bootstrap"
	"github.com/slok/rtboot/internal/conventions"
	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/engine/docker"
	"github.com/slok/rtboot/internal/engine/docker/dockermock"
	"github.com/slok/rtboot/internal/model"
)

func planEnv(t *testing.T) model.Environment {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644))

	r := model.DefaultRecipe()
	r.ContextDir = dir
	env, err := bootstrap.Plan(context.TODO(), r)
	require.NoError(t, err)

	return env
}

// tarFiles returns the regular files of a tar stream.
func tarFiles(t *testing.T, r io.Reader) map[string]string {
	t.Helper()

	files := map[string]string{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = string(data)
	}
	return files
}

func buildResponse(lines ...string) build.ImageBuildResponse {
	return build.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(strings.Join(lines, "\n") + "\n"))}
}

func TestEngineBuild(t *testing.T) {
	systemScript, err := bootstrap.SystemInstallScript(model.DefaultRecipe().SystemPackages)
	require.NoError(t, err)

	tests := map[string]struct {
		tag         string
		mock        func(t *testing.T, m *dockermock.MockDockerClient)
		expImage    *model.Image
		expTagPfx   string
		expErr      bool
		expProvStep string
	}{
		"A successful build should return the tagged image.": {
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				m.On("ImageBuild", mock.Anything, mock.Anything, mock.Anything).Once().Return(
					func(_ context.Context, r io.Reader, opts build.ImageBuildOptions) (build.ImageBuildResponse, error) {
						files := tarFiles(t, r)
						assert.Equal(t, "print('hi')\n", files["main.py"])
						assert.Contains(t, files[conventions.DockerfileName], "FROM python:3.12-slim\n")
						assert.Contains(t, files[conventions.DockerfileName], "CMD [\"python\",\"main.py\"]\n")
						ignore := ".rtboot.Dockerfile\n.rtboot.Dockerfile.dockerignore\n.dockerignore\n"
						assert.Equal(t, ignore, files[conventions.DockerfileIgnoreName])
						assert.Equal(t, ignore, files[conventions.DockerignoreName])

						assert.Equal(t, conventions.DockerfileName, opts.Dockerfile)
						assert.True(t, opts.Remove)
						assert.True(t, opts.ForceRemove)
						assert.Equal(t, "python:3.12-slim", opts.Labels[ocispec.AnnotationBaseImageName])
						assert.Equal(t, "app", opts.Labels[ocispec.AnnotationTitle])
						assert.Equal(t, "b1", opts.Labels[conventions.LabelBuildID])
						assert.NotEmpty(t, opts.Labels[conventions.LabelContextDigest])
						require.Len(t, opts.Tags, 1)
						assert.True(t, strings.HasPrefix(opts.Tags[0], "rtboot/app:"))

						return buildResponse(
							`{"stream":"Step 1/9 : FROM python:3.12-slim\n"}`,
							`{"aux":{"ID":"sha256:1234"}}`,
							`{"stream":"Successfully built 1234\n"}`,
						), nil
					}, nil)
			},
			expImage:  &model.Image{ID: "sha256:1234"},
			expTagPfx: "rtboot/app:",
		},

		"A custom tag should be used as the image tag.": {
			tag: "my/app:dev",
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				m.On("ImageBuild", mock.Anything, mock.Anything, mock.Anything).Once().Return(
					func(_ context.Context, r io.Reader, opts build.ImageBuildOptions) (build.ImageBuildResponse, error) {
						_, _ = io.Copy(io.Discard, r)
						assert.Equal(t, []string{"my/app:dev"}, opts.Tags)
						return buildResponse(`{"aux":{"ID":"sha256:5678"}}`), nil
					}, nil)
			},
			expImage:  &model.Image{ID: "sha256:5678"},
			expTagPfx: "my/app:dev",
		},

		"A failing install step should return a provisioning error of that step.": {
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				msg := "The command '/bin/sh -c " + systemScript + "' returned a non-zero code: 100"
				m.On("ImageBuild", mock.Anything, mock.Anything, mock.Anything).Once().Return(
					func(_ context.Context, r io.Reader, _ build.ImageBuildOptions) (build.ImageBuildResponse, error) {
						_, _ = io.Copy(io.Discard, r)
						return buildResponse(
							`{"stream":"Step 2/9 : RUN apt-get update\n"}`,
							`{"errorDetail":{"code":100,"message":"`+msg+`"},"error":"`+msg+`"}`,
						), nil
					}, nil)
			},
			expErr:      true,
			expProvStep: bootstrap.LayerSystemPackages,
		},

		"A failing build request should return a provisioning error.": {
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				m.On("ImageBuild", mock.Anything, mock.Anything, mock.Anything).Once().Return(build.ImageBuildResponse{}, errors.New("daemon down"))
			},
			expErr:      true,
			expProvStep: "build",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := dockermock.NewMockDockerClient(t)
			test.mock(t, m)

			eng, err := docker.NewEngine(docker.EngineConfig{Client: m})
			require.NoError(err)

			var out bytes.Buffer
			img, err := eng.Build(context.TODO(), engine.BuildRequest{
				BuildID:     "b1",
				RecipeName:  "app",
				Tag:         test.tag,
				Environment: planEnv(t),
				Output:      &out,
			})

			if test.expErr {
				assert.Error(err)
				assert.Nil(img)
				var perr *model.ProvisioningError
				require.True(errors.As(err, &perr))
				assert.Equal(test.expProvStep, perr.Step)
				assert.True(errors.Is(err, model.ErrProvisioning))
				return
			}

			require.NoError(err)
			assert.Equal(test.expImage.ID, img.ID)
			assert.True(strings.HasPrefix(img.Tag, test.expTagPfx))
			assert.NotEmpty(img.ContextDigest)
		})
	}
}

func TestEngineBuildContextWithDockerignore(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644))
	require.NoError(os.WriteFile(filepath.Join(dir, ".dockerignore"), []byte("*.log\n"), 0o644))
	require.NoError(os.WriteFile(filepath.Join(dir, "debug.log"), []byte("x\n"), 0o644))

	r := model.DefaultRecipe()
	r.ContextDir = dir
	env, err := bootstrap.Plan(context.TODO(), r)
	require.NoError(err)

	var files map[string]string
	m := dockermock.NewMockDockerClient(t)
	m.On("ImageBuild", mock.Anything, mock.Anything, mock.Anything).Once().Return(
		func(_ context.Context, r io.Reader, _ build.ImageBuildOptions) (build.ImageBuildResponse, error) {
			files = tarFiles(t, r)
			return buildResponse(`{"aux":{"ID":"sha256:1234"}}`), nil
		}, nil)

	eng, err := docker.NewEngine(docker.EngineConfig{Client: m})
	require.NoError(err)

	_, err = eng.Build(context.TODO(), engine.BuildRequest{RecipeName: "app", Environment: env})
	require.NoError(err)

	// The context files are shipped untouched, ignore patterns of the context don't apply.
	assert.Equal(t, "*.log\n", files[".dockerignore"])
	assert.Equal(t, "x\n", files["debug.log"])
	assert.Equal(t, "print('hi')\n", files["main.py"])
	assert.Equal(t, ".rtboot.Dockerfile\n.rtboot.Dockerfile.dockerignore\n", files[conventions.DockerfileIgnoreName])
}

func TestEngineBuildIsDeterministic(t *testing.T) {
	require := require.New(t)

	env := planEnv(t)

	var tags []string
	m := dockermock.NewMockDockerClient(t)
	m.On("ImageBuild", mock.Anything, mock.Anything, mock.Anything).Twice().Return(
		func(_ context.Context, r io.Reader, opts build.ImageBuildOptions) (build.ImageBuildResponse, error) {
			_, _ = io.Copy(io.Discard, r)
			tags = append(tags, opts.Tags...)
			return buildResponse(`{"aux":{"ID":"sha256:1234"}}`), nil
		}, nil)

	eng, err := docker.NewEngine(docker.EngineConfig{Client: m})
	require.NoError(err)

	for range 2 {
		_, err := eng.Build(context.TODO(), engine.BuildRequest{RecipeName: "app", Environment: env})
		require.NoError(err)
	}

	require.Len(tags, 2)
	assert.Equal(t, tags[0], tags[1])
}

func TestEngineBuildNotReadyEnvironment(t *testing.T) {
	m := dockermock.NewMockDockerClient(t)
	eng, err := docker.NewEngine(docker.EngineConfig{Client: m})
	require.NoError(t, err)

	_, err = eng.Build(context.TODO(), engine.BuildRequest{RecipeName: "app", Environment: model.Environment{}})
	assert.True(t, errors.Is(err, model.ErrNotValid))
}

func muxedLogs(t *testing.T, stdout, stderr string) io.ReadCloser {
	t.Helper()

	var b bytes.Buffer
	if stdout != "" {
		_, err := stdcopy.NewStdWriter(&b, stdcopy.Stdout).Write([]byte(stdout))
		require.NoError(t, err)
	}
	if stderr != "" {
		_, err := stdcopy.NewStdWriter(&b, stdcopy.Stderr).Write([]byte(stderr))
		require.NoError(t, err)
	}
	return io.NopCloser(&b)
}

func waitWith(code int64) (<-chan container.WaitResponse, <-chan error) {
	waitC := make(chan container.WaitResponse, 1)
	waitC <- container.WaitResponse{StatusCode: code}
	return waitC, make(chan error)
}

func TestEngineLaunch(t *testing.T) {
	tests := map[string]struct {
		cancel    bool
		mock      func(t *testing.T, m *dockermock.MockDockerClient)
		expResult *model.LaunchResult
		expStdout string
		expStderr string
		expErr    bool
		expCode   int
	}{
		"A process exiting with zero should return the result and its output.": {
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				expCfg := &container.Config{Image: "sha256:1234", Labels: map[string]string{conventions.LabelBuildID: "b1"}}
				expHostCfg := &container.HostConfig{RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyDisabled}}
				m.On("ContainerCreate", mock.Anything, expCfg, expHostCfg, (*network.NetworkingConfig)(nil), (*ocispec.Platform)(nil), mock.Anything).Once().Return(container.CreateResponse{ID: "c1"}, nil)
				waitC, errC := waitWith(0)
				m.On("ContainerWait", mock.Anything, "c1", container.WaitConditionNextExit).Once().Return(waitC, errC)
				m.On("ContainerStart", mock.Anything, "c1", mock.Anything).Once().Return(nil)
				m.On("ContainerLogs", mock.Anything, "c1", container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: true}).Once().Return(muxedLogs(t, "hello\n", "warn\n"), nil)
				m.On("ContainerRemove", mock.Anything, "c1", container.RemoveOptions{Force: true}).Once().Return(nil)
			},
			expResult: &model.LaunchResult{ID: "c1", ExitCode: 0},
			expStdout: "hello\n",
			expStderr: "warn\n",
		},

		"A process exiting with non-zero should return a launch failure with the code.": {
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(container.CreateResponse{ID: "c1"}, nil)
				waitC, errC := waitWith(3)
				m.On("ContainerWait", mock.Anything, "c1", container.WaitConditionNextExit).Once().Return(waitC, errC)
				m.On("ContainerStart", mock.Anything, "c1", mock.Anything).Once().Return(nil)
				m.On("ContainerLogs", mock.Anything, "c1", mock.Anything).Once().Return(muxedLogs(t, "", "boom\n"), nil)
				m.On("ContainerRemove", mock.Anything, "c1", mock.Anything).Once().Return(nil)
			},
			expStderr: "boom\n",
			expErr:    true,
			expCode:   3,
		},

		"A failing container creation should fail.": {
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(container.CreateResponse{}, errors.New("something"))
			},
			expErr: true,
		},

		"A failing container start should fail and remove the container.": {
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(container.CreateResponse{ID: "c1"}, nil)
				m.On("ContainerWait", mock.Anything, "c1", container.WaitConditionNextExit).Once().Return((<-chan container.WaitResponse)(make(chan container.WaitResponse)), (<-chan error)(make(chan error)))
				m.On("ContainerStart", mock.Anything, "c1", mock.Anything).Once().Return(errors.New("something"))
				m.On("ContainerRemove", mock.Anything, "c1", mock.Anything).Once().Return(nil)
			},
			expErr: true,
		},

		"A cancelled launch should stop and remove the container.": {
			cancel: true,
			mock: func(t *testing.T, m *dockermock.MockDockerClient) {
				m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(container.CreateResponse{ID: "c1"}, nil)
				m.On("ContainerWait", mock.Anything, "c1", container.WaitConditionNextExit).Once().Return((<-chan container.WaitResponse)(make(chan container.WaitResponse)), (<-chan error)(make(chan error)))
				m.On("ContainerStart", mock.Anything, "c1", mock.Anything).Once().Return(nil)
				m.On("ContainerLogs", mock.Anything, "c1", mock.Anything).Once().Return(muxedLogs(t, "", ""), nil)
				m.On("ContainerStop", mock.Anything, "c1", mock.Anything).Once().Return(nil)
				m.On("ContainerRemove", mock.Anything, "c1", mock.Anything).Once().Return(nil)
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := dockermock.NewMockDockerClient(t)
			test.mock(t, m)

			eng, err := docker.NewEngine(docker.EngineConfig{Client: m})
			require.NoError(err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if test.cancel {
				cancel()
			}

			var stdout, stderr bytes.Buffer
			res, err := eng.Launch(ctx, engine.LaunchRequest{
				BuildID:     "b1",
				Image:       model.Image{Tag: "rtboot/app:abc", ID: "sha256:1234"},
				Environment: planEnv(t),
				Stdout:      &stdout,
				Stderr:      &stderr,
			})

			assert.Equal(test.expStdout, stdout.String())
			assert.Equal(test.expStderr, stderr.String())

			if test.expErr {
				assert.Error(err)
				if test.expCode != 0 {
					var lf *model.LaunchFailure
					require.True(errors.As(err, &lf))
					assert.Equal(test.expCode, lf.ExitCode)
					assert.True(errors.Is(err, model.ErrLaunch))
				}
				return
			}

			require.NoError(err)
			assert.Equal(test.expResult, res)
		})
	}
}
