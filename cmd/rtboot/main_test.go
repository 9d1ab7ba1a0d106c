package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/oklog/run"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/rtboot/internal/model"
)

type app struct {
	t      *testing.T
	dbPath string
}

func newApp(t *testing.T) app {
	return app{t: t, dbPath: filepath.Join(t.TempDir(), "rtboot.db")}
}

func (a app) run(args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	args = append([]string{"rtboot", "--no-log", "--db-path", a.dbPath}, args...)
	err = Run(context.Background(), args, nil, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), err
}

// newProject writes a recipe without packages that runs main.sh with sh.
func newProject(t *testing.T, script string) string {
	dir := t.TempDir()
	recipe := `name: tk
system_packages: []
extension_packages: []
env:
  APP_MODE: test
command: [sh, main.sh]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rtboot.yaml"), []byte(recipe), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.sh"), []byte(script), 0o644))
	return filepath.Join(dir, "rtboot.yaml")
}

func TestRender(t *testing.T) {
	a := newApp(t)

	stdout, _, err := a.run("render")
	require.NoError(t, err)

	assert.Contains(t, stdout, "FROM python:3.12-slim\n")
	assert.Contains(t, stdout, "rm -rf /var/lib/apt/lists/*\n")
	assert.Contains(t, stdout, `CMD ["python","main.py"]`)
}

func TestFakeBuildHistoryAndRun(t *testing.T) {
	a := newApp(t)
	recipe := newProject(t, "exit 0\n")

	stdout, _, err := a.run("build", "--engine", "fake", "--recipe", recipe, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Build succeeded!")

	stdout, _, err = a.run("history", "--format", "json")
	require.NoError(t, err)
	var builds []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &builds))
	require.Len(t, builds, 1)
	assert.Equal(t, "tk", builds[0]["recipe"])
	assert.Equal(t, "succeeded", builds[0]["status"])

	_, _, err = a.run("inspect", builds[0]["id"].(string))
	require.NoError(t, err)

	_, _, err = a.run("run", "--engine", "fake", "--recipe-name", "tk")
	require.NoError(t, err)

	// Builds are bound to the engine that realized them.
	_, _, err = a.run("run", "--engine", "native", "--build", builds[0]["id"].(string))
	assert.ErrorIs(t, err, model.ErrNotValid)

	_, _, err = a.run("run", "--engine", "native", "--recipe-name", "tk")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRunLatestBuildOfTheEngine(t *testing.T) {
	a := newApp(t)
	recipe := newProject(t, "echo native\n")
	root := filepath.Join(t.TempDir(), "root")

	_, _, err := a.run("build", "--engine", "native", "--root", root, "--recipe", recipe)
	require.NoError(t, err)

	// A newer build of another engine should not hide the native one.
	_, _, err = a.run("build", "--engine", "fake", "--recipe", recipe)
	require.NoError(t, err)

	stdout, _, err := a.run("run", "--engine", "native", "--recipe-name", "tk")
	require.NoError(t, err)
	assert.Equal(t, "native\n", stdout)

	_, _, err = a.run("run", "--engine", "fake", "--recipe-name", "tk")
	require.NoError(t, err)
}

func TestNativeBuildAndRun(t *testing.T) {
	tests := map[string]struct {
		script    string
		expStdout string
		expExit   int
	}{
		"An empty main script should exit with 0 and print nothing.": {
			script:    "",
			expStdout: "",
		},

		"The entry process should see the environment flags.": {
			script:    `echo "$PYTHONDONTWRITEBYTECODE $PYTHONUNBUFFERED $APP_MODE"` + "\n",
			expStdout: "1 1 test\n",
		},

		"The entry process exit code should be propagated.": {
			script:  "exit 3\n",
			expExit: 3,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a := newApp(t)
			recipe := newProject(t, test.script)
			root := filepath.Join(t.TempDir(), "root")

			_, _, err := a.run("build", "--engine", "native", "--root", root, "--recipe", recipe)
			require.NoError(t, err)

			stdout, _, err := a.run("run", "--engine", "native", "--recipe-name", "tk")
			if test.expExit != 0 {
				var lf *model.LaunchFailure
				require.True(t, errors.As(err, &lf))
				assert.Equal(t, test.expExit, exitCode(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expStdout, stdout)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("something")))
	assert.Equal(t, 137, exitCode(&model.LaunchFailure{ExitCode: 137}))
	assert.Equal(t, 130, exitCode(run.SignalError{Signal: syscall.SIGINT}))
	assert.Equal(t, 143, exitCode(fmt.Errorf("wrapped: %w", run.SignalError{Signal: syscall.SIGTERM})))
}

func TestRunInterruptedBySignal(t *testing.T) {
	a := newApp(t)
	recipe := newProject(t, "sleep 30\n")
	root := filepath.Join(t.TempDir(), "root")

	_, _, err := a.run("build", "--engine", "native", "--root", root, "--recipe", recipe)
	require.NoError(t, err)

	errC := make(chan error, 1)
	go func() {
		_, _, err := a.run("run", "--engine", "native", "--recipe-name", "tk")
		errC <- err
	}()

	// Let the signal handler be registered and the entry process start.
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case err := <-errC:
		require.Error(t, err)
		var sigErr run.SignalError
		require.True(t, errors.As(err, &sigErr))
		assert.Equal(t, 130, exitCode(err))
	case <-time.After(10 * time.Second):
		t.Fatal("interrupted run didn't finish")
	}
}
