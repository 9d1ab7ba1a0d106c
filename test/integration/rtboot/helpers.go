package rtboot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/rtboot/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
	// Docker enables the tests that need a Docker daemon.
	Docker bool
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "rtboot"
	}

	// go test changes the CWD to the test package directory, so relative paths
	// would be resolved from there.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("RTBOOT_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("rtboot binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "RTBOOT_INTEGRATION"
		envBinary     = "RTBOOT_INTEGRATION_BINARY"
		envDocker     = "RTBOOT_INTEGRATION_DOCKER"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
		Docker: os.Getenv(envDocker) == "true",
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunCmd runs an rtboot command with the given arguments and a specific db path.
// It suppresses logging output for cleaner test output.
func RunCmd(ctx context.Context, config Config, dbPath, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--no-log --db-path %s %s", dbPath, cmdArgs)
	return testutils.RunRtboot(ctx, nil, config.Binary, args, true)
}

// RunBuild builds a recipe file with an engine.
func RunBuild(ctx context.Context, config Config, dbPath, engine, recipePath, extraArgs string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, dbPath, fmt.Sprintf("build --engine %s --recipe %s %s", engine, recipePath, extraArgs))
}

// RunRun launches the latest build of a recipe with an engine.
func RunRun(ctx context.Context, config Config, dbPath, engine, recipeName string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, dbPath, fmt.Sprintf("run --engine %s --recipe-name %s", engine, recipeName))
}

// RunHistory lists the builds in JSON format.
func RunHistory(ctx context.Context, config Config, dbPath string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, dbPath, "history --format json")
}

// RunInspect shows a build in JSON format.
func RunInspect(ctx context.Context, config Config, dbPath, buildID string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, dbPath, fmt.Sprintf("inspect --format json %s", buildID))
}
