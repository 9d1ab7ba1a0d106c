package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/rtboot/internal/conventions"
	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/engine/docker"
	"github.com/slok/rtboot/internal/engine/fake"
	"github.com/slok/rtboot/internal/engine/native"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/storage"
	"github.com/slok/rtboot/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use ~/.rtboot/rtboot.db for storage and the Docker engine.
type Config struct {
	// DBPath is the SQLite build history database path.
	// Default: ~/.rtboot/rtboot.db.
	DBPath string

	// DataDir is the base directory for rtboot data.
	// Default: ~/.rtboot.
	DataDir string

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// Engine is the engine used to build and run.
	// Default: [EngineDocker].
	Engine EngineType

	// NativeRoot is the directory where [EngineNative] realizes environments.
	// Default: <DataDir>/native/<recipe name>.
	NativeRoot string
}

func (c *Config) defaults() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, conventions.DefaultDataDir)
	}

	if c.DBPath == "" {
		c.DBPath = conventions.DBPath(c.DataDir)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	if c.Engine == "" {
		c.Engine = EngineDocker
	}
	switch c.Engine {
	case EngineDocker, EngineNative, EngineFake:
	default:
		return fmt.Errorf("unsupported engine type %q: %w", c.Engine, ErrNotValid)
	}

	return nil
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	repo       storage.Repository
	logger     log.Logger
	dataDir    string
	engineType EngineType
	nativeRoot string
	closeFn    func() error
}

// New creates a new SDK client backed by a SQLite database.
//
// The caller must call [Client.Close] when done to release the database
// connection.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	return &Client{
		repo:       repo,
		logger:     cfg.Logger,
		dataDir:    cfg.DataDir,
		engineType: cfg.Engine,
		nativeRoot: cfg.NativeRoot,
		closeFn:    repo.Close,
	}, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// newEngine creates the configured engine, recipeName selects the native root.
func (c *Client) newEngine(recipeName string) (engine.Engine, error) {
	switch c.engineType {
	case EngineDocker:
		return docker.NewEngine(docker.EngineConfig{Logger: c.logger})
	case EngineNative:
		root := c.nativeRoot
		if root == "" {
			root = filepath.Join(c.dataDir, "native", recipeName)
		}
		return native.NewEngine(native.EngineConfig{
			RootDir: root,
			Logger:  c.logger,
		})
	case EngineFake:
		return fake.NewEngine(fake.EngineConfig{Logger: c.logger})
	default:
		return nil, fmt.Errorf("unsupported engine type: %s: %w", c.engineType, ErrNotValid)
	}
}
