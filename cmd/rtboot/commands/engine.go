package commands

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/rtboot/internal/engine"
	"github.com/slok/rtboot/internal/engine/docker"
	"github.com/slok/rtboot/internal/engine/fake"
	"github.com/slok/rtboot/internal/engine/native"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
)

// engineFlags are the engine selection flags shared by the commands that realize
// or launch environments.
type engineFlags struct {
	engine string
	root   string
}

func (e *engineFlags) register(cmd *kingpin.CmdClause) {
	cmd.Flag("engine", "Engine type (docker, native, fake).").Default(string(model.EngineTypeDocker)).EnumVar(&e.engine,
		string(model.EngineTypeDocker), string(model.EngineTypeNative), string(model.EngineTypeFake))
	cmd.Flag("root", "Root directory where the native engine realizes environments (defaults to the data dir).").StringVar(&e.root)
}

// nativeRoot returns the native engine root for a recipe.
func (e engineFlags) nativeRoot(dataDir, recipeName string) string {
	if e.root != "" {
		return e.root
	}
	return filepath.Join(dataDir, "native", recipeName)
}

// newEngine creates the selected engine.
func newEngine(engineType model.EngineType, nativeRoot string, logger log.Logger) (engine.Engine, error) {
	switch engineType {
	case model.EngineTypeDocker:
		return docker.NewEngine(docker.EngineConfig{Logger: logger})
	case model.EngineTypeNative:
		return native.NewEngine(native.EngineConfig{
			RootDir: nativeRoot,
			Logger:  logger,
		})
	case model.EngineTypeFake:
		return fake.NewEngine(fake.EngineConfig{Logger: logger})
	}

	return nil, fmt.Errorf("unknown engine %q: %w", engineType, model.ErrNotValid)
}
