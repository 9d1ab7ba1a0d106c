package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/rtboot/internal/model"
	storageio "github.com/slok/rtboot/internal/storage/io"
	"github.com/slok/rtboot/internal/utils/env"
)

// recipeFlags are the recipe selection flags shared by the commands that bootstrap
// environments.
type recipeFlags struct {
	recipePath string
	contextDir string
	envSpecs   []string
}

// loadRecipe returns the recipe selected by the flags: the recipe file, or the
// default recipe when no file is set. A relative context dir of a recipe file
// is resolved from the file directory, the --context flag from the current one.
func loadRecipe(ctx context.Context, f recipeFlags) (model.Recipe, error) {
	r := model.DefaultRecipe()
	baseDir := "."

	if f.recipePath != "" {
		path, err := filepath.Abs(f.recipePath)
		if err != nil {
			return model.Recipe{}, fmt.Errorf("could not resolve recipe path: %w", err)
		}

		// fs.FS paths are unrooted.
		repo := storageio.NewRecipeYAMLRepository(os.DirFS("/"))
		r, err = repo.GetRecipe(ctx, path[1:])
		if err != nil {
			return model.Recipe{}, fmt.Errorf("could not load recipe %s: %w", f.recipePath, err)
		}
		baseDir = filepath.Dir(path)
	}

	contextDir := r.ContextDir
	if f.contextDir != "" {
		contextDir = f.contextDir
		baseDir = "."
	}
	if !filepath.IsAbs(contextDir) {
		contextDir = filepath.Join(baseDir, contextDir)
	}
	contextDir, err := filepath.Abs(contextDir)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("could not resolve context dir: %w", err)
	}
	r.ContextDir = contextDir

	if len(f.envSpecs) > 0 {
		flags, err := env.ParseSpecs(f.envSpecs)
		if err != nil {
			return model.Recipe{}, fmt.Errorf("invalid env flags: %w", err)
		}
		r.Env = env.MergeMaps(r.Env, flags)
	}

	if err := r.Validate(); err != nil {
		return model.Recipe{}, fmt.Errorf("invalid recipe: %w", err)
	}

	return r, nil
}
