package io

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/slok/rtboot/internal/model"
)

// RecipeYAMLRepository loads recipes from YAML files.
type RecipeYAMLRepository struct {
	fs fs.FS
}

// NewRecipeYAMLRepository creates a new YAML recipe repository.
func NewRecipeYAMLRepository(filesystem fs.FS) *RecipeYAMLRepository {
	return &RecipeYAMLRepository{fs: filesystem}
}

// GetRecipe loads a recipe from a YAML file and returns a validated domain model.
// Fields missing on the file take the default recipe values, a relative context
// dir is kept as written (relative to the recipe file).
func (r *RecipeYAMLRepository) GetRecipe(ctx context.Context, path string) (model.Recipe, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("reading recipe file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Recipe{}, ctx.Err()
	}

	var rf RecipeFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && !errors.Is(err, io.EOF) {
		return model.Recipe{}, fmt.Errorf("parsing YAML: %w", err)
	}

	recipe := rf.toModel()
	if err := recipe.Validate(); err != nil {
		return model.Recipe{}, fmt.Errorf("invalid recipe: %w", err)
	}

	return recipe, nil
}

// RecipeFile represents the YAML structure of a recipe.
type RecipeFile struct {
	Name              string            `yaml:"name"`
	BaseImage         string            `yaml:"base_image"`
	SystemPackages    []string          `yaml:"system_packages"`
	ExtensionPackages []string          `yaml:"extension_packages"`
	Env               map[string]string `yaml:"env"`
	WorkingDir        string            `yaml:"working_dir"`
	ContextDir        string            `yaml:"context_dir"`
	Command           []string          `yaml:"command"`
}

func (f RecipeFile) toModel() model.Recipe {
	r := model.DefaultRecipe()

	if f.Name != "" {
		r.Name = f.Name
	}
	if f.BaseImage != "" {
		r.BaseImage = f.BaseImage
	}
	// An explicit empty list disables the package set.
	if f.SystemPackages != nil {
		r.SystemPackages = f.SystemPackages
	}
	if f.ExtensionPackages != nil {
		r.ExtensionPackages = f.ExtensionPackages
	}
	maps.Copy(r.Env, f.Env)
	if f.WorkingDir != "" {
		r.WorkingDir = f.WorkingDir
	}
	if f.ContextDir != "" {
		r.ContextDir = f.ContextDir
	}
	if f.Command != nil {
		r.Command = f.Command
	}

	return r
}
