package model

import (
	"fmt"
	"path"

	"github.com/slok/rtboot/internal/utils/env"
)

const (
	// EnvNoBytecode disables the interpreter bytecode-cache file writes.
	EnvNoBytecode = "PYTHONDONTWRITEBYTECODE"
	// EnvUnbuffered forces unbuffered standard streams.
	EnvUnbuffered = "PYTHONUNBUFFERED"
)

// RequiredEnvFlags are the flags every recipe environment must carry.
var RequiredEnvFlags = []string{EnvNoBytecode, EnvUnbuffered}

// Recipe describes the environment that will be provisioned and the single
// process that will be launched inside it.
type Recipe struct {
	Name string
	// BaseImage is the base runtime image identifier.
	BaseImage string
	// SystemPackages are installed with the system package manager.
	SystemPackages []string
	// ExtensionPackages are installed with the language package manager, without cache.
	ExtensionPackages []string
	// Env is fixed at build time and visible to every process of the environment.
	Env map[string]string
	// WorkingDir is the context copy destination and the launch directory.
	WorkingDir string
	// ContextDir is the local build context that will be copied.
	ContextDir string
	// Command is the entry command: interpreter and script.
	Command []string
}

// DefaultRecipe returns the recipe of the Tk GUI application image.
func DefaultRecipe() Recipe {
	return Recipe{
		Name:      "app",
		BaseImage: "python:3.12-slim",
		SystemPackages: []string{
			"python3-tk",
			"tk",
			"libx11-6",
			"x11-apps",
		},
		ExtensionPackages: []string{"ttkbootstrap"},
		Env: map[string]string{
			EnvNoBytecode: "1",
			EnvUnbuffered: "1",
		},
		WorkingDir: "/app",
		ContextDir: ".",
		Command:    []string{"python", "main.py"},
	}
}

// Validate validates the recipe.
func (r Recipe) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}

	if r.BaseImage == "" {
		return fmt.Errorf("base image is required: %w", ErrNotValid)
	}

	for _, f := range RequiredEnvFlags {
		if r.Env[f] == "" {
			return fmt.Errorf("environment flag %q is required with a non empty value: %w", f, ErrNotValid)
		}
	}
	for k, v := range r.Env {
		if !env.IsValidKey(k) {
			return fmt.Errorf("invalid environment variable key %q: %w", k, ErrNotValid)
		}
		if !env.IsValidValue(v) {
			return fmt.Errorf("environment variable %q value has control characters: %w", k, ErrNotValid)
		}
	}

	if r.WorkingDir == "" || !path.IsAbs(r.WorkingDir) {
		return fmt.Errorf("working dir must be an absolute path, got %q: %w", r.WorkingDir, ErrNotValid)
	}

	if r.ContextDir == "" {
		return fmt.Errorf("context dir is required: %w", ErrNotValid)
	}

	if len(r.Command) != 2 {
		return fmt.Errorf("command must have exactly 2 tokens (interpreter and script), got %d: %w", len(r.Command), ErrNotValid)
	}
	for _, tk := range r.Command {
		if tk == "" {
			return fmt.Errorf("command tokens can't be empty: %w", ErrNotValid)
		}
	}

	return nil
}
