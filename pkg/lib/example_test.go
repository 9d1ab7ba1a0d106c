package lib_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/rtboot/pkg/lib"
)

// This example shows how to build and run a recipe using the fake engine for testing.
func Example_testing() {
	ctx := context.Background()

	// Use a temp directory and fake engine for testing.
	dir, err := os.MkdirTemp("", "rtboot-example-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client, err := lib.New(ctx, lib.Config{
		DBPath: filepath.Join(dir, "rtboot.db"),
		Engine: lib.EngineFake,
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	// The build context is the application directory.
	appDir := filepath.Join(dir, "app")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		panic(err)
	}

	recipe := lib.DefaultRecipe()
	recipe.ContextDir = appDir

	b, err := client.Build(ctx, lib.BuildOpts{Recipe: recipe})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Built: %s (status: %s)\n", b.Recipe.Name, b.Status)

	res, err := client.Run(ctx, lib.RunOpts{BuildID: b.ID})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Exit code: %d\n", res.ExitCode)

	// Output:
	// Built: app (status: succeeded)
	// Exit code: 0
}

// This example shows how to render the Dockerfile of a recipe without building it.
func Example_render() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "rtboot-example-render-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client, err := lib.New(ctx, lib.Config{
		DBPath: filepath.Join(dir, "rtboot.db"),
		Engine: lib.EngineFake,
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	recipe := lib.DefaultRecipe()
	recipe.SystemPackages = nil
	recipe.ExtensionPackages = []string{"ttkbootstrap"}

	df, err := client.Render(ctx, recipe)
	if err != nil {
		panic(err)
	}
	fmt.Print(df)

	// Output:
	// FROM python:3.12-slim
	//
	// RUN pip install --no-cache-dir ttkbootstrap
	// ENV PYTHONDONTWRITEBYTECODE=1
	// ENV PYTHONUNBUFFERED=1
	// WORKDIR /app
	// COPY . /app
	//
	// CMD ["python","main.py"]
}
