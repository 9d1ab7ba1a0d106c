// Package lib provides a Go SDK to bootstrap runtime environments with rtboot
// programmatically.
//
// An environment is described by a [Recipe]: a base image, system and extension
// packages, fixed environment flags, a working directory that receives a full
// copy of the build context, and a two token entry command. Building a recipe
// realizes the environment with an engine, running it launches the entry
// process exactly once and reports its exit code.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{Engine: lib.EngineDocker})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	recipe := lib.DefaultRecipe()
//	recipe.ContextDir = "/path/to/app"
//
//	build, err := client.Build(ctx, lib.BuildOpts{Recipe: recipe})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := client.Run(ctx, lib.RunOpts{BuildID: build.ID, Stdout: os.Stdout, Stderr: os.Stderr})
//	if code, ok := lib.ExitCode(err); ok {
//	    os.Exit(code)
//	}
//
// # Engines
//
//   - [EngineDocker]: Builds an image through the Docker daemon and launches a
//     container from it.
//   - [EngineNative]: Realizes the environment on the current host under a root
//     directory and launches a host process.
//   - [EngineFake]: Simulates builds and launches. No real infrastructure needed,
//     useful for tests.
//
// A build can only be launched with the engine that realized it.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Resource does not exist.
//   - [ErrNotValid]: Invalid input or operation (e.g. running a failed build).
//   - [ErrProvisioning]: A package installation step failed, no image was tagged.
//   - [ErrLaunch]: The entry process failed, use [ExitCode] to get its exit code.
//
// # Testing
//
// Use [EngineFake] and a temporary database path to write tests without
// real infrastructure:
//
//	client, _ := lib.New(ctx, lib.Config{
//	    DBPath: filepath.Join(t.TempDir(), "test.db"),
//	    Engine: lib.EngineFake,
//	})
//	defer client.Close()
package lib
