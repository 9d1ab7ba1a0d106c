package model

import (
	"maps"
	"slices"
)

// Stage names of the bootstrap pipeline, in execution order.
const (
	StageProvision            = "provision"
	StageConfigureEnvironment = "configure-environment"
	StageSetWorkingDirectory  = "set-working-directory"
	StageCopyContext          = "copy-context"
	StageLaunch               = "launch"
)

// Stages is the ordered list of bootstrap stages.
var Stages = []string{
	StageProvision,
	StageConfigureEnvironment,
	StageSetWorkingDirectory,
	StageCopyContext,
	StageLaunch,
}

// InstructionKind is the kind of layer instruction.
type InstructionKind string

const (
	InstructionRun     InstructionKind = "RUN"
	InstructionEnv     InstructionKind = "ENV"
	InstructionWorkdir InstructionKind = "WORKDIR"
	InstructionCopy    InstructionKind = "COPY"
)

// Layer is a single build instruction of an environment.
type Layer struct {
	Kind InstructionKind
	// Name identifies the layer for logs and errors (e.g. "system-packages").
	Name string

	// Script is the shell script of a RUN layer.
	Script string
	// Env holds the variables of an ENV layer.
	Env map[string]string
	// Path is the directory of a WORKDIR layer.
	Path string
	// Src and Dst are the paths of a COPY layer, Src is relative to the build context.
	Src string
	Dst string
}

// Environment is an immutable snapshot of the environment being bootstrapped.
// Every stage takes a snapshot and returns a new one, the zero value is the
// empty snapshot.
type Environment struct {
	baseImage  string
	layers     []Layer
	env        map[string]string
	workingDir string
	contextSrc string
	contextDst string
	command    []string
	completed  []string
}

// BaseImage returns the base image identifier.
func (e Environment) BaseImage() string { return e.baseImage }

// WorkingDir returns the working directory.
func (e Environment) WorkingDir() string { return e.workingDir }

// ContextSource returns the local build context path.
func (e Environment) ContextSource() string { return e.contextSrc }

// ContextDestination returns the path where the build context is copied.
func (e Environment) ContextDestination() string { return e.contextDst }

// Layers returns a copy of the environment layers.
func (e Environment) Layers() []Layer {
	layers := make([]Layer, 0, len(e.layers))
	for _, l := range e.layers {
		l.Env = maps.Clone(l.Env)
		layers = append(layers, l)
	}
	return layers
}

// Env returns a copy of the environment configuration.
func (e Environment) Env() map[string]string {
	if e.env == nil {
		return map[string]string{}
	}
	return maps.Clone(e.env)
}

// Command returns a copy of the entry command.
func (e Environment) Command() []string { return slices.Clone(e.command) }

// Completed returns true if the stage has already been applied.
func (e Environment) Completed(stage string) bool { return slices.Contains(e.completed, stage) }

// CompletedStages returns the applied stages in order.
func (e Environment) CompletedStages() []string { return slices.Clone(e.completed) }

// clone returns a deep copy so the receiver is never mutated.
func (e Environment) clone() Environment {
	c := e
	c.layers = e.Layers()
	c.env = e.Env()
	c.command = e.Command()
	c.completed = e.CompletedStages()
	return c
}

// WithBaseImage returns a copy of the environment with the base image set.
func (e Environment) WithBaseImage(image string) Environment {
	c := e.clone()
	c.baseImage = image
	return c
}

// WithLayer returns a copy of the environment with the layer appended.
func (e Environment) WithLayer(l Layer) Environment {
	c := e.clone()
	l.Env = maps.Clone(l.Env)
	c.layers = append(c.layers, l)
	return c
}

// WithEnv returns a copy of the environment with the variables merged.
func (e Environment) WithEnv(env map[string]string) Environment {
	c := e.clone()
	maps.Copy(c.env, env)
	return c
}

// WithWorkingDir returns a copy of the environment with the working directory set.
func (e Environment) WithWorkingDir(dir string) Environment {
	c := e.clone()
	c.workingDir = dir
	return c
}

// WithContext returns a copy of the environment with the context copy paths set.
func (e Environment) WithContext(src, dst string) Environment {
	c := e.clone()
	c.contextSrc = src
	c.contextDst = dst
	return c
}

// WithCommand returns a copy of the environment with the entry command set.
func (e Environment) WithCommand(cmd []string) Environment {
	c := e.clone()
	c.command = slices.Clone(cmd)
	return c
}

// WithCompleted returns a copy of the environment with the stage marked as applied.
func (e Environment) WithCompleted(stage string) Environment {
	c := e.clone()
	if !slices.Contains(c.completed, stage) {
		c.completed = append(c.completed, stage)
	}
	return c
}

// Ready returns true when every stage has been applied and the entry command
// can be launched.
func (e Environment) Ready() bool {
	for _, s := range Stages {
		if !e.Completed(s) {
			return false
		}
	}
	return len(e.command) > 0
}
