// Package dockerfile renders bootstrapped environments as Dockerfiles.
package dockerfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/utils/env"
)

var plainValueRegexp = regexp.MustCompile(`^[A-Za-z0-9._/:@%+=,-]+$`)

// Render returns the Dockerfile of a ready environment. The same environment
// always renders the same Dockerfile.
func Render(e model.Environment) (string, error) {
	if !e.Ready() {
		return "", fmt.Errorf("environment is not ready, applied stages: %v: %w", e.CompletedStages(), model.ErrNotValid)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", e.BaseImage())

	for _, l := range e.Layers() {
		switch l.Kind {
		case model.InstructionRun:
			if err := CheckScript(l.Name, l.Script); err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "RUN %s\n", l.Script)

		case model.InstructionEnv:
			for _, kv := range env.ToSlice(l.Env) {
				k, v, _ := strings.Cut(kv, "=")
				if !env.IsValidValue(v) {
					return "", fmt.Errorf("environment variable %q value on layer %q has control characters: %w", k, l.Name, model.ErrNotValid)
				}
				fmt.Fprintf(&sb, "ENV %s=%s\n", k, quoteValue(v))
			}

		case model.InstructionWorkdir:
			fmt.Fprintf(&sb, "WORKDIR %s\n", l.Path)

		case model.InstructionCopy:
			fmt.Fprintf(&sb, "COPY %s %s\n", l.Src, l.Dst)

		default:
			return "", fmt.Errorf("unknown instruction %q on layer %q: %w", l.Kind, l.Name, model.ErrNotValid)
		}
	}

	cmd, err := execForm(e.Command())
	if err != nil {
		return "", fmt.Errorf("could not render command: %w", err)
	}
	fmt.Fprintf(&sb, "\nCMD %s\n", cmd)

	return sb.String(), nil
}

// CheckScript makes sure a RUN script is valid POSIX shell.
func CheckScript(name, script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("layer %q has an empty script: %w", name, model.ErrNotValid)
	}

	if _, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(script), name); err != nil {
		return fmt.Errorf("layer %q has an invalid script: %w: %w", name, err, model.ErrNotValid)
	}

	return nil
}

func quoteValue(v string) string {
	if plainValueRegexp.MatchString(v) {
		return v
	}

	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)
	return `"` + r.Replace(v) + `"`
}

// execForm returns the JSON array form, so the entry command runs as the single
// foreground process instead of being wrapped by a shell.
func execForm(cmd []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cmd); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}
