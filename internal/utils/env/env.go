// Package env has helpers for environment variable maps.
package env

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var envKeyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidKey returns true if k can be used as an environment variable name.
func IsValidKey(k string) bool {
	return envKeyRegexp.MatchString(k)
}

// IsValidValue returns true if v has no control characters other than tabs, so it
// always fits in a single line.
func IsValidValue(v string) bool {
	return !strings.ContainsFunc(v, func(r rune) bool { return r != '\t' && unicode.IsControl(r) })
}

// ParseSpecs parses `KEY=VALUE` or `KEY` specs, the latter takes the value from
// the current process environment.
func ParseSpecs(specs []string) (map[string]string, error) {
	vars := make(map[string]string, len(specs))
	for _, spec := range specs {
		k, v, err := parseSpec(spec)
		if err != nil {
			return nil, err
		}
		vars[k] = v
	}

	return vars, nil
}

func parseSpec(spec string) (key, value string, err error) {
	if spec == "" {
		return "", "", fmt.Errorf("environment variable spec cannot be empty")
	}

	key, value, hasValue := strings.Cut(spec, "=")
	if !IsValidKey(key) {
		return "", "", fmt.Errorf("invalid environment variable key %q", key)
	}
	if hasValue {
		return key, value, nil
	}

	value, ok := os.LookupEnv(key)
	if !ok {
		return "", "", fmt.Errorf("environment variable %q is not set", key)
	}

	return key, value, nil
}

// MergeMaps returns a new map with the base variables overridden by the override ones.
func MergeMaps(base map[string]string, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	maps.Copy(merged, base)
	maps.Copy(merged, override)
	return merged
}

// ToSlice returns the env as `KEY=VALUE` entries sorted by key.
func ToSlice(vars map[string]string) []string {
	s := make([]string, 0, len(vars))
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		s = append(s, k+"="+vars[k])
	}
	return s
}
