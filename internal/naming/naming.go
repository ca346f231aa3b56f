// Package naming derives default output paths and tile layer names from the
// input file when the user does not supply them explicitly.
package naming

import (
	"path/filepath"
	"strings"

	"github.com/geomantic/tilepress/internal/faults"
	"github.com/geomantic/tilepress/internal/pathcheck"
)

// ArchiveExt is the extension of the generated tile archive.
const ArchiveExt = ".pmtiles"

// DeriveOutput returns the default output path for an input: the input stem
// with the archive extension, next to the input. Remote inputs have no local
// sibling directory, so deriving from them is an error.
func DeriveOutput(input string) (string, error) {
	if pathcheck.IsRemote(input) {
		return "", &faults.PathError{
			Path:   input,
			Rule:   "cannot derive an output path from a remote input",
			Remedy: "pass an explicit local output path as the second argument",
		}
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ArchiveExt, nil
}

// LayerName returns the default tile layer name for an input path: the file
// stem lowercased with every rune outside [a-z0-9_] mapped to '_'. Falls
// back to "layer" when the stem sanitizes to nothing.
func LayerName(input string) string {
	stem := Stem(input)
	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "layer"
	}
	return name
}

// Stem returns the base name of path without its extension. Works for both
// local paths and remote URIs.
func Stem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i] // strip URI query strings
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
