// Package pathcheck validates input and output path strings before any
// process is spawned. Only the validated, normalized value ever reaches a
// subprocess argument vector.
package pathcheck

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/geomantic/tilepress/internal/faults"
)

// Role distinguishes how a path will be used.
type Role int

const (
	RoleInput Role = iota
	RoleOutput
)

// Validated is a path string that passed validation. Builder code accepts
// this type rather than raw strings so unvalidated input cannot leak into
// an argument vector.
type Validated string

func (v Validated) String() string { return string(v) }

// remoteSchemes are the URI prefixes resolved by the reading stage itself;
// existence of remote objects is not checked here.
var remoteSchemes = []string{"s3://", "gs://", "az://", "http://", "https://"}

// IsRemote reports whether path is a recognized remote-storage URI.
func IsRemote(path string) bool {
	lower := strings.ToLower(path)
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// shellMeta are characters we refuse in local paths. The argument-vector
// execution model never invokes a shell, so these have no legitimate use
// and their presence indicates either corruption or an injection attempt.
const shellMeta = ";|&$`<>\n\x00"

// Validate checks a raw path string for the given role and returns the
// normalized value. Failures are *faults.PathError naming the violated rule.
//
// Input role: local paths must exist and be readable regular files; remote
// URIs pass through unresolved. Output role: must be local, the parent
// directory must exist and be writable; the target file may already exist
// (overwrite is allowed).
func Validate(path string, role Role) (Validated, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", &faults.PathError{
			Path:   path,
			Rule:   "path is empty",
			Remedy: "pass a local file path or a s3://, gs://, az:// or http(s):// URI",
		}
	}

	if IsRemote(trimmed) {
		if role == RoleOutput {
			return "", &faults.PathError{
				Path:   trimmed,
				Rule:   "output must be a local filesystem path",
				Remedy: "write the archive locally and upload it separately",
			}
		}
		return Validated(trimmed), nil
	}

	if i := strings.IndexAny(trimmed, shellMeta); i >= 0 {
		return "", &faults.PathError{
			Path:   trimmed,
			Rule:   "contains shell metacharacter " + metaLabel(trimmed[i]),
			Remedy: "rename the file; metacharacters are rejected even though no shell is ever invoked",
		}
	}

	clean := filepath.Clean(trimmed)

	switch role {
	case RoleInput:
		return validateInput(clean)
	default:
		return validateOutput(clean)
	}
}

func validateInput(clean string) (Validated, error) {
	fi, err := os.Stat(clean)
	if err != nil {
		return "", &faults.PathError{
			Path:   clean,
			Rule:   "file does not exist",
			Remedy: "check the path for typos; remote inputs need an explicit URI scheme",
		}
	}
	if !fi.Mode().IsRegular() {
		return "", &faults.PathError{
			Path:   clean,
			Rule:   "not a regular file",
			Remedy: "point at a GeoParquet file, not a directory or device",
		}
	}
	f, err := os.Open(clean)
	if err != nil {
		return "", &faults.PathError{
			Path:   clean,
			Rule:   "file is not readable",
			Remedy: "fix the file permissions",
		}
	}
	f.Close()
	return Validated(clean), nil
}

func validateOutput(clean string) (Validated, error) {
	parent := filepath.Dir(clean)
	fi, err := os.Stat(parent)
	if err != nil || !fi.IsDir() {
		return "", &faults.PathError{
			Path:   clean,
			Rule:   "parent directory does not exist",
			Remedy: "create " + parent + " first",
		}
	}
	if err := syscall.Access(parent, 0x2); err != nil { // W_OK
		return "", &faults.PathError{
			Path:   clean,
			Rule:   "parent directory is not writable",
			Remedy: "fix the permissions on " + parent + " or choose another output location",
		}
	}
	return Validated(clean), nil
}

// metaLabel renders a single metacharacter for the error message, keeping
// newline and NUL printable.
func metaLabel(c byte) string {
	switch c {
	case '\n':
		return `'\n'`
	case 0:
		return `'\0'`
	default:
		return "'" + string(c) + "'"
	}
}
