package pathutil

import (
	"path/filepath"
	"strings"
)

// Paths are the three renderings of the path a result line refers to.
// All fields are empty when the line carries no path token.
type Paths struct {
	// Display is the path as mgrep printed it when it was dot-relative
	// ("./src/a.go"), otherwise the same as Relative.
	Display string
	// Relative is workspace-relative with forward slashes, or the absolute
	// path when the file lies outside the workspace.
	Relative string
	// Absolute is the fully resolved path with forward slashes.
	Absolute string
}

// IsZero reports whether no path could be extracted.
func (p Paths) IsZero() bool {
	return p.Display == "" && p.Relative == "" && p.Absolute == ""
}

// Token returns the leading path token of an mgrep output line.
//
// Lines normally look like "path:line[:col]...". The token is the shortest
// non-empty prefix followed by a colon and a digit. Without such a suffix the
// text before the first colon is used. ok is false when neither yields a
// non-empty token.
func Token(line string) (token string, ok bool) {
	for i := 1; i+1 < len(line); i++ {
		if line[i] == ':' && isDigit(line[i+1]) {
			return line[:i], true
		}
	}
	if idx := strings.IndexByte(line, ':'); idx > 0 {
		return line[:idx], true
	}
	return "", false
}

// ExtractPaths locates the path token in line and renders it relative to
// workspace, which must be absolute and resolved.
func ExtractPaths(line, workspace string) Paths {
	token, ok := Token(line)
	if !ok {
		return Paths{}
	}

	cleaned := strings.TrimSpace(token)
	rel := cleaned
	switch {
	case strings.HasPrefix(cleaned, "./"):
		rel = orDot(cleaned[2:])
	case strings.HasPrefix(cleaned, "."):
		rel = orDot(cleaned[1:])
	}

	var abs string
	switch {
	case filepath.IsAbs(rel):
		abs = filepath.Clean(rel)
	case hasDriveLetter(rel):
		abs = rel
	default:
		// workspace is absolute, so Resolve cannot fail here.
		abs, _ = Resolve(filepath.Join(workspace, rel))
	}

	relative, inside := RelativeTo(abs, workspace)
	if !inside {
		relative = filepath.ToSlash(abs)
	}

	display := relative
	if strings.HasPrefix(cleaned, ".") {
		display = cleaned
	}

	return Paths{
		Display:  display,
		Relative: relative,
		Absolute: filepath.ToSlash(abs),
	}
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func hasDriveLetter(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
