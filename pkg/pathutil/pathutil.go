// Package pathutil resolves the workspace and search scope of a hook request
// and maps paths found in mgrep output back onto the workspace.
//
// Relative paths handed to users are always POSIX-style and relative to the
// workspace; paths outside the workspace are reported in absolute form.
package pathutil

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ResolveWorkspace returns the absolute, symlink-resolved workspace root.
// cwd comes from the hook payload; when it is blank or does not exist the
// process working directory reported by getwd is used instead.
func ResolveWorkspace(cwd string, getwd func() (string, error)) (string, error) {
	if strings.TrimSpace(cwd) != "" {
		candidate := ExpandHome(cwd)
		if _, err := os.Stat(candidate); err == nil {
			return Resolve(candidate)
		}
	}

	wd, err := getwd()
	if err != nil {
		return "", err
	}
	return Resolve(wd)
}

// ResolveScope returns the absolute path a search is confined to. A blank
// path means the whole workspace.
func ResolveScope(path, workspace string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return workspace, nil
	}

	candidate := ExpandHome(path)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(workspace, candidate)
	}
	return Resolve(candidate)
}

// DescribeScope returns the label used in the response header: the scope
// relative to the workspace, "." for the workspace itself, or the absolute
// scope when it lies elsewhere.
func DescribeScope(scope, workspace string) string {
	rel, ok := RelativeTo(scope, workspace)
	if !ok {
		return filepath.ToSlash(scope)
	}
	return rel
}

// CLIArg returns the scope argument for mgrep, or "" when the scope is the
// workspace and no argument should be passed.
func CLIArg(scope, workspace string) string {
	rel, ok := RelativeTo(scope, workspace)
	if !ok {
		return filepath.ToSlash(scope)
	}
	if rel == "." {
		return ""
	}
	return rel
}

// RelativeTo returns target relative to base in POSIX form. ok is false when
// target is not base or a descendant of it.
func RelativeTo(target, base string) (string, bool) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Resolve makes path absolute and resolves symlinks. When the path does not
// exist, the longest existing prefix is resolved and the missing elements
// are appended to it unchanged.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	var missing []string
	dir := abs
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		missing = append(missing, filepath.Base(dir))
		dir = parent
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			slices.Reverse(missing)
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
	}
}

// ExpandHome replaces a leading "~" path element with the user's home
// directory. Other forms, including "~user", are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
