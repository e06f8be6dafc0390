// Package binaries locates the mgrep invocation the hook runs. It checks an
// explicit override first, then PATH, then the plugin's bundled build.
package binaries

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/shlex"
	"github.com/pkg/errors"

	"github.com/jingkaihe/mgrep-hook/pkg/logger"
	"github.com/jingkaihe/mgrep-hook/pkg/pathutil"
)

const (
	// BinaryName is the executable looked up on PATH.
	BinaryName = "mgrep"
	// NodeBinary runs the plugin's bundled JavaScript build.
	NodeBinary = "node"
)

// ErrNotFound is returned when no mgrep invocation could be resolved.
var ErrNotFound = errors.New("mgrep binary not found")

// Source records where an invocation came from.
type Source string

const (
	SourceOverride Source = "override"
	SourcePath     Source = "path"
	SourcePlugin   Source = "plugin"
)

// Invocation is the argument prefix that starts mgrep.
type Invocation struct {
	Prefix []string `json:"prefix" yaml:"prefix"`
	Source Source   `json:"source" yaml:"source"`
}

// Resolver finds the mgrep invocation.
type Resolver struct {
	override   string
	pluginRoot string
	lookPath   func(string) (string, error)
	fileExists func(string) bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Resolver) { r.lookPath = fn }
}

// WithFileExists replaces the existence check used for the plugin build.
func WithFileExists(fn func(string) bool) Option {
	return func(r *Resolver) { r.fileExists = fn }
}

// NewResolver creates a resolver for the given override command line and
// plugin root directory. Either may be empty.
func NewResolver(override, pluginRoot string, opts ...Option) *Resolver {
	r := &Resolver{
		override:   override,
		pluginRoot: pluginRoot,
		lookPath:   exec.LookPath,
		fileExists: fileExists,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first available invocation. A non-empty override is
// authoritative: if it cannot be tokenized into at least one word the
// result is ErrNotFound without trying the other sources.
func (r *Resolver) Resolve(ctx context.Context) (Invocation, error) {
	log := logger.G(ctx)

	if r.override != "" {
		parts, err := shlex.Split(r.override)
		if err != nil {
			return Invocation{}, errors.Wrapf(ErrNotFound, "invalid override %q: %s", r.override, err)
		}
		if len(parts) == 0 {
			return Invocation{}, errors.Wrapf(ErrNotFound, "override %q is empty", r.override)
		}
		log.WithField("prefix", parts).Debug("using mgrep override")
		return Invocation{Prefix: parts, Source: SourceOverride}, nil
	}

	if path, err := r.lookPath(BinaryName); err == nil {
		log.WithField("path", path).Debug("using mgrep from PATH")
		return Invocation{Prefix: []string{path}, Source: SourcePath}, nil
	}

	if script := PluginScript(r.pluginRoot); script != "" && r.fileExists(script) {
		log.WithField("script", script).Debug("using plugin mgrep build")
		return Invocation{Prefix: []string{NodeBinary, filepath.ToSlash(script)}, Source: SourcePlugin}, nil
	}

	return Invocation{}, ErrNotFound
}

// PluginScript returns the bundled build location two directories above the
// resolved plugin root, or "" when root is empty. A relative root is taken
// from the process working directory.
func PluginScript(root string) string {
	if root == "" {
		return ""
	}
	resolved, err := pathutil.Resolve(root)
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(filepath.Dir(resolved)), "dist", "index.js")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
