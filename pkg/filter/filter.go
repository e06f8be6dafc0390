// Package filter turns raw mgrep output into the lines reported to the host.
package filter

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/jingkaihe/mgrep-hook/pkg/pathutil"
)

// OutputMode selects between matched-line content and a file list.
type OutputMode string

const (
	ModeContent OutputMode = "content"
	ModePaths   OutputMode = "paths"
)

// ParseOutputMode maps anything but "paths" to ModeContent.
func ParseOutputMode(s string) OutputMode {
	if OutputMode(s) == ModePaths {
		return ModePaths
	}
	return ModeContent
}

// SplitLines splits output on line boundaries and drops lines that are
// blank after trimming. Kept lines are returned untrimmed.
func SplitLines(output string) []string {
	fields := strings.FieldsFunc(output, isLineBreak)
	lines := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			lines = append(lines, f)
		}
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

type pattern struct {
	raw   string
	g     glob.Glob
	never bool
}

// Matcher tests paths against a set of shell-style wildcard patterns with
// fnmatch rules: '*', '?' and bracket classes are the only wildcards.
// Patterns are compiled without separators, so '*' also matches '/'.
type Matcher struct {
	patterns []pattern
}

// NewMatcher compiles patterns. A pattern that does not compile only
// matches a path equal to it.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{patterns: make([]pattern, 0, len(patterns))}
	for _, p := range patterns {
		translated, ok := translate(p)
		if !ok {
			m.patterns = append(m.patterns, pattern{raw: p, never: true})
			continue
		}
		g, err := glob.Compile(translated)
		if err != nil {
			g = nil
		}
		m.patterns = append(m.patterns, pattern{raw: p, g: g})
	}
	return m
}

// Empty reports whether the matcher has no patterns.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.patterns) == 0
}

// Match reports whether path matches any pattern.
func (m *Matcher) Match(path string) bool {
	if m == nil || path == "" {
		return false
	}
	for _, p := range m.patterns {
		if p.never {
			continue
		}
		if p.g != nil {
			if p.g.Match(path) {
				return true
			}
		} else if p.raw == path {
			return true
		}
	}
	return false
}

// FilterByGlob keeps the lines whose relative or absolute path matches m.
// Lines without a path token are kept. An empty matcher keeps everything.
func FilterByGlob(lines []string, m *Matcher, workspace string) []string {
	if m.Empty() {
		return lines
	}
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		p := pathutil.ExtractPaths(line, workspace)
		if p.IsZero() || m.Match(p.Relative) || m.Match(p.Absolute) {
			kept = append(kept, line)
		}
	}
	return kept
}

// Shape renders lines for mode. Content mode returns lines unchanged; paths
// mode returns each line's best path form, deduplicated in first-seen order.
func Shape(lines []string, mode OutputMode, workspace string) []string {
	if mode != ModePaths {
		return lines
	}
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		v := displayValue(line, workspace)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func displayValue(line, workspace string) string {
	p := pathutil.ExtractPaths(line, workspace)
	for _, v := range []string{p.Display, p.Relative, p.Absolute} {
		if v != "" {
			return v
		}
	}
	return line
}
