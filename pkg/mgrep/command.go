// Package mgrep builds and runs the mgrep semantic-search command that
// replaces an intercepted Grep call.
package mgrep

import (
	"strconv"
	"strings"
)

// SearchOptions are the request values that shape the mgrep argument vector.
type SearchOptions struct {
	Pattern         string
	CaseInsensitive bool
	MaxResults      int
	// Store selects a non-default mgrep store when set.
	Store string
	// Scope is the path argument; empty means search the working directory.
	Scope string
}

// Command is a fully resolved mgrep invocation.
type Command struct {
	Args []string
	Dir  string
}

// BuildCommand returns the invocation
//
//	<prefix...> search [-i] -m <n> [--store <s>] <pattern> [<scope>]
//
// run from dir. The argument order is fixed.
func BuildCommand(prefix []string, opts SearchOptions, dir string) Command {
	args := make([]string, 0, len(prefix)+8)
	args = append(args, prefix...)
	args = append(args, "search")

	if opts.CaseInsensitive {
		args = append(args, "-i")
	}

	args = append(args, "-m", strconv.Itoa(opts.MaxResults))

	if opts.Store != "" {
		args = append(args, "--store", opts.Store)
	}

	args = append(args, opts.Pattern)

	if opts.Scope != "" {
		args = append(args, opts.Scope)
	}

	return Command{Args: args, Dir: dir}
}

// String renders the command as a POSIX shell line, for logs.
func (c Command) String() string {
	quoted := make([]string, len(c.Args))
	for i, arg := range c.Args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("@%+=:,./-_", r)
}
