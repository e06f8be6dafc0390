// Package hooks implements the PreToolUse hook that answers the host's Grep
// tool with mgrep semantic search results.
//
// A run either produces a deny response carrying the substitute results, or
// skips and lets the original Grep call proceed. Every skip is an error
// wrapping one of ErrNotApplicable, ErrPrecondition or mgrep.ErrUnavailable.
package hooks

import (
	"github.com/pkg/errors"
)

const (
	// ToolNameGrep is the only tool this hook intercepts.
	ToolNameGrep = "Grep"
	// EventPreToolUse is the host event the hook answers.
	EventPreToolUse = "PreToolUse"
	// DecisionDeny tells the host to drop the original call.
	DecisionDeny = "deny"
	// DecisionReason is reported with every deny response.
	DecisionReason = "Semantic search completed by mgrep"
	// NoMatchesText is the body used when mgrep found nothing.
	NoMatchesText = "No semantic matches found."
)

// Process exit statuses understood by the host.
const (
	ExitAllow = 0
	ExitDeny  = 2
)

var (
	// ErrNotApplicable marks input the hook does not handle, such as other
	// tools or a payload without a usable pattern.
	ErrNotApplicable = errors.New("request not applicable")
	// ErrPrecondition marks an environment that cannot serve the request:
	// the hook is disabled or mgrep is not set up on this machine.
	ErrPrecondition = errors.New("precondition not met")
)
