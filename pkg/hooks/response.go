package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// BuildContext renders the text handed back to the model in place of the
// Grep output.
func BuildContext(pattern, scopeLabel string, lines []string) string {
	header := fmt.Sprintf("MGrep semantic search for %s in %s", Quote(pattern), scopeLabel)
	if len(lines) == 0 {
		return header + "\n" + NoMatchesText
	}
	return header + "\n" + strings.Join(lines, "\n")
}

// NewDenyResponse wraps additionalContext in the PreToolUse deny envelope.
func NewDenyResponse(additionalContext string) *HookResponse {
	return &HookResponse{
		HookSpecificOutput: HookSpecificOutput{
			HookEventName:            EventPreToolUse,
			PermissionDecision:       DecisionDeny,
			PermissionDecisionReason: DecisionReason,
			AdditionalContext:        additionalContext,
		},
	}
}

// Write encodes the response as a single JSON line.
func (r *HookResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "failed to write hook response")
	}
	return nil
}

// Quote renders s the way the host's repr would: single quotes unless s
// contains a single quote and no double quote, with control and
// non-printable characters escaped.
func Quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == unicode.ReplacementChar || unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
