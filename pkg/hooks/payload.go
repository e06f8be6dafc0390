package hooks

import (
	"github.com/jingkaihe/mgrep-hook/pkg/filter"
)

// HookRequest is the JSON document the host writes to stdin.
type HookRequest struct {
	SessionID      string         `json:"session_id,omitempty" jsonschema:"description=Host session identifier"`
	TranscriptPath string         `json:"transcript_path,omitempty"`
	HookEventName  string         `json:"hook_event_name,omitempty" jsonschema:"example=PreToolUse"`
	PermissionMode string         `json:"permission_mode,omitempty"`
	CWD            string         `json:"cwd,omitempty" jsonschema:"description=Workspace root; defaults to the process directory"`
	ToolName       string         `json:"tool_name" jsonschema:"required,example=Grep"`
	ToolInput      map[string]any `json:"tool_input" jsonschema:"required"`
}

// GrepInput documents the tool_input keys the hook reads.
type GrepInput struct {
	Pattern      string   `json:"pattern" mapstructure:"pattern" jsonschema:"required,minLength=1"`
	Path         string   `json:"path,omitempty" mapstructure:"path"`
	Glob         []string `json:"glob,omitempty" mapstructure:"glob" jsonschema:"description=A pattern or a list of patterns"`
	OutputMode   string   `json:"output_mode,omitempty" mapstructure:"output_mode" jsonschema:"enum=content,enum=paths,default=content"`
	MaxCountLong int      `json:"--max-count,omitempty" mapstructure:"--max-count" jsonschema:"minimum=1,maximum=100"`
	MaxCountM    int      `json:"-m,omitempty" mapstructure:"-m" jsonschema:"minimum=1,maximum=100"`
	MaxCount     int      `json:"max_count,omitempty" mapstructure:"max_count" jsonschema:"minimum=1,maximum=100"`
	I            bool     `json:"-i,omitempty" mapstructure:"-i"`
	IgnoreCase   bool     `json:"--ignore-case,omitempty" mapstructure:"--ignore-case"`
}

// HookResponse is written to stderr when the original call is replaced.
type HookResponse struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

// HookSpecificOutput carries the PreToolUse decision.
type HookSpecificOutput struct {
	HookEventName            string `json:"hookEventName" jsonschema:"const=PreToolUse"`
	PermissionDecision       string `json:"permissionDecision" jsonschema:"const=deny"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
	AdditionalContext        string `json:"additionalContext"`
}

// SearchRequest is a validated Grep request.
type SearchRequest struct {
	// Pattern is trimmed and never empty.
	Pattern         string
	Path            string
	CaseInsensitive bool
	// MaxResults is within [MinMaxResults, MaxMaxResults].
	MaxResults   int
	OutputMode   filter.OutputMode
	GlobPatterns []string
}
