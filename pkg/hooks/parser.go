package hooks

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/jingkaihe/mgrep-hook/pkg/filter"
)

// Bounds applied to every max results value.
const (
	MinMaxResults = 1
	MaxMaxResults = 100
)

// maxResultsKeys are tried in order; the first usable value wins.
var maxResultsKeys = []string{"--max-count", "-m", "max_count"}

// rawGrepInput holds tool_input values before type checks. JSON numbers
// arrive as json.Number.
type rawGrepInput struct {
	Pattern    any `mapstructure:"pattern"`
	Path       any `mapstructure:"path"`
	Glob       any `mapstructure:"glob"`
	OutputMode any `mapstructure:"output_mode"`
	I          any `mapstructure:"-i"`
	IgnoreCase any `mapstructure:"--ignore-case"`
}

// DecodeRequest decodes the host payload. Numbers are kept as json.Number.
func DecodeRequest(raw []byte) (*HookRequest, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.Wrap(ErrNotApplicable, "empty input")
	}

	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(ErrNotApplicable, "invalid payload: %s", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(ErrNotApplicable, "invalid payload: extra data after the JSON document")
	}
	if doc == nil {
		return nil, errors.Wrap(ErrNotApplicable, "payload is not an object")
	}

	req := &HookRequest{
		SessionID:      stringField(doc, "session_id"),
		TranscriptPath: stringField(doc, "transcript_path"),
		HookEventName:  stringField(doc, "hook_event_name"),
		PermissionMode: stringField(doc, "permission_mode"),
		CWD:            stringField(doc, "cwd"),
		ToolName:       stringField(doc, "tool_name"),
	}
	if input, ok := doc["tool_input"].(map[string]any); ok {
		req.ToolInput = input
	}
	return req, nil
}

// ParseSearchRequest validates a decoded payload. defaultMax is used when
// no max results alias carries a usable value.
func ParseSearchRequest(req *HookRequest, defaultMax int) (SearchRequest, error) {
	if req.ToolName != ToolNameGrep {
		return SearchRequest{}, errors.Wrapf(ErrNotApplicable, "tool %q is not intercepted", req.ToolName)
	}
	if req.ToolInput == nil {
		return SearchRequest{}, errors.Wrap(ErrNotApplicable, "tool_input is not an object")
	}

	var in rawGrepInput
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:    &in,
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return SearchRequest{}, errors.Wrap(err, "failed to create tool_input decoder")
	}
	if err := dec.Decode(req.ToolInput); err != nil {
		return SearchRequest{}, errors.Wrapf(ErrNotApplicable, "invalid tool_input: %s", err)
	}

	pattern, _ := in.Pattern.(string)
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return SearchRequest{}, errors.Wrap(ErrNotApplicable, "pattern is missing or blank")
	}

	path, _ := in.Path.(string)
	mode, _ := in.OutputMode.(string)

	return SearchRequest{
		Pattern:         pattern,
		Path:            path,
		CaseInsensitive: Truthy(in.I) || Truthy(in.IgnoreCase),
		MaxResults:      ParseMaxResults(req.ToolInput, defaultMax),
		OutputMode:      filter.ParseOutputMode(mode),
		GlobPatterns:    NormalizeGlobs(in.Glob),
	}, nil
}

// NormalizeGlobs accepts a string or a list and returns the trimmed,
// non-empty string patterns in order. Other values give no patterns.
func NormalizeGlobs(v any) []string {
	switch g := v.(type) {
	case string:
		if s := strings.TrimSpace(g); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range g {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case []string:
		return NormalizeGlobs(toAnySlice(g))
	}
	return nil
}

// ParseMaxResults reads the max results aliases in priority order. Integers,
// booleans (as 1 or 0) and non-empty digit strings are usable and get
// clamped; anything else is skipped. The default is clamped as well.
func ParseMaxResults(input map[string]any, defaultMax int) int {
	for _, key := range maxResultsKeys {
		if n, ok := integerValue(input[key]); ok {
			return clampBig(n)
		}
	}
	return Clamp(defaultMax)
}

// Clamp bounds n to [MinMaxResults, MaxMaxResults].
func Clamp(n int) int {
	return max(MinMaxResults, min(MaxMaxResults, n))
}

func clampBig(n *big.Int) int {
	if !n.IsInt64() {
		if n.Sign() < 0 {
			return MinMaxResults
		}
		return MaxMaxResults
	}
	v := n.Int64()
	switch {
	case v < MinMaxResults:
		return MinMaxResults
	case v > MaxMaxResults:
		return MaxMaxResults
	}
	return int(v)
}

func integerValue(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case json.Number:
		return parseInteger(string(n), true)
	case string:
		return parseInteger(n, false)
	case int:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case bool:
		if n {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	}
	return nil, false
}

// parseInteger accepts ASCII digits, with a leading minus sign when signed.
// Fractions and exponents are rejected.
func parseInteger(s string, signed bool) (*big.Int, bool) {
	digits := s
	if signed {
		digits = strings.TrimPrefix(s, "-")
	}
	if digits == "" {
		return nil, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return nil, false
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	return n, ok
}

// Truthy applies the host's truthiness rules to a decoded JSON value:
// null, false, zero, "", [] and {} are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
