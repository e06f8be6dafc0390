//go:build unix

package hooks

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_WithRealProcess(t *testing.T) {
	f := newFixture(t)
	script := filepath.Join(t.TempDir(), "fake mgrep")
	require.NoError(t, os.WriteFile(script, []byte(`#!/bin/sh
echo "args: $*" >&2
printf 'src/a.go:1:first\r\nsrc/b.ts:2:second\n'
`), 0o755))

	f.cfg.Bin = `"` + script + `"`
	f.cfg.Timeout = 5 * time.Second

	h := NewHandler(f.cfg)
	var stderr bytes.Buffer
	code := h.Run(f.context(), strings.NewReader(f.payload(`{"pattern":"foo","glob":["*.go"]}`)), &stderr)

	require.Equal(t, ExitDeny, code)
	assert.Equal(t, "MGrep semantic search for 'foo' in .\nsrc/a.go:1:first", decodeContext(t, stderr.String()))
}

func TestHandler_RealProcessTimeout(t *testing.T) {
	f := newFixture(t)
	script := filepath.Join(t.TempDir(), "slow-mgrep")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0o755))

	f.cfg.Bin = script
	f.cfg.Timeout = 200 * time.Millisecond

	h := NewHandler(f.cfg)
	var stderr bytes.Buffer
	start := time.Now()
	code := h.Run(f.context(), strings.NewReader(f.payload(`{"pattern":"foo"}`)), &stderr)

	assert.Equal(t, ExitAllow, code)
	assert.Empty(t, stderr.String())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, f.logs.String(), "timed out")
}
