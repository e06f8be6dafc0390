//go:build unix

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/mgrep-hook/pkg/binaries"
	"github.com/jingkaihe/mgrep-hook/pkg/config"
	"github.com/jingkaihe/mgrep-hook/pkg/hooks"
	"github.com/jingkaihe/mgrep-hook/pkg/presenter"
)

type env struct {
	home      string
	workspace string
	logFile   string
}

func setupEnv(t *testing.T, withToken bool) env {
	t.Helper()
	home := t.TempDir()
	ws, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	if withToken {
		require.NoError(t, os.MkdirAll(filepath.Join(home, ".mgrep"), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(home, ".mgrep", "token.json"), []byte(`{}`), 0o600))
	}

	script := filepath.Join(t.TempDir(), "mgrep")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf 'a.go:1:package a\\nb.ts:2:export {}\\n'\n"), 0o755))

	logFile := filepath.Join(t.TempDir(), "logs", "hook.log")
	t.Setenv("HOME", home)
	t.Setenv("MGREP_BIN", script)
	t.Setenv("MGREP_HOOK_LOG", logFile)
	for _, key := range []string{
		"MGREP_HOOK_LOG_LEVEL", "MGREP_HOOK_LOG_FORMAT", "MGREP_HOOK_MAX_RESULTS",
		"MGREP_HOOK_CMD_TIMEOUT", "MGREP_HOOK_DISABLE", "MGREP_STORE",
		"CLAUDE_PLUGIN_ROOT", "MGREP_HOOK_TRACING",
	} {
		t.Setenv(key, "")
	}

	return env{home: home, workspace: ws, logFile: logFile}
}

func grepPayload(ws, toolInput string) string {
	cwd, _ := json.Marshal(ws)
	return `{"session_id":"abc","hook_event_name":"PreToolUse","tool_name":"Grep","cwd":` + string(cwd) + `,"tool_input":` + toolInput + `}`
}

func run(t *testing.T, args []string, stdin string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_HookDeniesWithResults(t *testing.T) {
	e := setupEnv(t, true)

	code, stdout, stderr := run(t, nil, grepPayload(e.workspace, `{"pattern":"package","glob":"*.go"}`))

	require.Equal(t, hooks.ExitDeny, code)
	assert.Empty(t, stdout)

	var resp hooks.HookResponse
	require.NoError(t, json.Unmarshal([]byte(stderr), &resp))
	assert.Equal(t, "MGrep semantic search for 'package' in .\na.go:1:package a", resp.HookSpecificOutput.AdditionalContext)

	logs, err := os.ReadFile(e.logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "invocation_id=")
	assert.Contains(t, string(logs), "tool_name=Grep")
	assert.Contains(t, string(logs), "mgrep completed")
}

func TestExecute_NoTokenFile(t *testing.T) {
	e := setupEnv(t, false)

	code, stdout, stderr := run(t, nil, grepPayload(e.workspace, `{"pattern":"package"}`))

	assert.Equal(t, hooks.ExitAllow, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestExecute_IgnoresUnknownFlagsAndArgs(t *testing.T) {
	setupEnv(t, true)

	code, _, stderr := run(t, []string{"--matcher", "Grep", "extra"}, `{"tool_name":"Read","tool_input":{}}`)

	assert.Equal(t, hooks.ExitAllow, code)
	assert.Empty(t, stderr)
}

func TestExecute_InvalidEnvironmentFallsBack(t *testing.T) {
	e := setupEnv(t, true)
	t.Setenv("MGREP_HOOK_MAX_RESULTS", "lots")
	t.Setenv("MGREP_HOOK_CMD_TIMEOUT", "-1")

	code, _, _ := run(t, nil, grepPayload(e.workspace, `{"pattern":"package"}`))

	assert.Equal(t, hooks.ExitDeny, code)
	logs, err := os.ReadFile(e.logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "MGREP_HOOK_MAX_RESULTS")
	assert.Contains(t, string(logs), "level=warning")
}

func TestExecute_Disabled(t *testing.T) {
	e := setupEnv(t, true)
	t.Setenv("MGREP_HOOK_DISABLE", "YES")

	code, _, stderr := run(t, nil, grepPayload(e.workspace, `{"pattern":"package"}`))

	assert.Equal(t, hooks.ExitAllow, code)
	assert.Empty(t, stderr)
}

func TestExecute_Version(t *testing.T) {
	code, stdout, _ := run(t, []string{"version"}, "")

	require.Equal(t, 0, code)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "goVersion")
}

func TestExecute_Schema(t *testing.T) {
	code, stdout, _ := run(t, []string{"schema"}, "")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"tool_name"`)

	code, stdout, _ = run(t, []string{"schema", "response"}, "")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"hookSpecificOutput"`)
	assert.Contains(t, stdout, `"permissionDecision"`)

	code, stdout, _ = run(t, []string{"schema", "tool-input"}, "")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"--max-count"`)

	code, _, stderr := run(t, []string{"schema", "bogus"}, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown schema")
}

func TestExecute_Config(t *testing.T) {
	e := setupEnv(t, true)
	t.Setenv("MGREP_HOOK_MAX_RESULTS", "7")
	t.Setenv("MGREP_STORE", "team")
	require.NoError(t, os.WriteFile(filepath.Join(e.home, ".mgrep", "hook.yaml"), []byte("log_level: debug\nmax_results: 9\n"), 0o644))

	code, stdout, _ := run(t, []string{"config", "--log-format", "json"}, "")

	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "max_results: 7\n")
	assert.Contains(t, stdout, "log_level: debug\n")
	assert.Contains(t, stdout, "log_format: json\n")
	assert.Contains(t, stdout, "store: team\n")
	assert.Contains(t, stdout, "timeout: 25s\n")
}

func TestRunDoctor(t *testing.T) {
	e := setupEnv(t, true)
	cfg := config.Default()
	cfg.TokenFile = filepath.Join(e.home, ".mgrep", "token.json")

	var out bytes.Buffer
	p := presenter.NewWithOptions(&out, &out, presenter.ColorNever)

	err := runDoctor(context.Background(), p, cfg, nil, binaries.NewResolver("mgrep --verbose", ""))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "token file found")
	assert.Contains(t, out.String(), "mgrep --verbose")

	out.Reset()
	cfg.TokenFile = filepath.Join(e.home, "missing.json")
	err = runDoctor(context.Background(), p, cfg, nil, binaries.NewResolver("", "", binaries.WithLookPath(func(string) (string, error) {
		return "", os.ErrNotExist
	})))
	assert.ErrorIs(t, err, errNotReady)
	assert.Contains(t, out.String(), "token file not found")
	assert.Contains(t, out.String(), "mgrep binary not found")
	assert.Contains(t, out.String(), "point MGREP_BIN at it")
}

func TestExecute_DoctorQuiet(t *testing.T) {
	setupEnv(t, false)

	code, stdout, stderr := run(t, []string{"doctor", "--quiet"}, "")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, errNotReady.Error())
}
